package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	pgx "github.com/jackc/pgx/v4"

	"github.com/AlibekovAA/tenantdesk-auth/internal/observability/metrics"
)

func extractTableFromOperation(operation string) string {
	operation = strings.ToLower(operation)
	switch {
	case strings.Contains(operation, "refresh"):
		return "refresh_tokens"
	case strings.Contains(operation, "audit"):
		return "audit_log"
	case strings.Contains(operation, "permission"), strings.Contains(operation, "role"):
		return "roles"
	case strings.Contains(operation, "user"), strings.Contains(operation, "password"):
		return "users"
	}
	return "unknown"
}

// IsNoRows reports whether err means an empty result from either pgx or database/sql.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

func HandleQueryError(err error, notFoundErr error, operation string, startTime time.Time) error {
	MeasureQueryDuration(operation, startTime)

	if err == nil {
		return nil
	}
	if IsNoRows(err) {
		return notFoundErr
	}
	table := extractTableFromOperation(operation)
	metrics.DBQueryErrors.WithLabelValues(operation, table, fmt.Sprintf("%T", err)).Inc()
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func HandleExecError(err error, operation string, startTime time.Time) error {
	MeasureQueryDuration(operation, startTime)

	if err == nil {
		return nil
	}
	table := extractTableFromOperation(operation)
	metrics.DBQueryErrors.WithLabelValues(operation, table, fmt.Sprintf("%T", err)).Inc()
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func MeasureQueryDuration(operation string, startTime time.Time) {
	table := extractTableFromOperation(operation)
	metrics.DBQueryDurationSeconds.WithLabelValues(operation, table).Observe(time.Since(startTime).Seconds())
}
