package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"no rows", sql.ErrNoRows, false},
		{"deadline", context.DeadlineExceeded, false},
		{"pgx serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"pgx unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"pq connection failure", &pq.Error{Code: "08006"}, true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

func TestRetryWithBackoff_RetriesTransientErrors(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}
	calls := 0

	err := RetryWithBackoff(context.Background(), logger.NewNop(), cfg, func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40P01"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_StopsOnPermanentError(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}
	permanent := &pgconn.PgError{Code: "23505"}
	calls := 0

	err := RetryWithBackoff(context.Background(), logger.NewNop(), cfg, func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestHandleQueryError(t *testing.T) {
	notFound := errors.New("not found")

	assert.NoError(t, HandleQueryError(nil, notFound, "get refresh token", time.Now()))
	assert.Equal(t, notFound, HandleQueryError(sql.ErrNoRows, notFound, "find user by email", time.Now()))

	cause := errors.New("connection reset")
	err := HandleQueryError(cause, notFound, "get refresh token", time.Now())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to get refresh token")
}

func TestExtractTableFromOperation(t *testing.T) {
	assert.Equal(t, "refresh_tokens", extractTableFromOperation("delete refresh tokens for user"))
	assert.Equal(t, "audit_log", extractTableFromOperation("insert audit entry"))
	assert.Equal(t, "roles", extractTableFromOperation("list roles for user"))
	assert.Equal(t, "users", extractTableFromOperation("find user by email"))
	assert.Equal(t, "unknown", extractTableFromOperation("ping"))
}
