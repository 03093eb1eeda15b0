package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/constants"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
)

const applicationName = "tenantdesk-auth"

// NewPool connects the pgx pool that backs refresh-token storage, retrying while
// the database comes up.
func NewPool(ctx context.Context, log *logger.Logger, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	cfg.MaxConns = constants.DBPoolMaxConns
	cfg.MinConns = constants.DBPoolMinConns
	cfg.MaxConnLifetime = constants.DBPoolConnMaxLifetime
	cfg.MaxConnIdleTime = constants.DBPoolConnMaxIdleTime
	cfg.HealthCheckPeriod = constants.DBPoolHealthCheck
	cfg.ConnConfig.ConnectTimeout = constants.DBPoolConnectTimeout
	cfg.ConnConfig.RuntimeParams = map[string]string{
		"application_name": applicationName,
	}

	for attempt := 1; attempt <= constants.DBPoolMaxAttempts; attempt++ {
		pool, err := pgxpool.ConnectConfig(ctx, cfg)
		if err == nil {
			log.Infof("database connection pool initialized: max=%d, min=%d", cfg.MaxConns, cfg.MinConns)
			StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)
			return pool, nil
		}

		log.Warnf("failed to connect to database (attempt %d/%d): %v", attempt, constants.DBPoolMaxAttempts, err)

		if attempt == constants.DBPoolMaxAttempts {
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(constants.DBPoolRetryDelay):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts", constants.DBPoolMaxAttempts)
}

// NewDirectoryDB opens the database/sql handle used to read the user
// directory and to write the audit log.
func NewDirectoryDB(ctx context.Context, log *logger.Logger, databaseURL string) (*sqlx.DB, error) {
	conn, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory database: %w", err)
	}

	conn.SetMaxOpenConns(constants.DirectoryMaxOpenConns)
	conn.SetMaxIdleConns(constants.DirectoryMaxOpenConns / 2)
	conn.SetConnMaxLifetime(constants.DBPoolConnMaxLifetime)
	conn.SetConnMaxIdleTime(constants.DBPoolConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, constants.DBPoolConnectTimeout)
	defer cancel()

	err = RetryWithBackoff(pingCtx, log, DefaultRetryConfig, func() error {
		return conn.PingContext(pingCtx)
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to reach directory database: %w", err)
	}

	log.Infof("directory database connection initialized: max_open=%d", constants.DirectoryMaxOpenConns)
	return conn, nil
}
