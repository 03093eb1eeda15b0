package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"

	authdomain "github.com/AlibekovAA/tenantdesk-auth/internal/auth/domain"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/constants"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/db"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/resilience"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// RefreshTokenRepository stores refresh-token records by hash. There is no update:
// rotation deletes the old row and inserts a new one.
type RefreshTokenRepository interface {
	Add(ctx context.Context, token authdomain.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (authdomain.RefreshToken, error)
	// DeleteByHash is idempotent and reports whether this call removed the row.
	DeleteByHash(ctx context.Context, hash string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Querier is the subset of *pgxpool.Pool the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type PgRefreshTokenRepository struct {
	pool Querier
	cb   *resilience.CircuitBreaker
}

func NewPgRefreshTokenRepository(pool Querier, cb *resilience.CircuitBreaker) *PgRefreshTokenRepository {
	return &PgRefreshTokenRepository{
		pool: pool,
		cb:   cb,
	}
}

func IsExpectedError(err error) bool {
	return errors.Is(err, ErrRefreshTokenNotFound)
}

func (r *PgRefreshTokenRepository) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	if r.cb == nil {
		return fn(ctx)
	}
	return r.cb.Call(ctx, fn)
}

func (r *PgRefreshTokenRepository) Add(ctx context.Context, token authdomain.RefreshToken) error {
	return r.call(ctx, func(ctx context.Context) error {
		start := time.Now()
		_, err := r.pool.Exec(
			ctx,
			`INSERT INTO refresh_tokens (id, user_id, token_hash, device_info, ip_address, created_at, expires_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			token.ID,
			token.UserID,
			token.TokenHash,
			nullable(token.DeviceInfo),
			nullable(token.IPAddress),
			token.CreatedAt,
			token.ExpiresAt,
		)
		return db.HandleExecError(err, "create refresh token", start)
	})
}

func (r *PgRefreshTokenRepository) GetByHash(ctx context.Context, hash string) (authdomain.RefreshToken, error) {
	var token authdomain.RefreshToken
	err := r.call(ctx, func(ctx context.Context) error {
		start := time.Now()
		row := r.pool.QueryRow(
			ctx,
			`SELECT id, user_id, token_hash, device_info, ip_address, created_at, expires_at
			 FROM refresh_tokens
			 WHERE token_hash = $1`,
			hash,
		)

		var device, ip *string
		err := row.Scan(&token.ID, &token.UserID, &token.TokenHash, &device, &ip, &token.CreatedAt, &token.ExpiresAt)
		if err := db.HandleQueryError(err, ErrRefreshTokenNotFound, "get refresh token", start); err != nil {
			return err
		}
		token.DeviceInfo = deref(device)
		token.IPAddress = deref(ip)
		return nil
	})
	if err != nil {
		return authdomain.RefreshToken{}, err
	}
	return token, nil
}

func (r *PgRefreshTokenRepository) DeleteByHash(ctx context.Context, hash string) (bool, error) {
	var deleted bool
	err := r.call(ctx, func(ctx context.Context) error {
		start := time.Now()
		tag, err := r.pool.Exec(
			ctx,
			`DELETE FROM refresh_tokens WHERE token_hash = $1`,
			hash,
		)
		if err := db.HandleExecError(err, "delete refresh token", start); err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	return deleted, err
}

func (r *PgRefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.call(ctx, func(ctx context.Context) error {
		start := time.Now()
		tag, err := r.pool.Exec(
			ctx,
			`DELETE FROM refresh_tokens WHERE user_id = $1`,
			userID,
		)
		if err := db.HandleExecError(err, "delete refresh tokens for user", start); err != nil {
			return err
		}
		count = tag.RowsAffected()
		return nil
	})
	return count, err
}

func (r *PgRefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.call(ctx, func(ctx context.Context) error {
		start := time.Now()
		tag, err := r.pool.Exec(
			ctx,
			`DELETE FROM refresh_tokens WHERE expires_at <= $1`,
			now,
		)
		if err := db.HandleExecError(err, "delete expired refresh tokens", start); err != nil {
			return err
		}
		count = tag.RowsAffected()
		return nil
	})
	return count, err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
