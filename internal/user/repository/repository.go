package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/crypto"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/db"
	commonerrors "github.com/AlibekovAA/tenantdesk-auth/internal/common/errors"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	"github.com/AlibekovAA/tenantdesk-auth/internal/user/domain"
)

// PermissionClaimType is the role claim type that carries permission names.
const PermissionClaimType = "permission"

var ErrUserNotFound = commonerrors.ErrUserNotFound

// Repository is the read side of the external user directory.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	CheckPassword(ctx context.Context, user domain.User, password string) (bool, error)
	RolesForUser(ctx context.Context, id domain.ID) ([]domain.Role, error)
	PermissionClaimsForRole(ctx context.Context, roleID string) ([]string, error)
}

// BatchPermissionLoader is implemented by directories that can load the claims of
// many roles in one round trip.
type BatchPermissionLoader interface {
	PermissionClaimsForRoles(ctx context.Context, roleIDs []string) (map[string][]string, error)
}

// dummyPassword is hashed once per repository so that checks against an
// account without a usable hash cost the same as a real comparison.
const dummyPassword = "tenantdesk-no-such-account"

type SqlxRepository struct {
	db     *sqlx.DB
	hasher crypto.PasswordHasher
	log    *logger.Logger
	retry  db.RetryConfig

	dummyOnce sync.Once
	dummyHash string
}

func NewSqlxRepository(conn *sqlx.DB, hasher crypto.PasswordHasher, log *logger.Logger) *SqlxRepository {
	return &SqlxRepository{
		db:     conn,
		hasher: hasher,
		log:    log,
		retry:  db.DefaultRetryConfig,
	}
}

const userColumns = `id, email, first_name, last_name, password_hash, is_active, created_at`

func (r *SqlxRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	start := time.Now()
	var user domain.User
	err := db.RetryWithBackoff(ctx, r.log, r.retry, func() error {
		return r.db.GetContext(ctx, &user,
			`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
			strings.TrimSpace(email),
		)
	})
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user by email", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *SqlxRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	start := time.Now()
	var user domain.User
	err := db.RetryWithBackoff(ctx, r.log, r.retry, func() error {
		return r.db.GetContext(ctx, &user,
			`SELECT `+userColumns+` FROM users WHERE id = $1`,
			string(id),
		)
	})
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user by id", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// CheckPassword reports false for a wrong password or an account without one.
// A user without a hash, including the zero User, is compared against a dummy
// hash and always fails. A corrupt stored hash is an error.
func (r *SqlxRepository) CheckPassword(ctx context.Context, user domain.User, password string) (bool, error) {
	if user.PasswordHash == "" {
		if hash := r.dummyPasswordHash(); hash != "" {
			_ = r.hasher.Compare(hash, password)
		}
		return false, nil
	}
	if password == "" {
		return false, nil
	}

	err := r.hasher.Compare(user.PasswordHash, password)
	if err == nil {
		return true, nil
	}
	if crypto.IsMismatch(err) {
		return false, nil
	}

	r.log.WithFields(ctx, logger.Fields{
		"user_id": string(user.ID),
		"action":  "check_password_failed",
	}).Errorf("stored password hash is unusable: %v", err)
	return false, fmt.Errorf("failed to verify password: %w", err)
}

func (r *SqlxRepository) dummyPasswordHash() string {
	r.dummyOnce.Do(func() {
		hash, err := r.hasher.Hash(dummyPassword)
		if err != nil {
			r.log.Errorf("failed to prepare dummy password hash: %v", err)
			return
		}
		r.dummyHash = hash
	})
	return r.dummyHash
}

func (r *SqlxRepository) RolesForUser(ctx context.Context, id domain.ID) ([]domain.Role, error) {
	start := time.Now()
	var roles []domain.Role
	err := db.RetryWithBackoff(ctx, r.log, r.retry, func() error {
		roles = roles[:0]
		return r.db.SelectContext(ctx, &roles,
			`SELECT r.id, r.name
			 FROM roles r
			 JOIN user_roles ur ON ur.role_id = r.id
			 WHERE ur.user_id = $1
			 ORDER BY r.name ASC`,
			string(id),
		)
	})
	if err := db.HandleExecError(err, "list roles for user", start); err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *SqlxRepository) PermissionClaimsForRole(ctx context.Context, roleID string) ([]string, error) {
	start := time.Now()
	var claims []string
	err := db.RetryWithBackoff(ctx, r.log, r.retry, func() error {
		claims = claims[:0]
		return r.db.SelectContext(ctx, &claims,
			`SELECT claim_value FROM role_claims WHERE role_id = $1 AND claim_type = $2 ORDER BY id ASC`,
			roleID, PermissionClaimType,
		)
	})
	if err := db.HandleExecError(err, "list permission claims for role", start); err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *SqlxRepository) PermissionClaimsForRoles(ctx context.Context, roleIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(roleIDs))
	if len(roleIDs) == 0 {
		return result, nil
	}

	type roleClaim struct {
		RoleID string `db:"role_id"`
		Value  string `db:"claim_value"`
	}

	start := time.Now()
	var rows []roleClaim
	err := db.RetryWithBackoff(ctx, r.log, r.retry, func() error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows,
			`SELECT role_id, claim_value FROM role_claims
			 WHERE role_id = ANY($1) AND claim_type = $2
			 ORDER BY role_id ASC, id ASC`,
			pq.Array(roleIDs), PermissionClaimType,
		)
	})
	if err := db.HandleExecError(err, "list permission claims for roles", start); err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.RoleID] = append(result[row.RoleID], row.Value)
	}
	return result, nil
}
