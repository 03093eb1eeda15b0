package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/crypto"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	"github.com/AlibekovAA/tenantdesk-auth/internal/user/domain"
)

const aliceID = "6f1c3d0e-5b8a-4c7e-9f21-0a7d3e4b5c6d"

func setupRepository(t *testing.T) (*SqlxRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	repo := NewSqlxRepository(sqlx.NewDb(conn, "postgres"), &crypto.BcryptHasher{Cost: 4}, logger.NewNop())
	return repo, mock
}

func userRow(hash string, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "password_hash", "is_active", "created_at"}).
		AddRow(aliceID, "alice@example.com", "Alice", "Doe", hash, active, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestFindByEmail(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("alice@example.com").
		WillReturnRows(userRow("hash", true))

	user, err := repo.FindByEmail(context.Background(), "  alice@example.com ")
	require.NoError(t, err)

	assert.Equal(t, domain.ID(aliceID), user.ID)
	assert.Equal(t, "Alice Doe", user.DisplayName())
	assert.True(t, user.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM users`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_DatabaseError(t *testing.T) {
	repo, mock := setupRepository(t)
	dbErr := errors.New("connection refused")

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(aliceID).
		WillReturnError(dbErr)

	_, err := repo.FindByID(context.Background(), aliceID)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestCheckPassword(t *testing.T) {
	repo, _ := setupRepository(t)
	hasher := &crypto.BcryptHasher{Cost: 4}
	hash, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)
	user := domain.User{ID: aliceID, PasswordHash: hash}
	ctx := context.Background()

	ok, err := repo.CheckPassword(ctx, user, "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CheckPassword(ctx, user, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.CheckPassword(ctx, domain.User{ID: aliceID}, "s3cret-pass")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.CheckPassword(ctx, domain.User{ID: aliceID, PasswordHash: "garbage"}, "s3cret-pass")
	assert.Error(t, err)
	assert.False(t, ok)
}

type countingHasher struct {
	crypto.BcryptHasher
	hashes   int
	compares int
}

func (h *countingHasher) Hash(password string) (string, error) {
	h.hashes++
	return h.BcryptHasher.Hash(password)
}

func (h *countingHasher) Compare(hash, password string) error {
	h.compares++
	return h.BcryptHasher.Compare(hash, password)
}

func TestCheckPassword_MissingHashStillCompares(t *testing.T) {
	conn, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	hasher := &countingHasher{BcryptHasher: crypto.BcryptHasher{Cost: 4}}
	repo := NewSqlxRepository(sqlx.NewDb(conn, "postgres"), hasher, logger.NewNop())

	for i := 0; i < 3; i++ {
		ok, err := repo.CheckPassword(context.Background(), domain.User{}, "s3cret-pass")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 3, hasher.compares)
	assert.Equal(t, 1, hasher.hashes)

	ok, err := repo.CheckPassword(context.Background(), domain.User{}, dummyPassword)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRolesForUser(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectQuery(`SELECT r.id, r.name\s+FROM roles r`).
		WithArgs(aliceID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("role-agent", "Agent").
			AddRow("role-super", "Supervisor"))

	roles, err := repo.RolesForUser(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{{ID: "role-agent", Name: "Agent"}, {ID: "role-super", Name: "Supervisor"}}, roles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionClaimsForRole(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectQuery(`SELECT claim_value FROM role_claims WHERE role_id = \$1 AND claim_type = \$2`).
		WithArgs("role-agent", PermissionClaimType).
		WillReturnRows(sqlmock.NewRows([]string{"claim_value"}).
			AddRow("ticket:read").
			AddRow("ticket:comment"))

	claims, err := repo.PermissionClaimsForRole(context.Background(), "role-agent")
	require.NoError(t, err)
	assert.Equal(t, []string{"ticket:read", "ticket:comment"}, claims)
}

func TestPermissionClaimsForRoles(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectQuery(`SELECT role_id, claim_value FROM role_claims\s+WHERE role_id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg(), PermissionClaimType).
		WillReturnRows(sqlmock.NewRows([]string{"role_id", "claim_value"}).
			AddRow("role-agent", "ticket:read").
			AddRow("role-super", "ticket:assign").
			AddRow("role-super", "ticket:read"))

	claims, err := repo.PermissionClaimsForRoles(context.Background(), []string{"role-agent", "role-super"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"role-agent": {"ticket:read"},
		"role-super": {"ticket:assign", "ticket:read"},
	}, claims)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionClaimsForRoles_NoRoles(t *testing.T) {
	repo, mock := setupRepository(t)

	claims, err := repo.PermissionClaimsForRoles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, claims)
	assert.NoError(t, mock.ExpectationsWereMet())
}
