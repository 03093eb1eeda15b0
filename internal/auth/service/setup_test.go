package service

import (
	"testing"
	"time"

	auditfake "github.com/AlibekovAA/tenantdesk-auth/internal/audit/repository/repofake"
	authfake "github.com/AlibekovAA/tenantdesk-auth/internal/auth/repository/repofake"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/tenantdesk-auth/internal/common/crypto"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	userdomain "github.com/AlibekovAA/tenantdesk-auth/internal/user/domain"
	userfake "github.com/AlibekovAA/tenantdesk-auth/internal/user/repository/repofake"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef-test"
	testIssuer   = "tenantdesk"
	testAudience = "tenantdesk-api"

	aliceID = "7f1c2a52-6a55-4c1b-9d7e-3c0f6f8b1a01"
	bobID   = "1d2e3f40-5a6b-4c7d-8e9f-a0b1c2d3e4f5"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *AuthService
	store     *authfake.Store
	directory *userfake.Directory
	audit     *auditfake.Recorder
	clock     *clock.MockClock
	keys      *SigningKeyProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.NewNop()
	f := &fixture{
		store:     authfake.NewStore(),
		directory: userfake.NewDirectory(),
		audit:     auditfake.NewRecorder(),
		clock:     clock.NewMockClock(testNow),
		keys:      NewSigningKeyProvider(testSecret, false, log),
	}

	f.directory.AddUser(userdomain.User{
		ID:        aliceID,
		Email:     "alice@x.io",
		FirstName: "Alice",
		LastName:  "Doe",
		IsActive:  true,
	}, "pw1", userdomain.Role{ID: "r-admin", Name: "Admin"}, userdomain.Role{ID: "r-user", Name: "User"})
	f.directory.SetRoleClaims("r-admin", "users.read", "users.write")
	f.directory.SetRoleClaims("r-user", "users.read", "profile.edit")

	f.directory.AddUser(userdomain.User{
		ID:       bobID,
		Email:    "bob@x.io",
		IsActive: false,
	}, "pw2")

	f.svc = NewAuthService(
		Config{
			Issuer:          testIssuer,
			Audience:        testAudience,
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		f.keys,
		f.directory,
		f.store,
		f.audit,
		commoncrypto.NewUUIDGenerator(),
		f.clock,
		log,
	)
	return f
}
