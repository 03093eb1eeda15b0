package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/jwtverify"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
)

func claimsFor(subject string) jwtverify.AccessClaims {
	return jwtverify.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject, ID: "jti"},
		Roles:            []string{"Agent", "Supervisor"},
		Permissions:      []string{"ticket:read", "ticket:assign"},
		Name:             "Alice Doe",
		Email:            "alice@example.com",
	}
}

func TestPopulator_ValidSubject(t *testing.T) {
	p := NewPopulator(logger.NewNop())

	ctx := p.Populate(context.Background(), claimsFor("6F1C3D0E-5B8A-4C7E-9F21-0A7D3E4B5C6D"))
	id := FromContext(ctx)

	assert.True(t, id.IsAuthenticated())
	assert.Equal(t, "6f1c3d0e-5b8a-4c7e-9f21-0a7d3e4b5c6d", id.UserID)
	assert.Equal(t, []string{"Agent", "Supervisor"}, id.Roles)
	assert.Equal(t, []string{"ticket:read", "ticket:assign"}, id.Permissions)
	assert.Equal(t, "Alice Doe", id.DisplayName)
	assert.Equal(t, "alice@example.com", id.Email)
}

func TestPopulator_UnparsableSubjectLeavesIdentityEmpty(t *testing.T) {
	p := NewPopulator(logger.NewNop())

	ctx := p.Populate(context.Background(), claimsFor("not-a-uuid"))
	id := FromContext(ctx)

	assert.False(t, id.IsAuthenticated())
	assert.Empty(t, id.Roles)
	assert.Empty(t, id.Permissions)
	assert.False(t, id.HasPermission("ticket:read"))
}

func TestPopulator_DoesNotAliasClaims(t *testing.T) {
	p := NewPopulator(logger.NewNop())
	claims := claimsFor("6f1c3d0e-5b8a-4c7e-9f21-0a7d3e4b5c6d")

	id := FromContext(p.Populate(context.Background(), claims))
	claims.Roles[0] = "Admin"

	assert.Equal(t, "Agent", id.Roles[0])
}

func TestFromContext_EmptyContext(t *testing.T) {
	assert.False(t, FromContext(context.Background()).IsAuthenticated())
}

func TestIdentityIsRequestScoped(t *testing.T) {
	p := NewPopulator(logger.NewNop())
	base := context.Background()

	first := p.Populate(base, claimsFor("6f1c3d0e-5b8a-4c7e-9f21-0a7d3e4b5c6d"))
	second := p.Populate(base, claimsFor("bogus"))

	assert.True(t, FromContext(first).IsAuthenticated())
	assert.False(t, FromContext(second).IsAuthenticated())
	assert.False(t, FromContext(base).IsAuthenticated())
}
