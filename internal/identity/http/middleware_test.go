package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	"github.com/AlibekovAA/tenantdesk-auth/internal/identity/domain"
	"github.com/AlibekovAA/tenantdesk-auth/internal/identity/service"
)

func serve(t *testing.T, mw func(http.Handler) http.Handler, id *domain.Identity) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if id != nil {
		req = req.WithContext(service.WithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	return rec
}

func agent() *domain.Identity {
	return &domain.Identity{
		UserID:      "6f1c3d0e-5b8a-4c7e-9f21-0a7d3e4b5c6d",
		Roles:       []string{"Agent"},
		Permissions: []string{"Ticket:Read"},
	}
}

func TestRequireAuthenticated(t *testing.T) {
	log := logger.NewNop()

	assert.Equal(t, http.StatusUnauthorized, serve(t, RequireAuthenticated(log), nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, RequireAuthenticated(log), &domain.Identity{Roles: []string{"Agent"}}).Code)
	assert.Equal(t, http.StatusNoContent, serve(t, RequireAuthenticated(log), agent()).Code)
}

func TestRequirePermission(t *testing.T) {
	log := logger.NewNop()

	assert.Equal(t, http.StatusUnauthorized, serve(t, RequirePermission("ticket:read", log), nil).Code)
	assert.Equal(t, http.StatusNoContent, serve(t, RequirePermission("ticket:read", log), agent()).Code)

	rec := serve(t, RequirePermission("ticket:delete", log), agent())
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "FORBIDDEN", body["code"])
}

func TestRequireRole(t *testing.T) {
	log := logger.NewNop()

	assert.Equal(t, http.StatusNoContent, serve(t, RequireRole("agent", log), agent()).Code)
	assert.Equal(t, http.StatusForbidden, serve(t, RequireRole("Admin", log), agent()).Code)
}

func TestMeHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(service.WithIdentity(context.Background(), domain.Identity{
		UserID:      "6f1c3d0e-5b8a-4c7e-9f21-0a7d3e4b5c6d",
		DisplayName: "Alice Doe",
		Email:       "alice@example.com",
		Roles:       []string{"Agent"},
	}))
	rec := httptest.NewRecorder()

	NewMeHandler(logger.NewNop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body meResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Alice Doe", body.Name)
	assert.Equal(t, []string{"Agent"}, body.Roles)
	assert.Equal(t, []string{}, body.Permissions)
}
