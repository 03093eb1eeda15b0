package jwtverify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
)

type claimsKey struct{}

type recordingPopulator struct {
	calls int
}

func (p *recordingPopulator) Populate(ctx context.Context, claims AccessClaims) context.Context {
	p.calls++
	return context.WithValue(ctx, claimsKey{}, claims)
}

func TestMiddleware(t *testing.T) {
	valid := signClaims(t, jwt.SigningMethodHS256, []byte(testKey), validClaims())

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCalls  int
	}{
		{"missing header", "", http.StatusUnauthorized, 0},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, 0},
		{"tampered token", "Bearer " + valid + "x", http.StatusUnauthorized, 0},
		{"valid token", "Bearer " + valid, http.StatusOK, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			populator := &recordingPopulator{}
			var seen AccessClaims
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = r.Context().Value(claimsKey{}).(AccessClaims)
				w.WriteHeader(http.StatusOK)
			})

			handler := Middleware(newTestVerifier(testKey), populator, logger.NewNop())(next)

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalls, populator.calls)
			if tt.wantCalls == 1 {
				assert.Equal(t, "alice@example.com", seen.Email)
			}
		})
	}
}
