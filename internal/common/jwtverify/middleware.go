package jwtverify

import (
	"context"
	"net/http"
	"strings"

	commonhttp "github.com/AlibekovAA/tenantdesk-auth/internal/common/http"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	"github.com/AlibekovAA/tenantdesk-auth/internal/observability/metrics"
)

type TokenParser interface {
	Parse(tokenString string) (AccessClaims, error)
}

// IdentityPopulator turns validated claims into request-scoped state.
type IdentityPopulator interface {
	Populate(ctx context.Context, claims AccessClaims) context.Context
}

func Middleware(parser TokenParser, populator IdentityPopulator, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			traceID := commonhttp.TraceIDFromContext(ctx)

			tokenString, ok := BearerToken(r)
			if !ok {
				log.WithFields(ctx, logger.Fields{
					"path":   r.URL.Path,
					"action": "jwt_missing_authorization",
				}).Warn("jwt auth failed: missing or invalid authorization header")
				commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingAuthorization, "missing or invalid authorization", nil, traceID)
				return
			}

			metrics.JWTValidationsTotal.Inc()
			claims, err := parser.Parse(tokenString)
			if err != nil {
				metrics.JWTValidationsFailed.Inc()
				log.WithFields(ctx, logger.Fields{
					"path":   r.URL.Path,
					"action": "jwt_invalid_token",
				}).Warnf("jwt auth failed: %v", err)
				commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeInvalidToken, "invalid token", nil, traceID)
				return
			}

			next.ServeHTTP(w, r.WithContext(populator.Populate(ctx, claims)))
		})
	}
}

func BearerToken(r *http.Request) (string, bool) {
	raw := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(raw) <= len(prefix) || !strings.EqualFold(raw[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(raw[len(prefix):])
	return token, token != ""
}
