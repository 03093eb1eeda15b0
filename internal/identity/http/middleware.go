package http

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/tenantdesk-auth/internal/common/errors"
	commonhttp "github.com/AlibekovAA/tenantdesk-auth/internal/common/http"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	"github.com/AlibekovAA/tenantdesk-auth/internal/identity/service"
)

var (
	ErrUnauthenticated = commonerrors.NewDomainError(
		"UNAUTHORIZED",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"authentication required",
	)

	ErrForbidden = commonerrors.NewDomainError(
		"FORBIDDEN",
		commonerrors.CategoryForbidden,
		http.StatusForbidden,
		"insufficient permissions",
	)
)

// RequireAuthenticated rejects requests whose context carries no identity.
func RequireAuthenticated(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !service.FromContext(r.Context()).IsAuthenticated() {
				commonhttp.HandleError(w, r, ErrUnauthenticated, log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequirePermission(permission string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := service.FromContext(r.Context())
			if !id.IsAuthenticated() {
				commonhttp.HandleError(w, r, ErrUnauthenticated, log)
				return
			}
			if !id.HasPermission(permission) {
				log.WithFields(r.Context(), logger.Fields{
					"user_id":    id.UserID,
					"permission": permission,
					"action":     "permission_denied",
				}).Warn("permission check failed")
				commonhttp.HandleError(w, r, ErrForbidden, log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireRole(role string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := service.FromContext(r.Context())
			if !id.IsAuthenticated() {
				commonhttp.HandleError(w, r, ErrUnauthenticated, log)
				return
			}
			if !id.HasRole(role) {
				commonhttp.HandleError(w, r, ErrForbidden, log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
