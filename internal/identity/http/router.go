package http

import (
	"net/http"

	commonhttp "github.com/AlibekovAA/tenantdesk-auth/internal/common/http"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	"github.com/AlibekovAA/tenantdesk-auth/internal/identity/service"
)

type meResponse struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// NewMeHandler echoes the caller identity. It must sit behind the token
// middleware and RequireAuthenticated.
func NewMeHandler(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := service.FromContext(r.Context())

		log.WithFields(r.Context(), logger.Fields{
			"user_id": id.UserID,
			"action":  "identity_me",
		}).Debug("identity requested")

		commonhttp.WriteJSON(w, http.StatusOK, meResponse{
			UserID:      id.UserID,
			Name:        id.DisplayName,
			Email:       id.Email,
			Roles:       nonNil(id.Roles),
			Permissions: nonNil(id.Permissions),
		})
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
