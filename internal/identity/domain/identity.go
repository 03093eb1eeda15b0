package domain

import "strings"

// Identity is the caller resolved from a validated access token. It lives on the
// request context only. An empty UserID means unauthenticated.
type Identity struct {
	UserID      string
	Roles       []string
	Permissions []string
	DisplayName string
	Email       string
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

func (i Identity) HasPermission(permission string) bool {
	return containsFold(i.Permissions, permission)
}

func (i Identity) HasRole(role string) bool {
	return containsFold(i.Roles, role)
}

func containsFold(values []string, want string) bool {
	if want == "" {
		return false
	}
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
