package service

import (
	"context"

	"github.com/AlibekovAA/tenantdesk-auth/internal/identity/domain"
)

type contextKey struct{}

func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the request identity, or the zero (unauthenticated) value.
func FromContext(ctx context.Context) domain.Identity {
	if ctx == nil {
		return domain.Identity{}
	}
	id, _ := ctx.Value(contextKey{}).(domain.Identity)
	return id
}
