package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/jwtverify"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	"github.com/AlibekovAA/tenantdesk-auth/internal/identity/domain"
	"github.com/AlibekovAA/tenantdesk-auth/internal/observability/metrics"
)

type Populator struct {
	log *logger.Logger
}

func NewPopulator(log *logger.Logger) *Populator {
	return &Populator{log: log}
}

// Populate stores the identity carried by claims on ctx. A subject that is not a
// UUID leaves the identity empty; the request continues and authorization checks
// downstream reject it.
func (p *Populator) Populate(ctx context.Context, claims jwtverify.AccessClaims) context.Context {
	id, ok := p.Resolve(ctx, claims)
	if !ok {
		return WithIdentity(ctx, domain.Identity{})
	}
	return WithIdentity(ctx, id)
}

func (p *Populator) Resolve(ctx context.Context, claims jwtverify.AccessClaims) (domain.Identity, bool) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		metrics.IdentitySubjectRejected.Inc()
		p.log.WithFields(ctx, logger.Fields{
			"jti":    claims.ID,
			"action": "identity_subject_unparsable",
		}).Warnf("identity not populated: subject is not a valid user id: %v", err)
		return domain.Identity{}, false
	}

	return domain.Identity{
		UserID:      userID.String(),
		Roles:       copyStrings(claims.Roles),
		Permissions: copyStrings(claims.Permissions),
		DisplayName: claims.Name,
		Email:       claims.Email,
	}, true
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
