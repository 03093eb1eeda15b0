package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	userdomain "github.com/AlibekovAA/tenantdesk-auth/internal/user/domain"
	userrepo "github.com/AlibekovAA/tenantdesk-auth/internal/user/repository"
)

type Claims struct {
	Roles       []string
	Permissions []string
}

type ClaimsAggregator struct {
	directory userrepo.Repository
	log       *logger.Logger
}

func NewClaimsAggregator(directory userrepo.Repository, log *logger.Logger) *ClaimsAggregator {
	return &ClaimsAggregator{directory: directory, log: log}
}

// Resolve returns the user's role names in directory order and the union of their
// permission claims.
func (a *ClaimsAggregator) Resolve(ctx context.Context, user userdomain.User) (Claims, error) {
	roles, err := a.directory.RolesForUser(ctx, user.ID)
	if err != nil {
		return Claims{}, fmt.Errorf("load roles: %w", err)
	}

	perms, err := a.permissionsForRoles(ctx, roles)
	if err != nil {
		return Claims{}, err
	}

	names := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		key := strings.ToLower(role.Name)
		if role.Name == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, role.Name)
	}

	if a.log.ShouldLog(logger.DEBUG) {
		a.log.WithFields(ctx, logger.Fields{
			"user_id":     string(user.ID),
			"roles":       len(names),
			"permissions": len(perms),
		}).Debug("claims resolved")
	}

	return Claims{Roles: names, Permissions: perms}, nil
}

func (a *ClaimsAggregator) ResolvePermissions(ctx context.Context, user userdomain.User) ([]string, error) {
	roles, err := a.directory.RolesForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	return a.permissionsForRoles(ctx, roles)
}

func (a *ClaimsAggregator) permissionsForRoles(ctx context.Context, roles []userdomain.Role) ([]string, error) {
	if len(roles) == 0 {
		return []string{}, nil
	}

	ids := make([]string, 0, len(roles))
	for _, role := range roles {
		ids = append(ids, role.ID)
	}

	var perRole [][]string
	if batch, ok := a.directory.(userrepo.BatchPermissionLoader); ok {
		byRole, err := batch.PermissionClaimsForRoles(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load permission claims: %w", err)
		}
		for _, id := range ids {
			perRole = append(perRole, byRole[id])
		}
	} else {
		for _, id := range ids {
			claims, err := a.directory.PermissionClaimsForRole(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("load permission claims for role %s: %w", id, err)
			}
			perRole = append(perRole, claims)
		}
	}

	return unionFold(perRole), nil
}

// unionFold merges claim lists case-insensitively. The first spelling seen wins.
func unionFold(lists [][]string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, value := range list {
			if strings.TrimSpace(value) == "" {
				continue
			}
			key := strings.ToLower(value)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, value)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
