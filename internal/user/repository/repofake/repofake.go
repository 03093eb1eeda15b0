// Package repofake is an in-memory user directory for tests.
package repofake

import (
	"context"
	"strings"
	"sync"

	"github.com/AlibekovAA/tenantdesk-auth/internal/user/domain"
	"github.com/AlibekovAA/tenantdesk-auth/internal/user/repository"
)

type Directory struct {
	mu        sync.RWMutex
	users     map[domain.ID]domain.User
	passwords map[domain.ID]string
	roles     map[domain.ID][]domain.Role
	claims    map[string][]string

	// Err, when set, is returned by every lookup.
	Err error
	// PasswordChecks counts CheckPassword calls, including those for unknown users.
	PasswordChecks int
}

func NewDirectory() *Directory {
	return &Directory{
		users:     make(map[domain.ID]domain.User),
		passwords: make(map[domain.ID]string),
		roles:     make(map[domain.ID][]domain.Role),
		claims:    make(map[string][]string),
	}
}

func (d *Directory) AddUser(user domain.User, password string, roles ...domain.Role) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
	d.passwords[user.ID] = password
	d.roles[user.ID] = roles
}

func (d *Directory) SetRoleClaims(roleID string, claims ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.claims[roleID] = claims
}

func (d *Directory) SetActive(id domain.ID, active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := d.users[id]
	u.IsActive = active
	d.users[id] = u
}

func (d *Directory) RemoveUser(id domain.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.users, id)
}

func (d *Directory) FindByEmail(_ context.Context, email string) (domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.Err != nil {
		return domain.User{}, d.Err
	}
	for _, u := range d.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrUserNotFound
}

func (d *Directory) FindByID(_ context.Context, id domain.ID) (domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.Err != nil {
		return domain.User{}, d.Err
	}
	u, ok := d.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (d *Directory) CheckPassword(_ context.Context, user domain.User, password string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.PasswordChecks++
	if d.Err != nil {
		return false, d.Err
	}
	stored, ok := d.passwords[user.ID]
	return ok && stored != "" && stored == password, nil
}

func (d *Directory) RolesForUser(_ context.Context, id domain.ID) ([]domain.Role, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.Err != nil {
		return nil, d.Err
	}
	return append([]domain.Role(nil), d.roles[id]...), nil
}

func (d *Directory) PermissionClaimsForRole(_ context.Context, roleID string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.Err != nil {
		return nil, d.Err
	}
	return append([]string(nil), d.claims[roleID]...), nil
}

var _ repository.Repository = (*Directory)(nil)
