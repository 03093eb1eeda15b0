// Package repofake is an in-memory refresh-token store for tests.
package repofake

import (
	"context"
	"sync"
	"time"

	authdomain "github.com/AlibekovAA/tenantdesk-auth/internal/auth/domain"
	"github.com/AlibekovAA/tenantdesk-auth/internal/auth/repository"
)

type Store struct {
	mu     sync.Mutex
	tokens map[string]authdomain.RefreshToken

	// AddErr, GetErr and DeleteErr inject storage failures.
	AddErr    error
	GetErr    error
	DeleteErr error
}

func NewStore() *Store {
	return &Store{tokens: make(map[string]authdomain.RefreshToken)}
}

func (s *Store) Add(ctx context.Context, token authdomain.RefreshToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AddErr != nil {
		return s.AddErr
	}
	token.RawToken = ""
	s.tokens[token.TokenHash] = token
	return nil
}

func (s *Store) GetByHash(_ context.Context, hash string) (authdomain.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return authdomain.RefreshToken{}, s.GetErr
	}
	token, ok := s.tokens[hash]
	if !ok {
		return authdomain.RefreshToken{}, repository.ErrRefreshTokenNotFound
	}
	return token, nil
}

func (s *Store) DeleteByHash(_ context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return false, s.DeleteErr
	}
	_, ok := s.tokens[hash]
	delete(s.tokens, hash)
	return ok, nil
}

func (s *Store) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return 0, s.DeleteErr
	}
	var n int64
	for hash, token := range s.tokens {
		if token.UserID == userID {
			delete(s.tokens, hash)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for hash, token := range s.tokens {
		if token.IsExpired(now) {
			delete(s.tokens, hash)
			n++
		}
	}
	return n, nil
}

// Put stores a record directly, bypassing issuance.
func (s *Store) Put(token authdomain.RefreshToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.TokenHash] = token
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func (s *Store) Has(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[hash]
	return ok
}

func (s *Store) All() []authdomain.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]authdomain.RefreshToken, 0, len(s.tokens))
	for _, t := range s.tokens {
		out = append(out, t)
	}
	return out
}

var _ repository.RefreshTokenRepository = (*Store)(nil)
