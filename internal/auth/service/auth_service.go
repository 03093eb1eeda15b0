package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	auditrepo "github.com/AlibekovAA/tenantdesk-auth/internal/audit/repository"
	authrepo "github.com/AlibekovAA/tenantdesk-auth/internal/auth/repository"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/tenantdesk-auth/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/tenantdesk-auth/internal/common/errors"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/jwtverify"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	userrepo "github.com/AlibekovAA/tenantdesk-auth/internal/user/repository"
)

type Config struct {
	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// AuthService is the entry point used by the HTTP layer.
type AuthService struct {
	tokens   *TokenIssuer
	sessions *SessionIssuer
	rotator  *RefreshRotator
	store    authrepo.RefreshTokenRepository
	log      *logger.Logger
}

func NewAuthService(
	cfg Config,
	keys jwtverify.KeySource,
	directory userrepo.Repository,
	store authrepo.RefreshTokenRepository,
	audit auditrepo.Recorder,
	idGenerator commoncrypto.IDGenerator,
	clock clock.Clock,
	log *logger.Logger,
) *AuthService {
	tokens := NewTokenIssuer(keys, idGenerator, clock, cfg.Issuer, cfg.Audience, cfg.AccessTokenTTL)
	claims := NewClaimsAggregator(directory, log)
	sessions := NewSessionIssuer(directory, claims, tokens, store, audit, idGenerator, cfg.RefreshTokenTTL, clock, log)

	return &AuthService{
		tokens:   tokens,
		sessions: sessions,
		rotator:  NewRefreshRotator(store, directory, sessions, clock, log),
		store:    store,
		log:      log,
	}
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (IssuedSession, error) {
	return s.sessions.Login(ctx, input)
}

func (s *AuthService) Refresh(ctx context.Context, rawToken string, meta SessionMeta) (IssuedSession, error) {
	return s.rotator.Refresh(ctx, rawToken, meta)
}

// Logout deletes every refresh token of the user. Access tokens already handed
// out stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return commonerrors.ErrEmptyUUID
	}

	n, err := s.store.DeleteAllForUser(ctx, userID)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "logout_failed",
		}).Errorf("logout failed: %v", err)
		return handleCircuitBreakerError(fmt.Errorf("delete refresh tokens: %w", err))
	}

	incrementRefreshTokensRevoked(n)
	s.log.WithFields(ctx, logger.Fields{
		"user_id": userID,
		"revoked": n,
		"action":  "logout_success",
	}).Info("refresh tokens revoked")

	return nil
}

// ParseAccessToken validates an access token issued by this service.
func (s *AuthService) ParseAccessToken(token string) (jwtverify.AccessClaims, error) {
	return s.tokens.Parse(token)
}

func (s *AuthService) TokenParser() jwtverify.TokenParser {
	return s.tokens
}
