package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	auditdomain "github.com/AlibekovAA/tenantdesk-auth/internal/audit/domain"
	auditrepo "github.com/AlibekovAA/tenantdesk-auth/internal/audit/repository"
	authdomain "github.com/AlibekovAA/tenantdesk-auth/internal/auth/domain"
	authrepo "github.com/AlibekovAA/tenantdesk-auth/internal/auth/repository"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/clock"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/tenantdesk-auth/internal/common/crypto"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	"github.com/AlibekovAA/tenantdesk-auth/internal/observability/metrics"
	userdomain "github.com/AlibekovAA/tenantdesk-auth/internal/user/domain"
	userrepo "github.com/AlibekovAA/tenantdesk-auth/internal/user/repository"
)

const TokenTypeBearer = "Bearer"

type LoginInput struct {
	Email      string
	Password   string
	ClientIP   string
	DeviceInfo string
}

// SessionMeta describes the client a refresh token is issued to.
type SessionMeta struct {
	ClientIP   string
	DeviceInfo string
}

type IssuedSession struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	TokenType             string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	UserID                string
	DisplayName           string
	Email                 string
	Roles                 []string
}

type SessionIssuer struct {
	directory       userrepo.Repository
	claims          *ClaimsAggregator
	tokens          *TokenIssuer
	store           authrepo.RefreshTokenRepository
	audit           auditrepo.Recorder
	idGenerator     commoncrypto.IDGenerator
	validator       CredentialValidator
	clock           clock.Clock
	refreshTokenTTL time.Duration
	log             *logger.Logger
}

func NewSessionIssuer(
	directory userrepo.Repository,
	claims *ClaimsAggregator,
	tokens *TokenIssuer,
	store authrepo.RefreshTokenRepository,
	audit auditrepo.Recorder,
	idGenerator commoncrypto.IDGenerator,
	refreshTokenTTL time.Duration,
	clock clock.Clock,
	log *logger.Logger,
) *SessionIssuer {
	return &SessionIssuer{
		directory:       directory,
		claims:          claims,
		tokens:          tokens,
		store:           store,
		audit:           audit,
		idGenerator:     idGenerator,
		validator:       NewCredentialValidator(),
		clock:           clock,
		refreshTokenTTL: refreshTokenTTL,
		log:             log,
	}
}

// Login authenticates email and password against the directory and issues a
// session. Every call writes exactly one audit entry.
func (s *SessionIssuer) Login(ctx context.Context, input LoginInput) (IssuedSession, error) {
	email := strings.TrimSpace(input.Email)

	if err := s.validator.Validate(input.Email, input.Password); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"client_ip": input.ClientIP,
			"action":    "login_validation_failed",
		}).Warnf("login rejected: %v", err)
		s.recordLogin(ctx, auditdomain.OutcomeLoginError, nil, email, input.ClientIP)
		return IssuedSession{}, err
	}

	user, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			// Pay the same hashing cost as a known account.
			_, _ = s.directory.CheckPassword(ctx, userdomain.User{}, input.Password)
			s.log.WithFields(ctx, logger.Fields{
				"email":  email,
				"action": "login_unknown_user",
			}).Warn("login failed: invalid credentials")
			s.recordLogin(ctx, auditdomain.OutcomeInvalidCredential, nil, email, input.ClientIP)
			return IssuedSession{}, ErrInvalidCredentials
		}
		s.log.WithFields(ctx, logger.Fields{
			"email":  email,
			"action": "login_directory_failed",
		}).Errorf("login failed: directory lookup error: %v", err)
		s.recordLogin(ctx, auditdomain.OutcomeLoginError, nil, email, input.ClientIP)
		return IssuedSession{}, fmt.Errorf("find user: %w", err)
	}

	userID := string(user.ID)

	if !user.IsActive {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "login_account_inactive",
		}).Warn("login denied: account not active")
		s.recordLogin(ctx, auditdomain.OutcomeAccountInactive, &userID, email, input.ClientIP)
		return IssuedSession{}, ErrAccountDeactivated
	}

	ok, err := s.directory.CheckPassword(ctx, user, input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "login_password_check_failed",
		}).Errorf("login failed: password check error: %v", err)
		s.recordLogin(ctx, auditdomain.OutcomeLoginError, &userID, email, input.ClientIP)
		return IssuedSession{}, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "login_invalid_password",
		}).Warn("login failed: invalid credentials")
		s.recordLogin(ctx, auditdomain.OutcomeInvalidCredential, &userID, email, input.ClientIP)
		return IssuedSession{}, ErrInvalidCredentials
	}

	session, err := s.Issue(ctx, user, SessionMeta{ClientIP: input.ClientIP, DeviceInfo: input.DeviceInfo})
	if err != nil {
		s.recordLogin(ctx, auditdomain.OutcomeLoginError, &userID, email, input.ClientIP)
		return IssuedSession{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": userID,
		"action":  "login_success",
	}).Info("login successful")
	s.recordLogin(ctx, auditdomain.OutcomeLoginSuccess, &userID, email, input.ClientIP)

	return session, nil
}

// Issue mints an access token and a fresh refresh token for an already
// authenticated user. The refresh record is stored before the session is returned.
func (s *SessionIssuer) Issue(ctx context.Context, user userdomain.User, meta SessionMeta) (IssuedSession, error) {
	claims, err := s.claims.Resolve(ctx, user)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "issue_claims_failed",
		}).Errorf("issue failed: %v", err)
		return IssuedSession{}, err
	}

	accessToken, accessExpiresAt, err := s.tokens.Issue(user, claims.Roles, claims.Permissions)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "issue_access_token_failed",
		}).Errorf("issue failed: %v", err)
		return IssuedSession{}, err
	}

	refresh, err := s.issueRefreshToken(ctx, user, meta)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "issue_refresh_token_failed",
		}).Errorf("issue failed: %v", err)
		return IssuedSession{}, err
	}

	return IssuedSession{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessExpiresAt,
		TokenType:             TokenTypeBearer,
		RefreshToken:          refresh.RawToken,
		RefreshTokenExpiresAt: refresh.ExpiresAt,
		UserID:                string(user.ID),
		DisplayName:           user.DisplayName(),
		Email:                 user.Email,
		Roles:                 claims.Roles,
	}, nil
}

func (s *SessionIssuer) issueRefreshToken(ctx context.Context, user userdomain.User, meta SessionMeta) (authdomain.RefreshToken, error) {
	raw, err := commoncrypto.NewOpaqueToken(constants.RefreshTokenSize)
	if err != nil {
		return authdomain.RefreshToken{}, fmt.Errorf("generate refresh token: %w", err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return authdomain.RefreshToken{}, fmt.Errorf("generate refresh token id: %w", err)
	}

	now := s.clock.Now()
	record := authdomain.RefreshToken{
		ID:         id,
		UserID:     string(user.ID),
		TokenHash:  commoncrypto.HashToken(raw),
		DeviceInfo: truncateRunes(meta.DeviceInfo, constants.DeviceInfoMaxLength),
		IPAddress:  truncateRunes(meta.ClientIP, constants.IPAddressMaxLength),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.refreshTokenTTL),
	}

	if err := s.store.Add(ctx, record); err != nil {
		return authdomain.RefreshToken{}, handleCircuitBreakerError(fmt.Errorf("store refresh token: %w", err))
	}

	incrementRefreshTokensIssued()

	record.RawToken = raw
	return record, nil
}

func (s *SessionIssuer) recordLogin(ctx context.Context, outcome string, userID *string, email, clientIP string) {
	incrementLoginAttempts(outcome)

	entry := auditdomain.Entry{
		OccurredAt:  s.clock.Now(),
		Action:      auditdomain.ActionLogin,
		Outcome:     outcome,
		ActorUserID: userID,
		Email:       truncateRunes(email, constants.EmailMaxLength),
		ClientIP:    truncateRunes(clientIP, constants.IPAddressMaxLength),
	}
	if traceID, ok := ctx.Value(constants.TraceIDKey).(string); ok {
		entry.TraceID = traceID
	}

	// The entry must survive a cancelled or timed out request.
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.AuditWriteTimeout)
	defer cancel()

	if err := s.audit.Record(auditCtx, entry); err != nil {
		metrics.AuditWriteFailures.Inc()
		s.log.WithFields(ctx, logger.Fields{
			"outcome": outcome,
			"action":  "audit_write_failed",
		}).Errorf("failed to write audit entry: %v", err)
	}
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
