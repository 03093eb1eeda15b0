package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	authrepo "github.com/AlibekovAA/tenantdesk-auth/internal/auth/repository"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/tenantdesk-auth/internal/common/crypto"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	userdomain "github.com/AlibekovAA/tenantdesk-auth/internal/user/domain"
	userrepo "github.com/AlibekovAA/tenantdesk-auth/internal/user/repository"
)

// RefreshRotator exchanges a refresh token for a new session. A token is usable
// once: its record is deleted before the replacement is issued.
type RefreshRotator struct {
	store     authrepo.RefreshTokenRepository
	directory userrepo.Repository
	sessions  *SessionIssuer
	clock     clock.Clock
	log       *logger.Logger
}

func NewRefreshRotator(
	store authrepo.RefreshTokenRepository,
	directory userrepo.Repository,
	sessions *SessionIssuer,
	clock clock.Clock,
	log *logger.Logger,
) *RefreshRotator {
	return &RefreshRotator{
		store:     store,
		directory: directory,
		sessions:  sessions,
		clock:     clock,
		log:       log,
	}
}

func (r *RefreshRotator) Refresh(ctx context.Context, raw string, meta SessionMeta) (IssuedSession, error) {
	if strings.TrimSpace(raw) == "" {
		incrementRefreshTokensRejected(rejectBlank)
		return IssuedSession{}, ErrInvalidRefreshToken
	}

	hash := commoncrypto.HashToken(raw)

	stored, err := r.store.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, authrepo.ErrRefreshTokenNotFound) {
			r.log.WithFields(ctx, logger.Fields{
				"client_ip": meta.ClientIP,
				"action":    "refresh_unknown_token",
			}).Warn("refresh rejected: unknown token")
			incrementRefreshTokensRejected(rejectUnknown)
			return IssuedSession{}, ErrInvalidRefreshToken
		}
		r.log.WithFields(ctx, logger.Fields{
			"action": "refresh_lookup_failed",
		}).Errorf("refresh failed: lookup error: %v", err)
		return IssuedSession{}, handleCircuitBreakerError(fmt.Errorf("get refresh token: %w", err))
	}

	if stored.IsExpired(r.clock.Now()) {
		if err := r.discard(ctx, hash); err != nil {
			return IssuedSession{}, err
		}
		r.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "refresh_token_expired",
		}).Warn("refresh rejected: token expired")
		incrementRefreshTokensRejected(rejectExpired)
		return IssuedSession{}, ErrInvalidRefreshToken
	}

	user, err := r.directory.FindByID(ctx, userdomain.ID(stored.UserID))
	if err != nil {
		if !errors.Is(err, userrepo.ErrUserNotFound) {
			r.log.WithFields(ctx, logger.Fields{
				"user_id": stored.UserID,
				"action":  "refresh_owner_lookup_failed",
			}).Errorf("refresh failed: directory lookup error: %v", err)
			return IssuedSession{}, fmt.Errorf("find token owner: %w", err)
		}
		if err := r.discard(ctx, hash); err != nil {
			return IssuedSession{}, err
		}
		r.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "refresh_owner_missing",
		}).Warn("refresh rejected: token owner no longer exists")
		incrementRefreshTokensRejected(rejectOwnerMissing)
		return IssuedSession{}, ErrInvalidRefreshToken
	}

	if !user.IsActive {
		if err := r.discard(ctx, hash); err != nil {
			return IssuedSession{}, err
		}
		r.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "refresh_owner_inactive",
		}).Warn("refresh rejected: account not active")
		incrementRefreshTokensRejected(rejectOwnerInactive)
		return IssuedSession{}, ErrInvalidRefreshToken
	}

	deleted, err := r.store.DeleteByHash(ctx, hash)
	if err != nil {
		r.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "refresh_delete_failed",
		}).Errorf("refresh failed: delete error: %v", err)
		return IssuedSession{}, handleCircuitBreakerError(fmt.Errorf("delete refresh token: %w", err))
	}
	if !deleted {
		r.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "refresh_already_used",
		}).Warn("refresh rejected: token consumed concurrently")
		incrementRefreshTokensRejected(rejectRaceLost)
		return IssuedSession{}, ErrInvalidRefreshToken
	}

	session, err := r.sessions.Issue(ctx, user, meta)
	if err != nil {
		return IssuedSession{}, err
	}

	incrementRefreshTokensRotated()
	r.log.WithFields(ctx, logger.Fields{
		"user_id": stored.UserID,
		"action":  "refresh_success",
	}).Info("refresh token rotated")

	return session, nil
}

func (r *RefreshRotator) discard(ctx context.Context, hash string) error {
	if _, err := r.store.DeleteByHash(ctx, hash); err != nil {
		r.log.WithFields(ctx, logger.Fields{
			"action": "refresh_discard_failed",
		}).Errorf("failed to delete unusable refresh token: %v", err)
		return handleCircuitBreakerError(fmt.Errorf("delete refresh token: %w", err))
	}
	return nil
}
