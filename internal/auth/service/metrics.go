package service

import (
	"github.com/AlibekovAA/tenantdesk-auth/internal/observability/metrics"
)

const (
	rejectBlank         = "blank"
	rejectUnknown       = "unknown"
	rejectExpired       = "expired"
	rejectOwnerMissing  = "owner_missing"
	rejectOwnerInactive = "owner_inactive"
	rejectRaceLost      = "race_lost"
)

func incrementAccessTokensIssued() {
	metrics.AccessTokensIssued.Inc()
}

func incrementRefreshTokensIssued() {
	metrics.RefreshTokensIssued.Inc()
}

func incrementRefreshTokensRotated() {
	metrics.RefreshTokensRotated.Inc()
}

func incrementRefreshTokensRejected(reason string) {
	metrics.RefreshTokensRejected.WithLabelValues(reason).Inc()
}

func incrementRefreshTokensRevoked(n int64) {
	metrics.RefreshTokensRevoked.Add(float64(n))
}

func incrementLoginAttempts(outcome string) {
	metrics.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}
