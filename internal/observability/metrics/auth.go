package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Total number of auth requests",
		},
		[]string{"method", "path"},
	)

	AuthRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_requests_in_flight",
			Help: "Number of auth requests currently being processed",
		},
	)

	AuthRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_request_duration_seconds",
			Help:    "Duration of auth requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	AccessTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "access_tokens_issued_total",
			Help: "Total number of access tokens issued",
		},
	)

	RefreshTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_issued_total",
			Help: "Total number of refresh tokens issued",
		},
	)

	RefreshTokensRotated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_rotated_total",
			Help: "Total number of refresh tokens successfully rotated",
		},
	)

	RefreshTokensRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_tokens_rejected_total",
			Help: "Total number of refresh attempts rejected by reason",
		},
		[]string{"reason"},
	)

	RefreshTokensRevoked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_revoked_total",
			Help: "Total number of refresh tokens revoked by logout",
		},
	)

	RefreshTokensCleanupDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_cleanup_deleted_total",
			Help: "Total number of expired refresh tokens deleted during cleanup",
		},
	)

	SigningKeysGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signing_keys_generated_total",
			Help: "Total number of ephemeral signing keys generated",
		},
	)

	AuditWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Total number of audit entries that could not be recorded",
		},
	)

	JWTValidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jwt_validations_total",
			Help: "Total number of JWT validations",
		},
	)

	JWTValidationsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jwt_validations_failed_total",
			Help: "Total number of failed JWT validations",
		},
	)

	IdentitySubjectRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "identity_subject_rejected_total",
			Help: "Total number of validated tokens whose subject could not be parsed",
		},
	)
)
