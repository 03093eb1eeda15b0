package constants

import "time"

const (
	JWTSecretMinLength = 32
	DevSigningKeySize  = 64
	RefreshTokenSize   = 64

	DeviceInfoMaxLength = 256
	IPAddressMaxLength  = 45

	EmailMaxLength        = 254
	PasswordMaxLength     = 128
	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 5
	DBPoolConnMaxLifetime = 1 * time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 30 * time.Second

	DirectoryMaxOpenConns = 10

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	RefreshTokenCleanupInterval = 1 * time.Hour

	AuditWriteTimeout = 5 * time.Second

	DefaultAuthHTTPPort = "8081"

	DefaultJWTIssuer                 = "tenantdesk"
	DefaultJWTAudience               = "tenantdesk-api"
	DefaultAccessTokenLifetimeHours  = 1
	DefaultRefreshTokenLifetimeHours = 7 * 24

	DefaultCircuitBreakerThreshold = 500
	DefaultCircuitBreakerTimeout   = 15 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	DefaultAuthRequestTimeout = 5 * time.Second

	RateLimitCleanupInterval = 5 * time.Minute

	RateLimitTokenRequestsPerSecond   = 1.0
	RateLimitTokenBurst               = 5
	RateLimitRefreshRequestsPerSecond = 2.0
	RateLimitRefreshBurst             = 10
	RateLimitLogoutRequestsPerSecond  = 2.0
	RateLimitLogoutBurst              = 10
	RateLimitGeneralRequestsPerSecond = 10.0
	RateLimitGeneralBurst             = 50

	RefreshCookieName = "refresh_token"
	RefreshCookiePath = "/auth"

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
