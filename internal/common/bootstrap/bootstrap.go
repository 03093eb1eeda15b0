package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jmoiron/sqlx"

	auditrepo "github.com/AlibekovAA/tenantdesk-auth/internal/audit/repository"
	authrepo "github.com/AlibekovAA/tenantdesk-auth/internal/auth/repository"
	"github.com/AlibekovAA/tenantdesk-auth/internal/auth/service"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/clock"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/config"
	commoncrypto "github.com/AlibekovAA/tenantdesk-auth/internal/common/crypto"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/db"
	commonhttp "github.com/AlibekovAA/tenantdesk-auth/internal/common/http"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/logger"
	"github.com/AlibekovAA/tenantdesk-auth/internal/common/resilience"
	userrepo "github.com/AlibekovAA/tenantdesk-auth/internal/user/repository"
)

type AuthApp struct {
	Log            *logger.Logger
	Config         config.AuthConfig
	Pool           *pgxpool.Pool
	Directory      *sqlx.DB
	Clock          clock.Clock
	SigningKeys    *service.SigningKeyProvider
	RefreshTokens  authrepo.RefreshTokenRepository
	AuthService    *service.AuthService
	TrustedProxies *commonhttp.TrustedProxies
}

// NewAuthApp loads configuration, opens both database handles and wires the
// service graph. The signing key is resolved here so a production deployment
// without JWT_SECRET fails before it starts listening.
func NewAuthApp(ctx context.Context) (*AuthApp, error) {
	cfg, err := config.LoadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogDir, "auth", cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	keys := service.NewSigningKeyProvider(cfg.JWTSecret, cfg.IsProduction(), log)
	if _, err := keys.GetSigningKey(); err != nil {
		log.Criticalf("JWT_SECRET must be set when APP_ENV=%s", cfg.Environment)
		_ = log.Sync()
		return nil, fmt.Errorf("failed to resolve signing key: %w", err)
	}

	proxies, err := commonhttp.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Criticalf("TRUSTED_PROXIES is invalid: %v", err)
		_ = log.Sync()
		return nil, fmt.Errorf("failed to parse trusted proxies: %w", err)
	}

	pool, err := db.NewPool(ctx, log, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	directory, err := db.NewDirectoryDB(ctx, log, cfg.DirectoryDatabaseURL)
	if err != nil {
		pool.Close()
		return nil, err
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  int32(cfg.CircuitBreaker.Threshold),
		Timeout:    cfg.CircuitBreaker.Timeout,
		ResetAfter: cfg.CircuitBreaker.Reset,
		Name:       "refresh_tokens_db",
		Logger:     log,
		IsExpected: authrepo.IsExpectedError,
	})

	c := clock.NewRealClock()
	refreshTokens := authrepo.NewPgRefreshTokenRepository(pool, cb)
	users := userrepo.NewSqlxRepository(directory, &commoncrypto.BcryptHasher{}, log)
	audit := auditrepo.NewSqlxRecorder(directory)

	authService := service.NewAuthService(
		service.Config{
			Issuer:          cfg.JWTIssuer,
			Audience:        cfg.JWTAudience,
			AccessTokenTTL:  cfg.AccessTokenLifetime,
			RefreshTokenTTL: cfg.RefreshTokenLifetime,
		},
		keys,
		users,
		refreshTokens,
		audit,
		commoncrypto.NewUUIDGenerator(),
		c,
		log,
	)

	return &AuthApp{
		Log:            log,
		Config:         cfg,
		Pool:           pool,
		Directory:      directory,
		Clock:          c,
		SigningKeys:    keys,
		RefreshTokens:  refreshTokens,
		AuthService:    authService,
		TrustedProxies: proxies,
	}, nil
}

func (a *AuthApp) Close() {
	if err := a.Directory.Close(); err != nil {
		a.Log.Errorf("failed to close directory database: %v", err)
	}
	a.Pool.Close()
	_ = a.Log.Sync()
}
