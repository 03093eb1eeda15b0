package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlibekovAA/tenantdesk-auth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/tenantdesk-auth/internal/common/errors"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type AuthConfig struct {
	Environment          string
	HTTPPort             string
	DatabaseURL          string
	DirectoryDatabaseURL string
	JWTSecret            string
	JWTIssuer            string
	JWTAudience          string
	AccessTokenLifetime  time.Duration
	RefreshTokenLifetime time.Duration
	RequestTimeout       time.Duration
	CircuitBreaker       CircuitBreakerConfig
	TrustedProxies       []string
	LogDir               string
	LogLevel             string
}

type CircuitBreakerConfig struct {
	Threshold int
	Timeout   time.Duration
	Reset     time.Duration
}

func (c AuthConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// LoadAuthConfig reads an optional .env file from the working directory and then
// the process environment. Values already present in the environment win.
func LoadAuthConfig() (AuthConfig, error) {
	_ = godotenv.Load()
	return loadAuthConfig()
}

func loadAuthConfig() (AuthConfig, error) {
	env := strings.ToLower(getEnv("APP_ENV", EnvDevelopment))
	if env != EnvDevelopment && env != EnvProduction {
		return AuthConfig{}, fmt.Errorf("%w: APP_ENV=%q", commonerrors.ErrInvalidConfigValue, env)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret != "" {
		if err := validateJWTSecret(jwtSecret); err != nil {
			return AuthConfig{}, err
		}
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return AuthConfig{}, err
	}

	accessHours := getIntEnv("ACCESS_TOKEN_LIFETIME_HOURS", constants.DefaultAccessTokenLifetimeHours)
	if accessHours <= 0 {
		return AuthConfig{}, fmt.Errorf("%w: ACCESS_TOKEN_LIFETIME_HOURS must be positive", commonerrors.ErrInvalidConfigValue)
	}
	refreshHours := getIntEnv("REFRESH_TOKEN_LIFETIME_HOURS", constants.DefaultRefreshTokenLifetimeHours)
	if refreshHours <= 0 {
		return AuthConfig{}, fmt.Errorf("%w: REFRESH_TOKEN_LIFETIME_HOURS must be positive", commonerrors.ErrInvalidConfigValue)
	}

	return AuthConfig{
		Environment:          env,
		HTTPPort:             getEnv("AUTH_HTTP_PORT", constants.DefaultAuthHTTPPort),
		DatabaseURL:          databaseURL,
		DirectoryDatabaseURL: getEnv("DIRECTORY_DATABASE_URL", databaseURL),
		JWTSecret:            jwtSecret,
		JWTIssuer:            getEnv("JWT_ISSUER", constants.DefaultJWTIssuer),
		JWTAudience:          getEnv("JWT_AUDIENCE", constants.DefaultJWTAudience),
		AccessTokenLifetime:  time.Duration(accessHours) * time.Hour,
		RefreshTokenLifetime: time.Duration(refreshHours) * time.Hour,
		RequestTimeout:       getDurationEnv("AUTH_REQUEST_TIMEOUT", constants.DefaultAuthRequestTimeout),
		CircuitBreaker: CircuitBreakerConfig{
			Threshold: getIntEnv("CB_THRESHOLD", constants.DefaultCircuitBreakerThreshold),
			Timeout:   getDurationEnv("CB_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
			Reset:     getDurationEnv("CB_RESET", constants.DefaultCircuitBreakerReset),
		},
		TrustedProxies: getListEnv("TRUSTED_PROXIES"),
		LogDir:         getEnv("LOG_DIR", ""),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
	}, nil
}

func validateJWTSecret(secret string) error {
	if len(secret) < constants.JWTSecretMinLength {
		return fmt.Errorf("%w: got %d bytes", commonerrors.ErrInvalidJWTSecret, len(secret))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getListEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", commonerrors.ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
