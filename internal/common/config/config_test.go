package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/AlibekovAA/tenantdesk-auth/internal/common/errors"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "JWT_SECRET", "JWT_ISSUER", "JWT_AUDIENCE", "DIRECTORY_DATABASE_URL",
		"ACCESS_TOKEN_LIFETIME_HOURS", "REFRESH_TOKEN_LIFETIME_HOURS", "AUTH_HTTP_PORT", "TRUSTED_PROXIES",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("DATABASE_URL", "postgres://auth@localhost/auth")
}

func TestLoadAuthConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := loadAuthConfig()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, "postgres://auth@localhost/auth", cfg.DirectoryDatabaseURL)
	assert.Equal(t, "tenantdesk", cfg.JWTIssuer)
	assert.Equal(t, "tenantdesk-api", cfg.JWTAudience)
	assert.Equal(t, time.Hour, cfg.AccessTokenLifetime)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenLifetime)
	assert.Empty(t, cfg.JWTSecret)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoadAuthConfig_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "Production")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("ACCESS_TOKEN_LIFETIME_HOURS", "2")
	t.Setenv("REFRESH_TOKEN_LIFETIME_HOURS", "24")
	t.Setenv("DIRECTORY_DATABASE_URL", "postgres://dir@localhost/dir")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,192.0.2.1")

	cfg, err := loadAuthConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.AccessTokenLifetime)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenLifetime)
	assert.Equal(t, "postgres://dir@localhost/dir", cfg.DirectoryDatabaseURL)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.TrustedProxies)
}

func TestLoadAuthConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{"missing database url", map[string]string{"DATABASE_URL": ""}, commonerrors.ErrMissingRequiredEnv},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, commonerrors.ErrInvalidJWTSecret},
		{"unknown environment", map[string]string{"APP_ENV": "staging"}, commonerrors.ErrInvalidConfigValue},
		{"zero access lifetime", map[string]string{"ACCESS_TOKEN_LIFETIME_HOURS": "0"}, commonerrors.ErrInvalidConfigValue},
		{"negative refresh lifetime", map[string]string{"REFRESH_TOKEN_LIFETIME_HOURS": "-1"}, commonerrors.ErrInvalidConfigValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := loadAuthConfig()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
