package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 100, cfg.DefaultPageSize)
	assert.True(t, cfg.AllowAdminDemotion)
	assert.True(t, cfg.AllowSelfDemotion)
	assert.False(t, cfg.IsProduction())

	// secrets are generated outside release mode
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.SessionSecret)
	assert.ElementsMatch(t, []string{"JWT_SECRET", "SESSION_SECRET"}, cfg.GeneratedSecrets)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("SESSION_SECRET", "session")
	t.Setenv("ALLOW_ADMIN_DEMOTION", "false")
	t.Setenv("MAX_PAGE_SIZE", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "jwt", cfg.JWTSecret)
	assert.False(t, cfg.AllowAdminDemotion)
	assert.Equal(t, 500, cfg.MaxPageSize)
	assert.Empty(t, cfg.GeneratedSecrets)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskhub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":9090\"\nlog_level: debug\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "oracle")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("ttl", func(t *testing.T) {
		t.Setenv("TOKEN_TTL", "0s")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("release without secrets", func(t *testing.T) {
		t.Setenv("GIN_MODE", "release")
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})
}
