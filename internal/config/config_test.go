package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("reads values and fills defaults", func(t *testing.T) {
		path := writeConfig(t, `
environment: production
server:
  port: 9090
upstream:
  base_url: https://intel.example.com/api
session:
  backend: redis
  redis:
    host: redis.internal
    port: 6380
auth:
  jwt_secret: super-secret
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "production", cfg.Environment)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "https://intel.example.com/api", cfg.Upstream.BaseURL)
		assert.Equal(t, "redis", cfg.Session.Backend)
		assert.Equal(t, "redis.internal:6380", cfg.Session.Redis.Addr())
		assert.Equal(t, "super-secret", cfg.Auth.JWTSecret)

		// Values not present in the file fall back to defaults.
		assert.Equal(t, 30, cfg.Server.ReadTimeout)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.True(t, cfg.Live.Enabled)
		assert.Equal(t, 3000, cfg.Live.JitterInterval)
		assert.Equal(t, 24*time.Hour, cfg.Auth.TokenDuration())
	})

	t.Run("missing upstream base url is an error", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 9090
`)
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing file still loads from env and defaults", func(t *testing.T) {
		t.Setenv("UPSTREAM_BASE_URL", "https://intel.example.com/api")

		cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "https://intel.example.com/api", cfg.Upstream.BaseURL)
		assert.Equal(t, 8080, cfg.Server.Port)
	})

	t.Run("environment variables override the file", func(t *testing.T) {
		path := writeConfig(t, `
upstream:
  base_url: https://file.example.com/api
auth:
  jwt_secret: from-file
`)
		t.Setenv("JWT_SECRET", "from-env")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	})
}
