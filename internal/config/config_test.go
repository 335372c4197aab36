package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWithFileOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  environment: production
database:
  dsn: postgres://localhost/site
redis:
  enabled: true
  host: cache
rate_limit:
  backend: redis
  algorithm: sliding_window
  limit: 10
  window: 1m
auth:
  jwt_secret: s3cret
  admin_username: owner
mail:
  host: smtp.example.com
  username: bot
  password: pw
  to: owner@example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Environment)
	assert.Equal(t, "cache:6379", cfg.Redis.GetRedisAddr())
	assert.Equal(t, "sliding_window", cfg.RateLimit.Algorithm)
	assert.Equal(t, 10, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "owner", cfg.Auth.AdminUsername)
	assert.True(t, cfg.Mail.Enabled())
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: postgres://localhost/site
auth:
  jwt_secret: s3cret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, "fixed_window", cfg.RateLimit.Algorithm)
	assert.Equal(t, 5, cfg.RateLimit.Limit)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Mail.Enabled())
	assert.Equal(t, 5*time.Minute, cfg.Content.CacheTTL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GYS_DATABASE_DSN", "postgres://env/site")
	t.Setenv("GYS_AUTH_JWT_SECRET", "from-env")
	t.Setenv("GYS_RATE_LIMIT_LIMIT", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/site", cfg.Database.DSN)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 7, cfg.RateLimit.Limit)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:    ServerConfig{Port: "8080"},
			Database:  DatabaseConfig{DSN: "postgres://localhost/site"},
			Auth:      AuthConfig{JWTSecret: "s", TokenTTL: time.Hour},
			RateLimit: RateLimitConfig{Backend: "memory", Algorithm: "fixed_window", Limit: 5, Window: time.Minute},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "auth.jwt_secret"},
		{"zero limit", func(c *Config) { c.RateLimit.Limit = 0 }, "rate_limit.limit"},
		{"zero window", func(c *Config) { c.RateLimit.Window = 0 }, "rate_limit.window"},
		{"unknown backend", func(c *Config) { c.RateLimit.Backend = "memcached" }, "rate_limit.backend"},
		{"redis backend without redis", func(c *Config) { c.RateLimit.Backend = "redis" }, "redis.enabled"},
		{"sliding window in memory", func(c *Config) { c.RateLimit.Algorithm = "sliding_window" }, "sliding_window"},
		{"unknown algorithm", func(c *Config) { c.RateLimit.Algorithm = "leaky" }, "rate_limit.algorithm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
