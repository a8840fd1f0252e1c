package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:5555", cfg.Backend.BaseURL)
		assert.Zero(t, cfg.Backend.Timeout)
		assert.Equal(t, DefaultCSRFHeader, cfg.Backend.CSRFHeader)
		assert.NotEmpty(t, cfg.Tab.ID)
		assert.Equal(t, 24*time.Hour, cfg.Tab.TTL)
		assert.False(t, cfg.Redis.Enabled)
		assert.Empty(t, cfg.Debug.Addr)
		assert.Equal(t, zerolog.InfoLevel, cfg.Log.Level)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("BACKEND_URL", "https://api.savorviews.test")
		t.Setenv("BACKEND_TIMEOUT", "10s")
		t.Setenv("CSRF_HEADER", "X-CSRF-Token")
		t.Setenv("TAB_ID", "tab-7")
		t.Setenv("TAB_TTL", "1h")
		t.Setenv("REDIS_ENABLED", "true")
		t.Setenv("REDIS_HOST", "cache")
		t.Setenv("REDIS_PORT", "6380")
		t.Setenv("REDIS_DB", "2")
		t.Setenv("DEBUG_ADDR", "127.0.0.1:9090")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "https://api.savorviews.test", cfg.Backend.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, "X-CSRF-Token", cfg.Backend.CSRFHeader)
		assert.Equal(t, "tab-7", cfg.Tab.ID)
		assert.Equal(t, time.Hour, cfg.Tab.TTL)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "cache:6380", cfg.Redis.Address())
		assert.Equal(t, 2, cfg.Redis.DB)
		assert.Equal(t, "127.0.0.1:9090", cfg.Debug.Addr)
		assert.Equal(t, zerolog.DebugLevel, cfg.Log.Level)
	})

	t.Run("unparsable numbers fall back to defaults", func(t *testing.T) {
		t.Setenv("REDIS_DB", "two")
		t.Setenv("TAB_TTL", "forever")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Redis.DB)
		assert.Equal(t, 24*time.Hour, cfg.Tab.TTL)
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loud")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Backend: BackendConfig{BaseURL: "http://localhost:5555", CSRFHeader: DefaultCSRFHeader},
			Tab:     TabConfig{ID: "tab-1", TTL: time.Hour},
			Redis:   RedisConfig{Port: "6379"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"relative backend URL", func(c *Config) { c.Backend.BaseURL = "localhost:5555" }, true},
		{"ftp backend URL", func(c *Config) { c.Backend.BaseURL = "ftp://example.com" }, true},
		{"negative timeout", func(c *Config) { c.Backend.Timeout = -time.Second }, true},
		{"empty CSRF header", func(c *Config) { c.Backend.CSRFHeader = " " }, true},
		{"empty tab ID", func(c *Config) { c.Tab.ID = "" }, true},
		{"glob in tab ID", func(c *Config) { c.Tab.ID = "tab*" }, true},
		{"bad redis port when enabled", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Port = "redis"
		}, true},
		{"bad redis port when disabled", func(c *Config) { c.Redis.Port = "redis" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
