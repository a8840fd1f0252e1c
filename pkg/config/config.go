// Package config provides client configuration management with environment
// variable loading, validation, and sensible defaults. It supports .env files
// for local development and validates all settings on startup so a
// misconfigured backend URL or Redis port fails before the first view mounts.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//
//	client, err := api.NewClient(&cfg.Backend)
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// DefaultCSRFHeader is the header every state-changing request carries the
// anti-forgery token in. The backend (Flask-WTF) accepts both X-CSRFToken
// and X-CSRF-Token; one name is used everywhere.
const DefaultCSRFHeader = "X-CSRFToken"

// Config holds all configuration for the client.
// It aggregates all configuration sections into a single struct
// for easy access throughout the application.
type Config struct {
	Backend BackendConfig
	Tab     TabConfig
	Redis   RedisConfig
	Debug   DebugConfig
	Log     LogConfig
}

// BackendConfig describes the SavorViews REST backend the client talks to.
type BackendConfig struct {
	BaseURL    string
	Timeout    time.Duration // Zero means no timeout: a pending request stays pending
	CSRFHeader string        // Header name carrying the anti-forgery token
	UserAgent  string
}

// TabConfig identifies the tab whose durable storage this process uses.
// Restarting the client with the same TabID restores its login state.
type TabConfig struct {
	ID  string
	TTL time.Duration // Lifetime of the durable record after the last write
}

// RedisConfig holds Redis configuration for tab-durable storage.
// When Enabled is false, the client keeps its tab record in memory.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

// DebugConfig controls the optional local debug server exposing
// health and Prometheus metrics. An empty Addr disables it.
type DebugConfig struct {
	Addr string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level zerolog.Level
}

// Load reads and validates configuration from environment variables.
// It attempts to load a .env file if present but doesn't fail if the file
// is missing.
//
// Optional environment variables (defaults in parentheses):
//   - BACKEND_URL (http://localhost:5555)
//   - BACKEND_TIMEOUT (0, no timeout)
//   - CSRF_HEADER (X-CSRFToken)
//   - TAB_ID (random UUID), TAB_TTL (24h)
//   - REDIS_ENABLED (false), REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, REDIS_DB
//   - DEBUG_ADDR (empty, disabled)
//   - LOG_LEVEL (info)
func Load() (*Config, error) {
	_ = godotenv.Load()

	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	config := &Config{
		Backend: BackendConfig{
			BaseURL:    getEnv("BACKEND_URL", "http://localhost:5555"),
			Timeout:    getEnvAsDuration("BACKEND_TIMEOUT", 0),
			CSRFHeader: getEnv("CSRF_HEADER", DefaultCSRFHeader),
			UserAgent:  getEnv("USER_AGENT", "SavorViews-CLI/1.0 (X11; Linux x86_64)"),
		},
		Tab: TabConfig{
			ID:  getEnv("TAB_ID", uuid.New().String()),
			TTL: getEnvAsDuration("TAB_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
		},
		Debug: DebugConfig{
			Addr: getEnv("DEBUG_ADDR", ""),
		},
		Log: LogConfig{
			Level: level,
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is usable.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	u, err := url.ParseRequestURI(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend URL must use http or https, got %q", u.Scheme)
	}

	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend timeout must not be negative")
	}

	if strings.TrimSpace(c.Backend.CSRFHeader) == "" {
		return fmt.Errorf("CSRF header name is required")
	}

	if strings.TrimSpace(c.Tab.ID) == "" {
		return fmt.Errorf("tab ID is required")
	}
	if strings.ContainsAny(c.Tab.ID, "*?[] ") {
		return fmt.Errorf("tab ID must not contain glob characters or spaces")
	}

	if c.Redis.Enabled {
		if _, err := strconv.Atoi(c.Redis.Port); err != nil {
			return fmt.Errorf("redis port must be a valid integer: %w", err)
		}
	}

	return nil
}

// Address returns the Redis server address in "host:port" format.
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer with a default fallback.
// If the variable is not set or cannot be parsed as an integer, returns defaultValue.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a time.Duration with a default fallback.
// Supports Go duration format: "300ms", "1.5h", "2h45m", etc.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
