// Package config handles application configuration loading from environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const devJWTSecret = "dev-secret-change-me"

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	DBPath string

	JWTSecret string
	JWTTTL    time.Duration

	// SaveDebounce is how long a session waits after its last mutation
	// before writing the ledger.
	SaveDebounce time.Duration

	// Import limits
	ImportMaxBytes int64
	ImportRate     float64 // requests per second, server-wide
	ImportBurst    int

	LogLevel  string
	LogFormat string // "text" (tint) or "json"
}

// Load reads configuration from environment variables, applying development
// defaults. Malformed numbers and durations are errors, as is the default
// JWT secret in production.
func Load() (*Config, error) {
	cfg := &Config{
		Host:      envOrDefault("APP_HOST", "0.0.0.0"),
		Port:      envOrDefault("APP_PORT", "8080"),
		Env:       envOrDefault("APP_ENV", "development"),
		DBPath:    envOrDefault("DB_PATH", "./data/treasurer.db"),
		JWTSecret: envOrDefault("JWT_SECRET", devJWTSecret),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.JWTTTL, err = durationEnv("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SaveDebounce, err = durationEnv("SAVE_DEBOUNCE", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.ImportMaxBytes, err = intEnv("IMPORT_MAX_BYTES", 10<<20); err != nil {
		return nil, err
	}
	if cfg.ImportRate, err = floatEnv("IMPORT_RATE", 2); err != nil {
		return nil, err
	}
	burst, err := intEnv("IMPORT_BURST", 4)
	if err != nil {
		return nil, err
	}
	cfg.ImportBurst = int(burst)

	if cfg.ImportMaxBytes <= 0 {
		return nil, fmt.Errorf("IMPORT_MAX_BYTES must be positive")
	}
	if cfg.Env == "production" && cfg.JWTSecret == devJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func intEnv(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}
