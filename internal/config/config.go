package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all system-wide settings. Values come from the
// environment with the PAIRCHAT_ prefix, over the defaults below.
type Config struct {
	HTTP      HTTPConfig      `split_words:"true"`
	Storage   StorageConfig   `split_words:"true"`
	WebSocket WebSocketConfig `split_words:"true"`
	Auth      AuthConfig      `split_words:"true"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Host         string        `default:"0.0.0.0"`
	Port         int           `default:"8080"`
	ReadTimeout  time.Duration `split_words:"true" default:"30s"`
	WriteTimeout time.Duration `split_words:"true" default:"30s"`
}

// StorageConfig selects and configures the message store backend.
type StorageConfig struct {
	// Backend is "sqlite" or "redis".
	Backend       string `default:"sqlite"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"./pairchat.db"`
	RedisAddr     string `split_words:"true" default:"localhost:6379"`
	RedisPassword string `split_words:"true" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// PairingBackend is "sqlite" or "memory". The memory directory holds
	// only the pairs seeded below and suits dev deployments.
	PairingBackend string `split_words:"true" default:"sqlite"`
	// PairingSeed provisions the memory directory: "alice:bob,carol:dan".
	PairingSeed string `split_words:"true" default:""`
}

// WebSocketConfig configures connection timeouts and the history window.
type WebSocketConfig struct {
	// ReadTimeout must exceed the client heartbeat interval (30s) or
	// healthy connections get dropped between pings.
	ReadTimeout  time.Duration `split_words:"true" default:"60s"`
	WriteTimeout time.Duration `split_words:"true" default:"10s"`
	SendBuffer   int           `split_words:"true" default:"100"`
	HistoryLimit int           `split_words:"true" default:"50"`
}

// AuthConfig configures the identity provider.
type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET" default:""`
}

// Load builds the configuration from defaults and environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("pairchat", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with only default values applied.
// Used by tests; production goes through Load.
func Default() *Config {
	var cfg Config
	// envconfig applies struct defaults even with no variables set.
	_ = envconfig.Process("pairchat_defaults_only", &cfg)
	return &cfg
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be 1-65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}

	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite path cannot be empty")
		}
	case "redis":
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("redis address cannot be empty")
		}
	default:
		return fmt.Errorf("storage backend must be sqlite or redis, got %q", c.Storage.Backend)
	}

	switch c.Storage.PairingBackend {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite path cannot be empty")
		}
	case "memory":
	default:
		return fmt.Errorf("pairing backend must be sqlite or memory, got %q", c.Storage.PairingBackend)
	}

	if c.WebSocket.ReadTimeout <= 0 || c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("WebSocket timeouts must be positive")
	}
	if c.WebSocket.SendBuffer <= 0 {
		return fmt.Errorf("WebSocket send buffer must be positive")
	}
	if c.WebSocket.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	return nil
}
