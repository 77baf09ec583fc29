package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Remote    RemoteConfig
	Library   LibraryConfig
	Auth      AuthConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration. An empty origin list
// allows any origin, which suits local single-user use.
type ServerConfig struct {
	Port           string   `envconfig:"ORRERY_PORT" default:"8000"`
	Host           string   `envconfig:"ORRERY_HOST" default:"0.0.0.0"`
	AllowedOrigins []string `envconfig:"ORRERY_ALLOWED_ORIGINS" default:""`
}

// RemoteConfig holds notebook-server client configuration.
type RemoteConfig struct {
	BaseURL        string `envconfig:"ORRERY_REMOTE_URL" default:"http://127.0.0.1:8888"`
	Token          string `envconfig:"ORRERY_REMOTE_TOKEN" default:""`
	TimeoutSeconds int    `envconfig:"ORRERY_REMOTE_TIMEOUT" default:"30"`
	ProfilesPath   string `envconfig:"ORRERY_REMOTE_PROFILES" default:""`
}

// LibraryConfig holds the on-disk notebook library configuration.
type LibraryConfig struct {
	Root       string `envconfig:"ORRERY_LIBRARY_ROOT" default:"./notebooks"`
	Pattern    string `envconfig:"ORRERY_LIBRARY_PATTERN" default:"**/*.ipynb"`
	LayoutPath string `envconfig:"ORRERY_LAYOUT" default:""`
}

// AuthConfig holds optional API bearer-token authentication. TokenHash is a
// bcrypt hash of the accepted token; auth is enforced only when Enabled.
type AuthConfig struct {
	Enabled   bool   `envconfig:"ORRERY_AUTH_ENABLED" default:"false"`
	TokenHash string `envconfig:"ORRERY_AUTH_TOKEN_HASH" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"ORRERY_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"ORRERY_LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"ORRERY_RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"ORRERY_RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"ORRERY_RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Remote: RemoteConfig{
			BaseURL:        "http://127.0.0.1:8888",
			TimeoutSeconds: 30,
		},
		Library: LibraryConfig{
			Root:    "./notebooks",
			Pattern: "**/*.ipynb",
		},
		Auth: AuthConfig{
			Enabled: false,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Remote.TimeoutSeconds <= 0 {
		return fmt.Errorf("remote timeout must be positive, got %d", c.Remote.TimeoutSeconds)
	}
	if c.Library.Root == "" {
		return fmt.Errorf("library root is required")
	}
	if c.Auth.Enabled && c.Auth.TokenHash == "" {
		return fmt.Errorf("auth enabled but no token hash configured")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate limit rps must be positive, got %d", c.RateLimit.RequestsPerSecond)
	}
	return nil
}
