package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for ds-visualizer.
// Values come from an optional YAML file; environment variables override it.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Assistant AssistantConfig `yaml:"assistant"`
	Session   SessionConfig   `yaml:"session"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port int    `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"sqlite"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"dsviz:"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	DSN          string `yaml:"-" env:"DATABASE_DSN"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns int    `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS" env-default:"2"`
}

// SQLiteConfig holds the local database file location
type SQLiteConfig struct {
	Path string `yaml:"path" env:"SQLITE_PATH" env-default:"./ds-visualizer.db"`
}

// AssistantConfig configures the schema-generation collaborator
type AssistantConfig struct {
	Provider    string  `yaml:"provider" env:"ASSISTANT_PROVIDER" env-default:"openai"`
	Model       string  `yaml:"model" env:"ASSISTANT_MODEL"`
	APIKey      string  `yaml:"-" env:"ASSISTANT_API_KEY"`
	BaseURL     string  `yaml:"base_url" env:"ASSISTANT_BASE_URL"`
	Temperature float64 `yaml:"temperature" env:"ASSISTANT_TEMPERATURE" env-default:"0.2"`
	MaxTokens   int     `yaml:"max_tokens" env:"ASSISTANT_MAX_TOKENS" env-default:"2048"`
}

// Default models used when ASSISTANT_MODEL is not set
var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-sonnet-4-5-20250929",
	"static":    "offline",
}

// DefaultModel returns the model used for provider when none is configured
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// SessionConfig configures the workspace cookie
type SessionConfig struct {
	Secret string        `yaml:"-" env:"SESSION_SECRET"`
	MaxAge time.Duration `yaml:"max_age" env:"SESSION_MAX_AGE" env-default:"8760h"`
	Secure bool          `yaml:"secure" env:"SESSION_SECURE" env-default:"false"`
}

// WorkspaceConfig controls the in-memory workspace cache
type WorkspaceConfig struct {
	IdleTTL         time.Duration `yaml:"idle_ttl" env:"WORKSPACE_IDLE_TTL" env-default:"30m"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"WORKSPACE_CLEANUP_INTERVAL" env-default:"5m"`
}

// CatalogConfig optionally replaces the built-in structure descriptions
type CatalogConfig struct {
	File string `yaml:"file" env:"CATALOG_FILE"`
}

// LogConfig controls the default logger
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Load reads CONFIG_FILE (default config.yaml) when present, otherwise the environment only
func Load() (*Config, error) {
	cfg := &Config{}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.Assistant.Model == "" {
		cfg.Assistant.Model = DefaultModel(cfg.Assistant.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Backend {
	case "memory", "sqlite", "redis":
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %q", c.Storage.Backend)
	}

	if c.Storage.Backend == "sqlite" && c.SQLite.Path == "" {
		return errors.New("sqlite path is required for the sqlite backend")
	}

	switch c.Assistant.Provider {
	case "openai", "anthropic", "static":
	default:
		return fmt.Errorf("invalid assistant provider: %q", c.Assistant.Provider)
	}

	if c.Workspace.IdleTTL <= 0 {
		return fmt.Errorf("workspace idle ttl must be positive: %s", c.Workspace.IdleTTL)
	}

	return nil
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SlogLevel maps the configured level name to a slog level
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
