package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Database
	Database     string        `yaml:"database"`
	BlogDatabase string        `yaml:"blog_database"` // empty means Database
	BusyTimeout  time.Duration `yaml:"busy_timeout"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Output
	Format string `yaml:"format"` // text or json; the --format flag wins
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Database:    "articles.db",
		BusyTimeout: 5 * time.Second,
		LogLevel:    "info",
		Format:      "text",
	}
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Database = getEnv("ARTICLES_DB", cfg.Database)
	cfg.BlogDatabase = getEnv("ARTICLES_BLOG_DB", cfg.BlogDatabase)
	cfg.BusyTimeout = getEnvAsDuration("ARTICLES_BUSY_TIMEOUT", cfg.BusyTimeout)
	cfg.LogLevel = getEnv("ARTICLES_LOG_LEVEL", cfg.LogLevel)
	cfg.Format = getEnv("ARTICLES_FORMAT", cfg.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Database == "" {
		return errors.New("database is required")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("busy_timeout must not be negative, got %s", c.BusyTimeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	return nil
}

// BlogDatabasePath returns where blog articles live.
func (c *Config) BlogDatabasePath() string {
	if c.BlogDatabase == "" {
		return c.Database
	}
	return c.BlogDatabase
}

// SeparateBlogDatabase reports whether blog articles use their own database.
func (c *Config) SeparateBlogDatabase() bool {
	return c.BlogDatabasePath() != c.Database
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

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
