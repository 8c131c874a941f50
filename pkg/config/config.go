package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/guacadm/guacadm/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// DatabaseConfig holds gateway database settings. The connect timeout is
// env-only (GUACADM_DB_TIMEOUT): YAML has no native duration form.
type DatabaseConfig struct {
	URL         string        `yaml:"url"`
	MaxConns    int           `yaml:"max_conns"`
	MinConns    int           `yaml:"min_conns"`
	ConnTimeout time.Duration `yaml:"-"`
}

// ObservabilityConfig holds logging and metrics settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".guacadm.yaml")
}

// LoadConfig loads configuration: defaults, then the YAML file if present,
// then environment variables on top.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			MaxConns:    5,
			MinConns:    1,
			ConnTimeout: 10 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			MetricsEnabled: false,
		},
	}

	if path == "" {
		path = DefaultConfigPath()
	}
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto cfg
func applyEnv(cfg *Config) {
	if url := getEnv("GUACADM_DB_URL", ""); url != "" {
		cfg.Database.URL = url
	}
	if maxConns := getEnvInt("GUACADM_DB_MAX_CONNS", 0); maxConns > 0 {
		cfg.Database.MaxConns = maxConns
	}
	if minConns := getEnvInt("GUACADM_DB_MIN_CONNS", 0); minConns > 0 {
		cfg.Database.MinConns = minConns
	}
	if timeout := getEnvDuration("GUACADM_DB_TIMEOUT", 0); timeout > 0 {
		cfg.Database.ConnTimeout = timeout
	}
	if level := getEnv("GUACADM_LOG_LEVEL", ""); level != "" {
		cfg.Observability.LogLevel = level
	}
	if metrics := getEnv("GUACADM_METRICS_ENABLED", ""); metrics != "" {
		cfg.Observability.MetricsEnabled = strings.ToLower(metrics) == "true" || metrics == "1"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required (GUACADM_DB_URL or database.url in the config file)")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database max_conns must be at least min_conns")
	}
	switch strings.ToLower(c.Observability.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Observability.LogLevel)
	}
	return nil
}

// ParsedLogLevel converts the configured level string
func (c *Config) ParsedLogLevel() observability.LogLevel {
	switch strings.ToLower(c.Observability.LogLevel) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
