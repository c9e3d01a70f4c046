// Package common provides shared utilities for WMTB
package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for WMTB
type Config struct {
	Environment string        `toml:"environment"`
	Ledger      LedgerConfig  `toml:"ledger"`
	Display     DisplayConfig `toml:"display"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
}

// LedgerConfig holds the Ledger Service client configuration
type LedgerConfig struct {
	BaseURL           string `toml:"base_url"`
	UserID            string `toml:"user_id"`
	Timeout           string `toml:"timeout"`
	RateLimit         int    `toml:"rate_limit"`
	TransactionsLimit int    `toml:"transactions_limit"` // 0 leaves the server default (50)
}

// GetTimeout parses and returns the timeout duration
func (c *LedgerConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// DisplayConfig controls how amounts and times are presented.
type DisplayConfig struct {
	Currency string `toml:"currency"`
	Timezone string `toml:"timezone"` // IANA name, "" or "Local" for the host zone
}

// Location resolves the configured timezone, falling back to time.Local.
func (c *DisplayConfig) Location() *time.Location {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}

// ServerConfig holds HTTP server configuration for the reference Ledger Service
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the reference Ledger Service database location.
type StorageConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Ledger: LedgerConfig{
			BaseURL:   "http://localhost:5000",
			UserID:    "demo-user-123",
			Timeout:   "30s",
			RateLimit: 5,
		},
		Display: DisplayConfig{
			Currency: "TZS",
			Timezone: "Local",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Storage: StorageConfig{
			Path: "data/wmtb.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with .env and environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	applyEnvOverrides(config)

	config.Display.Currency = strings.ToUpper(strings.TrimSpace(config.Display.Currency))
	if config.Display.Currency == "" {
		config.Display.Currency = "TZS"
	}

	return config, nil
}

// loadDotEnv populates the process environment from a .env file.
// Variables already set in the environment win; a missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("WMTB_ENV"); env != "" {
		config.Environment = env
	}

	if v := os.Getenv("WMTB_LEDGER_URL"); v != "" {
		config.Ledger.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("WMTB_USER_ID"); v != "" {
		config.Ledger.UserID = v
	}
	if v := os.Getenv("WMTB_LEDGER_TIMEOUT"); v != "" {
		config.Ledger.Timeout = v
	}
	if v := os.Getenv("WMTB_LEDGER_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Ledger.RateLimit = n
		}
	}

	if v := os.Getenv("WMTB_CURRENCY"); v != "" {
		config.Display.Currency = v
	}
	if v := os.Getenv("WMTB_TIMEZONE"); v != "" {
		config.Display.Timezone = v
	}

	if host := os.Getenv("WMTB_HOST"); host != "" {
		config.Server.Host = host
	}
	// PORT is honoured for parity with hosted deployments of the ledger backend
	for _, key := range []string{"PORT", "WMTB_PORT"} {
		if port := os.Getenv(key); port != "" {
			if p, err := strconv.Atoi(port); err == nil {
				config.Server.Port = p
			}
		}
	}

	if path := os.Getenv("WMTB_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if level := os.Getenv("WMTB_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
