// Package common provides shared utilities for surbminer
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Storage backend names accepted in [storage].backend.
const (
	BackendSurrealDB = "surrealdb"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"
)

// Config holds all configuration for surbminer
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Auth        AuthConfig    `toml:"auth"`
	Sweep       SweepConfig   `toml:"sweep"`
	Notify      NotifyConfig  `toml:"notify"`
	Funding     FundingConfig `toml:"funding"`
	Plans       []PlanConfig  `toml:"plans"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	PublicURL string `toml:"public_url"` // base of referral links; the request host when empty
}

// StorageConfig selects and configures the ledger storage backend.
type StorageConfig struct {
	Backend string `toml:"backend"` // "surrealdb" (default), "sqlite" or "memory"

	// SurrealDB connection
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`

	// SQLite database file
	SQLitePath string `toml:"sqlite_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// AuthConfig holds bearer-token settings for the REST API.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
	Disabled    bool   `toml:"disabled"`     // development only
	Breakglass  bool   `toml:"breakglass"`   // log an admin token at startup
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// SweepConfig controls the in-process expiry sweep.
type SweepConfig struct {
	Enabled  bool   `toml:"enabled"`
	Interval string `toml:"interval"`
}

// GetInterval parses and returns the sweep interval
func (c *SweepConfig) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// NotifyConfig configures where approval/cancellation events are delivered.
type NotifyConfig struct {
	WebhookURL string  `toml:"webhook_url"`
	Timeout    string  `toml:"timeout"`
	RateLimit  float64 `toml:"rate_limit"` // events per second
	Burst      int     `toml:"burst"`
}

// GetTimeout parses and returns the webhook timeout
func (c *NotifyConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// FundingConfig holds the company receiving wallets shown on deposit requests.
type FundingConfig struct {
	Wallets map[string]string `toml:"wallets"`
}

// PlanConfig seeds the plan catalog. Amounts are decimal strings.
type PlanConfig struct {
	ID              string `toml:"id"`
	Name            string `toml:"name"`
	MinAmount       string `toml:"min_amount"`
	MaxAmount       string `toml:"max_amount"` // empty = unbounded
	DailyPercentage string `toml:"daily_percentage"`
	DurationDays    int    `toml:"duration_days"`
	Description     string `toml:"description"`
	Inactive        bool   `toml:"inactive"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend:    BackendSurrealDB,
			Address:    "ws://localhost:8000/rpc",
			Namespace:  "surbminer",
			Database:   "ledger",
			Username:   "root",
			Password:   "root",
			SQLitePath: "data/surbminer.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Auth: AuthConfig{
			JWTSecret:   "change-me-in-production",
			TokenExpiry: "24h",
		},
		Sweep: SweepConfig{
			Enabled:  true,
			Interval: "24h",
		},
		Notify: NotifyConfig{
			Timeout:   "10s",
			RateLimit: 5,
			Burst:     10,
		},
		Funding: FundingConfig{
			Wallets: map[string]string{},
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	config.Storage.Backend = strings.ToLower(strings.TrimSpace(config.Storage.Backend))
	if config.Storage.Backend == "" {
		config.Storage.Backend = BackendSurrealDB
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SURBMINER_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("SURBMINER_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("SURBMINER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if v := os.Getenv("SURBMINER_PUBLIC_URL"); v != "" {
		config.Server.PublicURL = v
	}

	if level := os.Getenv("SURBMINER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Storage overrides
	if v := os.Getenv("SURBMINER_STORAGE_BACKEND"); v != "" {
		config.Storage.Backend = v
	}
	if v := os.Getenv("SURBMINER_STORAGE_ADDRESS"); v != "" {
		config.Storage.Address = v
	}
	if v := os.Getenv("SURBMINER_STORAGE_USERNAME"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("SURBMINER_STORAGE_PASSWORD"); v != "" {
		config.Storage.Password = v
	}
	if v := os.Getenv("SURBMINER_SQLITE_PATH"); v != "" {
		config.Storage.SQLitePath = v
	}

	if v := os.Getenv("SURBMINER_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}

	if v := os.Getenv("SURBMINER_SWEEP_INTERVAL"); v != "" {
		config.Sweep.Interval = v
	}

	if v := os.Getenv("SURBMINER_NOTIFY_WEBHOOK_URL"); v != "" {
		config.Notify.WebhookURL = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ValidateRequired returns the names of settings that must be changed before
// running in production.
func (c *Config) ValidateRequired() []string {
	var missing []string
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "change-me-in-production" {
		missing = append(missing, "auth.jwt_secret")
	}
	if c.Auth.Disabled {
		missing = append(missing, "auth.disabled")
	}
	if c.Storage.Backend == BackendMemory {
		missing = append(missing, "storage.backend")
	}
	return missing
}
