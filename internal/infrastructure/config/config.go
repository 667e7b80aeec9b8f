// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for credits configuration.
	DefaultConfigDir = ".credits"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite file name inside the config dir.
	DefaultDatabaseFile = "credits.db"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds static configuration (read-only after init).
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Resolution ResolutionConfig `yaml:"resolution,omitempty"`
	Metrics    MetricsConfig    `yaml:"metrics,omitempty"`
}

// DatabaseConfig selects and configures the relational store.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Postgres PostgresConfig `yaml:"postgres,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database, relative to the project
	// directory unless absolute. ":memory:" opens a private in-memory database.
	Path string `yaml:"path,omitempty"`
}

// PostgresConfig holds configuration for the PostgreSQL relational database.
type PostgresConfig struct {
	DSN      string `yaml:"dsn,omitempty"`
	MaxConns int32  `yaml:"max_conns,omitempty"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// ResolutionConfig tunes name resolution.
type ResolutionConfig struct {
	// StalePolicy is "substitute" or "reject".
	StalePolicy string `yaml:"stale_policy,omitempty"`
	// SuggestionLimit caps fuzzy candidates per name; 0 means no cap.
	SuggestionLimit int `yaml:"suggestion_limit,omitempty"`
	// IDLookup enables resolving numeric ids and permalinks.
	IDLookup *bool `yaml:"id_lookup,omitempty"`
}

// IDLookupEnabled reports whether id lookup is on. It defaults to true.
func (r ResolutionConfig) IDLookupEnabled() bool {
	return r.IDLookup == nil || *r.IDLookup
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	// Textfile, when set, receives the Prometheus text exposition after each command.
	Textfile string `yaml:"textfile,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			SQLite: SQLiteConfig{
				Path: filepath.Join(DefaultConfigDir, DefaultDatabaseFile),
			},
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Resolution: ResolutionConfig{
			StalePolicy: "substitute",
		},
	}
}

// Load loads configuration from the .credits directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'credits init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if driver := os.Getenv("CREDITS_DATABASE_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("CREDITS_DATABASE_DSN"); dsn != "" {
		c.Database.Postgres.DSN = dsn
	}
	if level := os.Getenv("CREDITS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLite.Path == "" {
			errs = append(errs, errors.New("database.sqlite.path is required"))
		}
	case DriverPostgres:
		if c.Database.Postgres.DSN == "" {
			errs = append(errs, errors.New("database.postgres.dsn is required (or set CREDITS_DATABASE_DSN)"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of sqlite, postgres", c.Database.Driver))
	}

	switch c.Resolution.StalePolicy {
	case "", "substitute", "reject":
	default:
		errs = append(errs, fmt.Errorf("resolution.stale_policy %q is not one of substitute, reject", c.Resolution.StalePolicy))
	}

	if c.Resolution.SuggestionLimit < 0 {
		errs = append(errs, errors.New("resolution.suggestion_limit must not be negative"))
	}

	switch c.Logging.Format {
	case "", "json", "console", "pretty":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of json, console", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// SQLitePath returns the SQLite path resolved against basePath.
func (c *Config) SQLitePath(basePath string) string {
	p := c.Database.SQLite.Path
	if p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}

// ConfigDir returns the path to the .credits config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}
