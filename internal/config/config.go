// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/Guliveer/sysinv/internal/models"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "ITAD_"

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "5s", "1m", "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all sysinv configuration. It is loaded once and treated as
// read-only afterwards.
type Config struct {
	// Hostname overrides the OS hostname used as the record key.
	Hostname   string           `yaml:"hostname"`
	Database   DatabaseConfig   `yaml:"database"`
	Data       DataConfig       `yaml:"data"`
	Collection CollectionConfig `yaml:"collection"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// DatabaseConfig holds persistence store settings.
type DatabaseConfig struct {
	Type             string   `yaml:"type"`
	ConnectionString string   `yaml:"connection_string"`
	Timeout          Duration `yaml:"timeout"`
	// MaxRetries is the number of extra attempts after a failed persist.
	MaxRetries    int      `yaml:"max_retries"`
	RetryInterval Duration `yaml:"retry_interval"`
}

// DataConfig holds JSON snapshot file settings.
type DataConfig struct {
	Directory     string `yaml:"directory"`
	RetentionDays int    `yaml:"retention_days"`
}

// CollectionConfig holds fact collection settings.
type CollectionConfig struct {
	Categories []string `yaml:"categories"`
	Parallel   bool     `yaml:"parallel"`
	// Timeout bounds each category.
	Timeout Duration `yaml:"timeout"`
	// Interval is the period between scheduled runs.
	Interval Duration `yaml:"interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// MetricsConfig holds run metrics settings.
type MetricsConfig struct {
	// Textfile is a node-exporter textfile path. Empty disables export.
	Textfile string `yaml:"textfile"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type:             "sqlite",
			ConnectionString: filepath.Join("data", "systems.db"),
			Timeout:          Duration{5 * time.Second},
			MaxRetries:       2,
			RetryInterval:    Duration{1 * time.Second},
		},
		Data: DataConfig{
			Directory:     "data",
			RetentionDays: 365,
		},
		Collection: CollectionConfig{
			Categories: categoryNames(models.AllCategories()),
			Parallel:   true,
			Timeout:    Duration{10 * time.Second},
			Interval:   Duration{1 * time.Hour},
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join("logs", "sysinv.log"),
		},
	}
}

func categoryNames(cats []models.Category) []string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return names
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with defaults.
// Environment variables take precedence over values from the byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return LoadFromBytes(nil)
	}

	return LoadFromBytes(data)
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set" and skipped.
type CLIOverrides struct {
	Hostname         string
	DatabaseType     string
	ConnectionString string
	DataDirectory    string
	LogLevel         string
	Categories       []string
	Sequential       bool
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no external file)
//
// Unlike auto-discovered files, an explicit path must exist.
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	// Layer 1: embedded config (lowest priority data layer)
	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	// Layer 2: external YAML file
	var filePath string
	explicit := len(configPath) > 0
	if explicit {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		case explicit:
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Layer 3: environment variables
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	// Layer 4: CLI flags (highest priority)
	if cli.Hostname != "" {
		cfg.Hostname = cli.Hostname
	}
	if cli.DatabaseType != "" {
		cfg.Database.Type = cli.DatabaseType
	}
	if cli.ConnectionString != "" {
		cfg.Database.ConnectionString = cli.ConnectionString
	}
	if cli.DataDirectory != "" {
		cfg.Data.Directory = cli.DataDirectory
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if len(cli.Categories) > 0 {
		cfg.Collection.Categories = cli.Categories
	}
	if cli.Sequential {
		cfg.Collection.Parallel = false
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies ITAD_* environment variable overrides.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvPrefix + "HOSTNAME"); v != "" {
		cfg.Hostname = v
	}
	if v := os.Getenv(EnvPrefix + "DATABASE_TYPE"); v != "" {
		cfg.Database.Type = v
	}
	if v := os.Getenv(EnvPrefix + "DATABASE_CONNECTION_STRING"); v != "" {
		cfg.Database.ConnectionString = v
	}
	if v := os.Getenv(EnvPrefix + "DATA_DIRECTORY"); v != "" {
		cfg.Data.Directory = v
	}
	if v := os.Getenv(EnvPrefix + "DATA_RETENTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sDATA_RETENTION_DAYS: %w", EnvPrefix, err)
		}
		cfg.Data.RetentionDays = days
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

var databaseTypes = map[string]bool{
	"sqlite": true, "sqlite3": true,
	"postgres": true, "postgresql": true, "pgsql": true,
	"mysql": true, "mariadb": true,
	"sqlserver": true, "mssql": true,
}

// Validate checks that the configuration is usable. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if !databaseTypes[strings.ToLower(c.Database.Type)] {
		errs = append(errs, fmt.Errorf("database.type %q is not one of sqlite, postgres, mysql, sqlserver", c.Database.Type))
	}
	if c.Database.ConnectionString == "" {
		errs = append(errs, errors.New("database.connection_string is required"))
	}
	if c.Database.Timeout.Duration < 0 {
		errs = append(errs, errors.New("database.timeout must not be negative"))
	}
	if c.Database.MaxRetries < 0 {
		errs = append(errs, errors.New("database.max_retries must not be negative"))
	}
	if c.Data.Directory == "" {
		errs = append(errs, errors.New("data.directory is required"))
	}
	if c.Data.RetentionDays < 0 {
		errs = append(errs, errors.New("data.retention_days must not be negative"))
	}
	if _, err := c.CategoryList(); err != nil {
		errs = append(errs, fmt.Errorf("collection.categories: %w", err))
	}
	if c.Collection.Timeout.Duration < 0 {
		errs = append(errs, errors.New("collection.timeout must not be negative"))
	}
	if c.Collection.Interval.Duration <= 0 {
		errs = append(errs, errors.New("collection.interval must be positive"))
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	return errors.Join(errs...)
}

// CategoryList returns the configured categories in order. An empty list
// means every category.
func (c *Config) CategoryList() ([]models.Category, error) {
	return models.ParseCategories(c.Collection.Categories)
}

// ResolveHostname returns the configured hostname, falling back to the OS hostname.
func (c *Config) ResolveHostname() (string, error) {
	if c.Hostname != "" {
		return c.Hostname, nil
	}
	name, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("resolving hostname: %w", err)
	}
	return name, nil
}

// Retention returns the snapshot retention window, zero when retention is disabled.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Data.RetentionDays) * 24 * time.Hour
}
