package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Guliveer/sysinv/internal/models"
)

func TestLoadLayered_CLIOverridesEverything(t *testing.T) {
	embedded := []byte("database:\n  type: postgres\n  connection_string: \"host=embedded\"\nhostname: embedded-host")
	t.Setenv("ITAD_DATABASE_CONNECTION_STRING", "host=env")
	t.Setenv("ITAD_HOSTNAME", "env-host")
	cli := CLIOverrides{ConnectionString: "host=cli", Hostname: "cli-host"}

	cfg, err := LoadLayered(cli, embedded, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.ConnectionString != "host=cli" {
		t.Errorf("ConnectionString = %q, want CLI override", cfg.Database.ConnectionString)
	}
	if cfg.Hostname != "cli-host" {
		t.Errorf("Hostname = %q, want CLI override", cfg.Hostname)
	}
	if cfg.Database.Type != "postgres" {
		t.Errorf("Type = %q, want embedded value", cfg.Database.Type)
	}
}

func TestLoadLayered_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sysinv.yaml")
	if err := os.WriteFile(path, []byte("data:\n  directory: /from/file\n  retention_days: 30\nlogging:\n  level: warn\n"), 0640); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ITAD_DATA_DIRECTORY", "/from/env")
	t.Setenv("ITAD_LOG_LEVEL", "debug")

	cfg, err := LoadLayered(CLIOverrides{}, nil, path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Data.Directory != "/from/env" {
		t.Errorf("Directory = %q, want env override", cfg.Data.Directory)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want env override", cfg.Logging.Level)
	}
	if cfg.Data.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d, want file value", cfg.Data.RetentionDays)
	}
}

func TestLoadLayered_InvalidRetentionEnv(t *testing.T) {
	t.Setenv("ITAD_DATA_RETENTION_DAYS", "a year")

	if _, err := LoadLayered(CLIOverrides{}, nil, ""); err == nil {
		t.Fatal("expected error for non-numeric retention")
	}
}

func TestLoadLayered_MissingExplicitFile(t *testing.T) {
	_, err := LoadLayered(CLIOverrides{}, nil, filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadLayered_DefaultsWhenEmpty(t *testing.T) {
	cfg, err := LoadLayered(CLIOverrides{}, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Type = %q, want sqlite default", cfg.Database.Type)
	}
	if cfg.Database.Timeout.Duration != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s default", cfg.Database.Timeout.Duration)
	}
	if cfg.Data.RetentionDays != 365 {
		t.Errorf("RetentionDays = %d, want 365 default", cfg.Data.RetentionDays)
	}
	cats, err := cfg.CategoryList()
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != len(models.AllCategories()) {
		t.Errorf("Categories = %v, want all", cats)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadLayered_CategoriesFromCLI(t *testing.T) {
	cfg, err := LoadLayered(CLIOverrides{Categories: []string{"GPU", "cpu", "gpu"}, Sequential: true}, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	cats, err := cfg.CategoryList()
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 || cats[0] != models.CategoryGPU || cats[1] != models.CategoryCPU {
		t.Errorf("Categories = %v, want [gpu cpu]", cats)
	}
	if cfg.Collection.Parallel {
		t.Error("Parallel should be disabled by Sequential override")
	}
}

func TestDurationYAML(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("database:\n  timeout: 250ms\ncollection:\n  interval: 2h\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Timeout.Duration != 250*time.Millisecond {
		t.Errorf("Timeout = %v, want 250ms", cfg.Database.Timeout.Duration)
	}
	if cfg.Collection.Interval.Duration != 2*time.Hour {
		t.Errorf("Interval = %v, want 2h", cfg.Collection.Interval.Duration)
	}

	if _, err := LoadFromBytes([]byte("database:\n  timeout: soon\n")); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"alias type", func(c *Config) { c.Database.Type = "PostgreSQL" }, ""},
		{"unknown type", func(c *Config) { c.Database.Type = "oracle" }, "database.type"},
		{"empty dsn", func(c *Config) { c.Database.ConnectionString = "" }, "connection_string"},
		{"negative retention", func(c *Config) { c.Data.RetentionDays = -1 }, "retention_days"},
		{"negative retries", func(c *Config) { c.Database.MaxRetries = -1 }, "max_retries"},
		{"unknown category", func(c *Config) { c.Collection.Categories = []string{"cpu", "fan"} }, "collection.categories"},
		{"zero interval", func(c *Config) { c.Collection.Interval = Duration{} }, "interval"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolveHostname(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hostname = "override"
	if got, _ := cfg.ResolveHostname(); got != "override" {
		t.Errorf("ResolveHostname = %q, want override", got)
	}

	cfg.Hostname = ""
	got, err := cfg.ResolveHostname()
	if err != nil {
		t.Fatal(err)
	}
	if want, _ := os.Hostname(); got != want {
		t.Errorf("ResolveHostname = %q, want %q", got, want)
	}
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Database.Type = "mysql"
	cfg.Database.Timeout = Duration{3 * time.Second}

	if err := WriteConfig(cfg, path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Database.Type != "mysql" || loaded.Database.Timeout.Duration != 3*time.Second {
		t.Errorf("loaded %+v, want written values", loaded.Database)
	}
}
