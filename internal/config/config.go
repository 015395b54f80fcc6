package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/RakanEX/finance-db-pyscript/internal/model"
)

// FileName is the project configuration file written by init.
const FileName = "finance-db.yaml"

// Environment variables consulted after the file is loaded.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvPassword    = "FINANCE_DB_PASS"
)

// DefaultTable is the fact table name when none is configured.
const DefaultTable = "accounting_table"

// Config represents the top-level finance-db.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig locates the fact store. URL wins over the discrete fields.
type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Name    string `yaml:"name"`
	User    string `yaml:"user"`
	SSLMode string `yaml:"sslmode"`
	Table   string `yaml:"table"`

	// Password is never written to disk.
	Password string `yaml:"-"`
}

// IngestConfig holds defaults for ingest and import runs.
type IngestConfig struct {
	Variant     string `yaml:"variant"`
	Scenario    string `yaml:"scenario"`
	MappingFile string `yaml:"mapping_file"`
	ImportDir   string `yaml:"import_dir"`
}

// LoggingConfig sets the default log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a finance-db.yaml file from disk. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := model.ParseVariant(cfg.Ingest.Variant); err != nil {
		return nil, fmt.Errorf("parsing config: ingest.variant: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			Name:    "postgres",
			User:    "postgres",
			SSLMode: "disable",
			Table:   DefaultTable,
		},
		Ingest: IngestConfig{
			Variant:     string(model.VariantIncomeMonthly),
			Scenario:    model.DefaultScenario,
			MappingFile: "mappings/entities.csv",
			ImportDir:   "import",
		},
		Logging: LoggingConfig{
			Level: "error",
		},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment settings onto the database config.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvDatabaseURL); v != "" {
		c.Database.URL = v
	}
	if v := getenv(EnvPassword); v != "" {
		c.Database.Password = v
	}
}

// DSN returns the Postgres connection URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else if d.User != "" {
		u.User = url.User(d.User)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// TableName returns the configured table or DefaultTable.
func (d DatabaseConfig) TableName() string {
	if d.Table == "" {
		return DefaultTable
	}
	return d.Table
}
