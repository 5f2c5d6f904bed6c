package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/backoffice/internal/importer"
)

// FileName is the workspace config file.
const FileName = "backoffice.yaml"

// Config represents the top-level backoffice.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business"`
	Store    StoreConfig    `yaml:"store"`
	Import   ImportConfig   `yaml:"import"`
	Export   ExportConfig   `yaml:"export"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
	Git      GitConfig      `yaml:"git"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name       string `yaml:"name"`
	EntityType string `yaml:"entity_type"`
}

// StoreConfig selects the record database.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "pgx"
	DSN    string `yaml:"dsn"`
}

// ImportConfig tunes batch imports.
type ImportConfig struct {
	MaxDisplayErrors int     `yaml:"max_display_errors"`
	SubmitRate       float64 `yaml:"submit_rate"` // records per second, 0 = unlimited
}

// ExportConfig controls where exports are written.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Environment overrides, applied after the YAML file and .env are read.
const (
	EnvStoreDriver = "BACKOFFICE_STORE_DRIVER"
	EnvStoreDSN    = "BACKOFFICE_STORE_DSN"
	EnvLogLevel    = "BACKOFFICE_LOG_LEVEL"
	EnvLogFormat   = "BACKOFFICE_LOG_FORMAT"
	EnvServerAddr  = "BACKOFFICE_SERVER_ADDR"
)

// Load reads a backoffice.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.fillDefaults()
	return &cfg, nil
}

// LoadRepo reads a workspace's config, its optional .env file and the
// environment overrides, then validates the result. Variables already set
// in the process environment win over .env.
func LoadRepo(repoRoot string) (*Config, error) {
	cfg, err := Load(filepath.Join(repoRoot, FileName))
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(filepath.Join(repoRoot, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	cfg.ApplyEnv()

	if cfg.Store.Driver == "sqlite" && !filepath.IsAbs(cfg.Store.DSN) && !isSpecialDSN(cfg.Store.DSN) {
		cfg.Store.DSN = filepath.Join(repoRoot, cfg.Store.DSN)
	}
	if !filepath.IsAbs(cfg.Export.Dir) {
		cfg.Export.Dir = filepath.Join(repoRoot, cfg.Export.Dir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from BACKOFFICE_* environment variables.
func (c *Config) ApplyEnv() {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Store.Driver, EnvStoreDriver)
	set(&c.Store.DSN, EnvStoreDSN)
	set(&c.Logging.Level, EnvLogLevel)
	set(&c.Logging.Format, EnvLogFormat)
	set(&c.Server.Addr, EnvServerAddr)
}

// Validate rejects configs the commands cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("store.driver: unsupported driver %q (use sqlite or pgx)", c.Store.Driver)
	}
	if strings.TrimSpace(c.Store.DSN) == "" {
		return errors.New("store.dsn: required")
	}
	if c.Import.MaxDisplayErrors < 0 {
		return fmt.Errorf("import.max_display_errors: must not be negative, got %d", c.Import.MaxDisplayErrors)
	}
	if c.Import.SubmitRate < 0 {
		return fmt.Errorf("import.submit_rate: must not be negative, got %g", c.Import.SubmitRate)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported format %q (use console or json)", c.Logging.Format)
	}
	return nil
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
func Default(businessName, entityType string) *Config {
	cfg := &Config{
		Business: BusinessConfig{
			Name:       businessName,
			EntityType: entityType,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Backoffice",
			AuthorEmail: "backoffice@cleared.dev",
		},
	}
	cfg.fillDefaults()
	return cfg
}

// fillDefaults sets zero-valued fields that have a default.
func (c *Config) fillDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.DSN == "" && c.Store.Driver == "sqlite" {
		c.Store.DSN = "backoffice.db"
	}
	if c.Import.MaxDisplayErrors == 0 {
		c.Import.MaxDisplayErrors = importer.DefaultDisplayLimit
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "exports"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

func isSpecialDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file:")
}
