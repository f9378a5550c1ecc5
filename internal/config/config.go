package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/MKlolbullen/bhtriage/internal/query"
	"github.com/MKlolbullen/bhtriage/internal/report"
)

// Server holds settings for the HTTP API.
type Server struct {
	Addr        string        `yaml:"addr"`
	DataDir     string        `yaml:"data_dir"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	MaxUploadMB int64         `yaml:"max_upload_mb"`
}

// Config is the top-level configuration for bhtriage.
type Config struct {
	// Limit is the per-list display limit: a non-negative integer or ":" for all.
	Limit                 string `yaml:"limit"`
	Filter                string `yaml:"filter"`
	ExcludePrivilegedDest bool   `yaml:"exclude_privileged_destinations"`
	Tiers                 string `yaml:"tiers"`
	Format                string `yaml:"format"`
	OutputDir             string `yaml:"output_dir"`
	LogLevel              string `yaml:"log_level"`
	Server                Server `yaml:"server"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() *Config {
	return &Config{
		Limit:    ":",
		Format:   string(report.FormatTable),
		LogLevel: "info",
		Server: Server{
			Addr:        "127.0.0.1:8088",
			DataDir:     defaultDataDir(),
			CacheTTL:    30 * time.Minute,
			MaxUploadMB: 256,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bhtriage-data"
	}
	return filepath.Join(home, ".local", "share", "bhtriage")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "bhtriage", "config.yaml"), nil
}

// Load reads the YAML config at path (the default location when empty),
// applies a .env file from the working directory if present, then
// BHTRIAGE_* environment overrides. A missing config file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return LoadFrom(afero.NewOsFs(), path, os.Getenv)
}

// LoadFrom is Load over an arbitrary filesystem and environment lookup.
func LoadFrom(fsys afero.Fs, path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(fsys, path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set("BHTRIAGE_LIMIT", &c.Limit)
	set("BHTRIAGE_FILTER", &c.Filter)
	set("BHTRIAGE_TIERS", &c.Tiers)
	set("BHTRIAGE_FORMAT", &c.Format)
	set("BHTRIAGE_OUTPUT_DIR", &c.OutputDir)
	set("BHTRIAGE_LOG_LEVEL", &c.LogLevel)
	set("BHTRIAGE_ADDR", &c.Server.Addr)
	set("BHTRIAGE_DATA_DIR", &c.Server.DataDir)

	if v := getenv("BHTRIAGE_EXCLUDE_PRIVILEGED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BHTRIAGE_EXCLUDE_PRIVILEGED: %w", err)
		}
		c.ExcludePrivilegedDest = b
	}
	return nil
}

// Validate checks the display settings, log level and upload cap.
func (c *Config) Validate() error {
	if _, err := query.ParseLimit(c.Limit); err != nil {
		return err
	}
	if _, err := query.ParseTiers(c.Tiers); err != nil {
		return err
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	return nil
}

// QueryOptions converts the display settings into query options.
func (c *Config) QueryOptions() (query.Options, error) {
	limit, err := query.ParseLimit(c.Limit)
	if err != nil {
		return query.Options{}, err
	}
	tiers, err := query.ParseTiers(c.Tiers)
	if err != nil {
		return query.Options{}, err
	}
	return query.Options{
		Filter:                c.Filter,
		ExcludePrivilegedDest: c.ExcludePrivilegedDest,
		Limit:                 limit,
		Tiers:                 tiers,
	}, nil
}

func (c *Config) OutputFormat() (report.Format, error) {
	return report.ParseFormat(c.Format)
}

func (c *Config) SlogLevel() (slog.Level, error) {
	name := strings.TrimSpace(c.LogLevel)
	if name == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
