package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the decoded config.yaml.
type Config struct {
	Server    string       `yaml:"server"`
	Platforms []string     `yaml:"platforms"`
	LogLevel  string       `yaml:"log_level"`
	Store     StoreConfig  `yaml:"store"`
	Limits    LimitsConfig `yaml:"limits"`
	Timing    TimingConfig `yaml:"timing"`

	dir string
}

// StoreConfig selects where drafts are persisted.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// LimitsConfig holds the character counter thresholds.
type LimitsConfig struct {
	Max  int `yaml:"max"`
	Warn int `yaml:"warn"`
}

// TimingConfig holds the controller and autosave delays.
type TimingConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	AutosaveDelay  time.Duration `yaml:"autosave_delay"`
	DismissDelay   time.Duration `yaml:"dismiss_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Default returns the built-in configuration rooted at dir.
func Default(dir string) *Config {
	return &Config{
		Server:    "http://localhost:5000",
		Platforms: []string{"twitter", "zhihu"},
		LogLevel:  "warn",
		Store:     StoreConfig{Backend: BackendFile},
		Limits:    LimitsConfig{Max: 140, Warn: 120},
		Timing: TimingConfig{
			PollInterval:   time.Second,
			AutosaveDelay:  2 * time.Second,
			DismissDelay:   3 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		dir: dir,
	}
}

// Load reads config.yaml at path on top of the defaults, then applies
// environment overrides. A missing file is not an error. The directory
// containing path is used for default store locations.
func Load(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ECHOPOST_SERVER"); v != "" {
		c.Server = v
	}
	if v := os.Getenv("ECHOPOST_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("ECHOPOST_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	c.Server = strings.TrimRight(strings.TrimSpace(c.Server), "/")
	if c.Server == "" {
		return errors.New("config: server must be set")
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = BackendFile
	}
	if !slices.Contains([]string{BackendFile, BackendSQLite, BackendMemory}, c.Store.Backend) {
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Limits.Max <= 0 {
		return fmt.Errorf("config: limits.max must be positive, got %d", c.Limits.Max)
	}
	if c.Limits.Warn < 0 || c.Limits.Warn > c.Limits.Max {
		return fmt.Errorf("config: limits.warn must be between 0 and %d, got %d", c.Limits.Max, c.Limits.Warn)
	}
	for name, d := range map[string]time.Duration{
		"poll_interval":   c.Timing.PollInterval,
		"autosave_delay":  c.Timing.AutosaveDelay,
		"dismiss_delay":   c.Timing.DismissDelay,
		"request_timeout": c.Timing.RequestTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("config: timing.%s must be positive", name)
		}
	}
	return nil
}

// StorePath returns the configured store location, or the default one for
// the backend: <dir>/state for files and <dir>/echopost.db for sqlite.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	switch c.Store.Backend {
	case BackendSQLite:
		return filepath.Join(c.dir, "echopost.db")
	case BackendMemory:
		return ""
	default:
		return filepath.Join(c.dir, "state")
	}
}
