// Package config loads the YAML description of an asset bundle project and
// turns it into a bundle registry.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/events"
	"git.home.luguber.info/inful/assetbuilder/internal/retry"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "assets.yaml"

// Config represents the application configuration.
type Config struct {
	Version string                  `yaml:"version"`
	Host    HostConfig              `yaml:"host"`
	Build   BuildConfig             `yaml:"build"`
	Logging LoggingConfig           `yaml:"logging"`
	Metrics MetricsConfig           `yaml:"metrics,omitempty"`
	Events  EventsConfig            `yaml:"events,omitempty"`
	Watch   WatchConfig             `yaml:"watch,omitempty"`
	Filters map[string][]StepConfig `yaml:"filters,omitempty"`
	Bundles map[string]BundleConfig `yaml:"bundles"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// HostConfig holds the defaults bundles inherit.
type HostConfig struct {
	BaseDir   string `yaml:"base_dir"`
	URLPrefix string `yaml:"url_prefix"`
	Debug     bool   `yaml:"debug"`
}

// BuildConfig tunes the build pipeline.
type BuildConfig struct {
	FilterTimeout time.Duration `yaml:"filter_timeout"`
	Manifest      string        `yaml:"manifest,omitempty"`
	// History, when set, is a SQLite database recording every built bundle.
	History       string        `yaml:"history,omitempty"`
}

// LoggingConfig selects log verbosity and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// EventsConfig configures build event publishing. Empty NATSURL disables it.
type EventsConfig struct {
	NATSURL  string `yaml:"nats_url,omitempty"`
	Subject  string `yaml:"subject,omitempty"`
	Stream   string `yaml:"stream,omitempty"`
	KVBucket string `yaml:"kv_bucket,omitempty"`

	RetryBackoff string        `yaml:"retry_backoff,omitempty"`
	RetryInitial time.Duration `yaml:"retry_initial,omitempty"`
	RetryMax     time.Duration `yaml:"retry_max,omitempty"`
	MaxRetries   *int          `yaml:"max_retries,omitempty"`
}

// Enabled reports whether events should be published.
func (e EventsConfig) Enabled() bool { return e.NATSURL != "" }

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
	// Interval, when non-zero, triggers a full build pass periodically.
	Interval time.Duration `yaml:"interval,omitempty"`
}

// StepConfig declares one filter step.
type StepConfig struct {
	Command string `yaml:"command"`
	Mode    string `yaml:"mode,omitempty"`
}

// BundleConfig declares one named bundle.
type BundleConfig struct {
	Contents  []ContentConfig `yaml:"contents"`
	Output    string          `yaml:"output,omitempty"`
	Filters   []string        `yaml:"filters,omitempty"`
	CacheFile string          `yaml:"cache_file,omitempty"`
	BaseDir   string          `yaml:"base_dir,omitempty"`
	URLPrefix string          `yaml:"url_prefix,omitempty"`
	Debug     *bool           `yaml:"debug,omitempty"`
	Build     *bool           `yaml:"build,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return nil, aerrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, aerrors.ConfigInvalid(configPath, fmt.Errorf("failed to read config file: %w", err))
	}

	dir, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, aerrors.ConfigInvalid(configPath, err)
	}

	cfg, err := Parse(data, dir)
	if err != nil {
		if _, ok := aerrors.As(err); ok {
			return nil, err
		}
		return nil, aerrors.ConfigInvalid(configPath, err)
	}
	return cfg, nil
}

// Parse decodes, defaults and validates configuration. Relative paths are
// resolved against dir. Environment variables in the YAML are expanded.
func Parse(data []byte, dir string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.dir = dir

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.Host.BaseDir == "" {
		cfg.Host.BaseDir = "."
	}
	if cfg.Host.URLPrefix == "" {
		cfg.Host.URLPrefix = "/static"
	}
	if cfg.Build.FilterTimeout == 0 {
		cfg.Build.FilterTimeout = 60 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = string(LogLevelInfo)
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = string(LogFormatText)
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = events.DefaultSubject
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

// Dir returns the directory relative paths are resolved against.
func (c *Config) Dir() string { return c.dir }

// Resolve makes p absolute relative to the configuration directory.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

// BaseDir returns the absolute host base directory.
func (c *Config) BaseDir() string { return c.Resolve(c.Host.BaseDir) }

// ManifestPath returns the absolute manifest path, "" when disabled.
func (c *Config) ManifestPath() string { return c.Resolve(c.Build.Manifest) }

// HistoryPath returns the absolute build history database path, "" when disabled.
func (c *Config) HistoryPath() string { return c.Resolve(c.Build.History) }

// MetricsTextfile returns the absolute metrics textfile path, "" when disabled.
func (c *Config) MetricsTextfile() string { return c.Resolve(c.Metrics.Textfile) }

// RetryPolicy returns the backoff policy for publishing events.
func (e EventsConfig) RetryPolicy() retry.Policy {
	mode, _ := retry.ParseMode(e.RetryBackoff)
	retries := -1
	if e.MaxRetries != nil {
		retries = *e.MaxRetries
	}
	return retry.NewPolicy(mode, e.RetryInitial, e.RetryMax, retries)
}

// EventSettings returns the publisher settings.
func (c *Config) EventSettings() events.Config {
	return events.Config{
		URL:      c.Events.NATSURL,
		Subject:  c.Events.Subject,
		Stream:   c.Events.Stream,
		KVBucket: c.Events.KVBucket,
	}
}
