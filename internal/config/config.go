package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neboloop/pageverify/internal/browser"
	"github.com/neboloop/pageverify/internal/defaults"
	"github.com/neboloop/pageverify/internal/verify"
)

// Config is the full pageverify configuration.
type Config struct {
	verify.Plan `yaml:",inline"`

	Browser browser.Options `yaml:"browser"`
	History HistoryConfig   `yaml:"history"`
	Report  ReportConfig    `yaml:"report"`
	Log     LogConfig       `yaml:"log"`
	Watch   WatchConfig     `yaml:"watch"`

	// Source is the file the config was read from; empty for the embedded defaults
	Source string `yaml:"-"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ReportConfig controls the run report.
type ReportConfig struct {
	Path string `yaml:"path"`
	HTML bool   `yaml:"html"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// WatchConfig controls re-run triggers.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Cron     string        `yaml:"cron"`
}

// LoadFromBytes loads configuration from YAML bytes with environment variable expansion
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	if err := mergeYAML(&c, data); err != nil {
		return c, err
	}
	return c, nil
}

// Default returns the embedded defaults without reading any file.
func Default() (Config, error) {
	c, err := LoadFromBytes(defaults.DefaultConfig())
	if err != nil {
		return c, fmt.Errorf("embedded config: %w", err)
	}
	return c, nil
}

// Load returns the embedded defaults overlaid with the file at path. An empty
// path falls back to the user config file when one exists.
func Load(path string) (Config, error) {
	c, err := Default()
	if err != nil {
		return c, err
	}

	explicit := path != ""
	if !explicit {
		path = defaults.UserConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !explicit:
		return c, nil
	default:
		return c, fmt.Errorf("read config: %w", err)
	}

	// Checks in the file replace the default list rather than merging into it
	c.Checks = nil
	if err := mergeYAML(&c, data); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(c.Checks) == 0 {
		c.Checks = verify.DefaultChecks()
	}
	c.Source = path
	return c, nil
}

// mergeYAML decodes data over c. Keys absent from data keep their values.
func mergeYAML(c *Config, data []byte) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		// An empty document decodes to io.EOF
		if strings.TrimSpace(expanded) == "" {
			return nil
		}
		return err
	}
	return nil
}

// Validate checks the configuration before anything runs.
func (c Config) Validate() error {
	if err := c.Plan.Validate(); err != nil {
		return err
	}
	if _, err := browser.ResolveOptions(c.Browser); err != nil {
		return err
	}
	if c.Browser.NavigationTimeout < 0 {
		return fmt.Errorf("browser.navigationTimeout must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log.format %q", c.Log.Format)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if c.Report.HTML && c.Report.Path == "" {
		return fmt.Errorf("report.html requires report.path")
	}
	return nil
}

// HistoryPath returns the history database path.
func (c Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(defaults.DataDir(), "history.db")
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
