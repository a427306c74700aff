// Package config handles thinkchat configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Storage backends for client-side state.
const (
	StorageSQLite = "sqlite"
	StorageBolt   = "bolt"
)

// Config is the root configuration structure for thinkchat.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// API describes the remote messaging service.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Storage holds local credential storage settings.
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`

	// Timeline controls message grouping and timestamp labels.
	Timeline TimelineConfig `yaml:"timeline" mapstructure:"timeline"`

	// DevServer configures the in-memory development API.
	DevServer DevServerConfig `yaml:"devserver" mapstructure:"devserver"`
}

// GlobalConfig contains global settings.
type GlobalConfig struct {
	// DataDir is where thinkchat stores its data (default: ~/.local/share/thinkchat).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/thinkchat).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// APIConfig contains remote API settings.
type APIConfig struct {
	// BaseURL is the scheme and host serving /api/*.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Token, when set, overrides the stored bearer token.
	Token string `yaml:"token" mapstructure:"token"`
}

// StorageConfig contains local storage settings.
type StorageConfig struct {
	// Backend is sqlite or bolt.
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Path is the database file (default: DataDir/thinkchat.db or thinkchat.bolt).
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeoutMs is how long to wait for a locked SQLite database.
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. The TUI only logs when it is set.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// RefreshInterval is how often the open thread is re-fetched.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`
}

// TimelineConfig contains message grouping settings.
type TimelineConfig struct {
	// GroupWindow is the largest gap that keeps same-sender messages grouped.
	// Zero means one minute.
	GroupWindow time.Duration `yaml:"group_window" mapstructure:"group_window"`

	// ClockFormat is a Go time layout for timestamp labels.
	ClockFormat string `yaml:"clock_format" mapstructure:"clock_format"`

	// Location is an IANA zone name for labels; empty means local time.
	Location string `yaml:"location" mapstructure:"location"`
}

// DevServerConfig contains development server settings.
type DevServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr" mapstructure:"addr"`

	// Seed loads demo accounts and conversations on start.
	Seed bool `yaml:"seed" mapstructure:"seed"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "thinkchat"),
			ConfigDir: filepath.Join(homeDir, ".config", "thinkchat"),
		},
		API: APIConfig{
			BaseURL:   "http://localhost:8080",
			Timeout:   15 * time.Second,
			UserAgent: "thinkchat",
		},
		Storage: StorageConfig{
			Backend:       StorageSQLite,
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TUI: TUIConfig{
			RefreshInterval: 5 * time.Second,
			Theme:           "default",
		},
		Timeline: TimelineConfig{
			GroupWindow: time.Minute,
			ClockFormat: "3:04 PM",
		},
		DevServer: DevServerConfig{
			Addr: "127.0.0.1:8080",
			Seed: true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	parsed, err := url.Parse(strings.TrimSpace(c.API.BaseURL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	switch c.Storage.Backend {
	case StorageSQLite, StorageBolt:
	default:
		return fmt.Errorf("storage.backend must be one of sqlite, bolt")
	}
	if c.Storage.BusyTimeoutMs < 0 {
		return fmt.Errorf("storage.busy_timeout_ms must not be negative")
	}

	if c.TUI.RefreshInterval < 500*time.Millisecond {
		return fmt.Errorf("tui.refresh_interval must be at least 500ms")
	}
	switch c.TUI.Theme {
	case "default", "high-contrast":
	default:
		return fmt.Errorf("tui.theme must be one of default, high-contrast")
	}

	if c.Timeline.GroupWindow < 0 {
		return fmt.Errorf("timeline.group_window must not be negative")
	}
	if _, err := c.TimelineLocation(); err != nil {
		return err
	}

	return nil
}

// TimelineLocation resolves Timeline.Location, defaulting to local time.
func (c *Config) TimelineLocation() (*time.Location, error) {
	name := strings.TrimSpace(c.Timeline.Location)
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timeline.location: %w", err)
	}
	return loc, nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Global.DataDir, c.Global.ConfigDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// StoragePath returns the full path of the local store for the configured backend.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	if c.Storage.Backend == StorageBolt {
		return filepath.Join(c.Global.DataDir, "thinkchat.bolt")
	}
	return filepath.Join(c.Global.DataDir, "thinkchat.db")
}

// ContextPath returns where the current-conversation context is kept.
func (c *Config) ContextPath() string {
	return filepath.Join(c.Global.ConfigDir, "context.yaml")
}
