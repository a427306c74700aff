package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "THINKCHAT"

// envBindings lists every key that may be overridden by a THINKCHAT_* variable.
var envBindings = []string{
	"global.data_dir",
	"global.config_dir",
	"api.base_url",
	"api.timeout",
	"api.user_agent",
	"api.token",
	"storage.backend",
	"storage.path",
	"storage.busy_timeout_ms",
	"logging.level",
	"logging.format",
	"logging.file",
	"logging.enable_caller",
	"tui.refresh_interval",
	"tui.theme",
	"timeline.group_window",
	"timeline.clock_format",
	"timeline.location",
	"devserver.addr",
	"devserver.seed",
}

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with precedence
// defaults < config file < env vars < values set via Set (CLI flags).
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) setupViper(cfg *Config) {
	v := l.v
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "thinkchat"))
	}
	if homeDir, _ := os.UserHomeDir(); homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "thinkchat"))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v, cfg)
	for _, key := range envBindings {
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("global.data_dir", cfg.Global.DataDir)
	v.SetDefault("global.config_dir", cfg.Global.ConfigDir)

	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("api.token", cfg.API.Token)

	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("storage.busy_timeout_ms", cfg.Storage.BusyTimeoutMs)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.enable_caller", cfg.Logging.EnableCaller)

	v.SetDefault("tui.refresh_interval", cfg.TUI.RefreshInterval)
	v.SetDefault("tui.theme", cfg.TUI.Theme)

	v.SetDefault("timeline.group_window", cfg.Timeline.GroupWindow)
	v.SetDefault("timeline.clock_format", cfg.Timeline.ClockFormat)
	v.SetDefault("timeline.location", cfg.Timeline.Location)

	v.SetDefault("devserver.addr", cfg.DevServer.Addr)
	v.SetDefault("devserver.seed", cfg.DevServer.Seed)
}

// loadConfigFile reads the config file. A missing file is only an error when
// one was requested explicitly.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && l.configFile == "" {
			return nil
		}
		return err
	}
	return nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Set overrides a key, taking precedence over file and environment.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// LoadDefault loads configuration with default search paths.
func LoadDefault() (*Config, error) {
	return NewLoader().Load()
}

func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func expandPaths(cfg *Config) {
	cfg.Global.DataDir = expandTilde(cfg.Global.DataDir)
	cfg.Global.ConfigDir = expandTilde(cfg.Global.ConfigDir)
	cfg.Storage.Path = expandTilde(cfg.Storage.Path)
	cfg.Logging.File = expandTilde(cfg.Logging.File)
}
