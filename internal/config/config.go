// Package config holds the user configuration for gitui-go. Values are
// layered by viper: defaults, then the YAML config file, then GITUI_GO_*
// environment variables, then command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Backend names accepted by the backend key.
const (
	BackendCLI    = "cli"
	BackendNative = "native"
)

// Theme names accepted by the theme key.
const (
	ThemeAuto  = "auto"
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// EnvPrefix is the prefix for environment overrides, e.g. GITUI_GO_WORKERS.
const EnvPrefix = "GITUI_GO"

// Config is the decoded configuration. It is treated as immutable once the
// program starts.
type Config struct {
	Workers            int                 `mapstructure:"workers"`
	LogPageSize        int                 `mapstructure:"log_page_size"`
	TickInterval       time.Duration       `mapstructure:"tick_interval"`
	AutoReload         bool                `mapstructure:"auto_reload"`
	AutoReloadDebounce time.Duration       `mapstructure:"auto_reload_debounce"`
	DiffDebounce       time.Duration       `mapstructure:"diff_debounce"`
	GenerationLimit    uint64              `mapstructure:"generation_limit"` // zero: counters never reset
	SyntaxHighlight    bool                `mapstructure:"syntax_highlight"`
	Theme              string              `mapstructure:"theme"`
	Backend            string              `mapstructure:"backend"`
	LogFile            string              `mapstructure:"log_file"`
	Verbose            bool                `mapstructure:"verbose"`
	Keys               map[string][]string `mapstructure:"keys"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Workers:            3,
		LogPageSize:        200,
		TickInterval:       5 * time.Second,
		AutoReload:         true,
		AutoReloadDebounce: 350 * time.Millisecond,
		DiffDebounce:       120 * time.Millisecond,
		SyntaxHighlight:    true,
		Theme:              ThemeAuto,
		Backend:            BackendCLI,
	}
}

// DefaultLogFile is used when log_file is empty.
func DefaultLogFile() string {
	return filepath.Join(os.TempDir(), "gitui-go.log")
}

// DefaultPath returns ~/.config/gitui-go/config.yaml, honouring
// XDG_CONFIG_HOME through os.UserConfigDir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "gitui-go", "config.yaml")
}

// SetDefaults registers Defaults on v so that env and flag lookups see
// every key.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("workers", d.Workers)
	v.SetDefault("log_page_size", d.LogPageSize)
	v.SetDefault("tick_interval", d.TickInterval)
	v.SetDefault("auto_reload", d.AutoReload)
	v.SetDefault("auto_reload_debounce", d.AutoReloadDebounce)
	v.SetDefault("diff_debounce", d.DiffDebounce)
	v.SetDefault("generation_limit", d.GenerationLimit)
	v.SetDefault("syntax_highlight", d.SyntaxHighlight)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("log_file", "")
	v.SetDefault("verbose", false)
}

// Load reads the config file at path (or the default location when path
// is empty) into v and decodes the result. A missing default config file
// is not an error; a missing explicit one is.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		def := DefaultPath()
		v.AddConfigPath(filepath.Dir(def))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.LogPageSize < 1 {
		return fmt.Errorf("log_page_size must be at least 1, got %d", c.LogPageSize)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.AutoReloadDebounce < 0 {
		return fmt.Errorf("auto_reload_debounce must not be negative, got %s", c.AutoReloadDebounce)
	}
	if c.DiffDebounce < 0 {
		return fmt.Errorf("diff_debounce must not be negative, got %s", c.DiffDebounce)
	}
	switch c.Theme {
	case ThemeAuto, ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("unknown theme %q (want auto, light or dark)", c.Theme)
	}
	switch c.Backend {
	case BackendCLI, BackendNative:
	default:
		return fmt.Errorf("unknown backend %q (want cli or native)", c.Backend)
	}
	return nil
}
