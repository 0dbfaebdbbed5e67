// Package config holds the viper-backed configuration: server coordinates,
// polling, follow behavior, logging and history knobs. Values come from
// defaults, an optional YAML file and BUILDWATCH_* environment variables,
// in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete buildwatch configuration.
type Config struct {
	// Server is the CI server base URL, e.g. "https://ci.example.com".
	Server string `mapstructure:"server"`
	// Token is the API bearer token; empty for anonymous read access.
	Token string `mapstructure:"token"`
	// Refresh is the poll interval for build and step snapshots.
	Refresh time.Duration `mapstructure:"refresh"`

	Follow  FollowConfig  `mapstructure:"follow"`
	Logging LoggingConfig `mapstructure:"logging"`
	History HistoryConfig `mapstructure:"history"`
}

// FollowConfig controls follow and expand behavior.
type FollowConfig struct {
	// AutoExpand starts build views with build-wide follow on, so steps
	// open as soon as they start running.
	AutoExpand bool `mapstructure:"auto_expand"`
}

// LoggingConfig controls the debug log file. The TUI owns the terminal,
// so logs can only go to a file.
type LoggingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Level is "debug", "info", "warn" or "error".
	Level string `mapstructure:"level"`
	// File overrides the default log path under the config directory.
	File string `mapstructure:"file"`
}

// HistoryConfig controls the local record of watched builds.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Path overrides the default database path under the config directory.
	Path string `mapstructure:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:  "",
		Token:   "",
		Refresh: 2 * time.Second,
		Follow: FollowConfig{
			AutoExpand: false,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
			File:    "",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "",
		},
	}
}

// SetDefaults registers every key with viper so file and environment
// overrides resolve against a complete key set.
func SetDefaults() {
	d := Default()
	viper.SetDefault("server", d.Server)
	viper.SetDefault("token", d.Token)
	viper.SetDefault("refresh", d.Refresh)
	viper.SetDefault("follow.auto_expand", d.Follow.AutoExpand)
	viper.SetDefault("logging.enabled", d.Logging.Enabled)
	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.file", d.Logging.File)
	viper.SetDefault("history.enabled", d.History.Enabled)
	viper.SetDefault("history.path", d.History.Path)
}

// Load reads the current viper state into a validated Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.Refresh < 500*time.Millisecond {
		return fmt.Errorf("refresh interval %s is below the 500ms minimum", c.Refresh)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", c.Logging.Level)
	}
	return nil
}

// Dir returns the buildwatch config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "buildwatch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".buildwatch"
	}
	return filepath.Join(home, ".config", "buildwatch")
}

// File returns the default config file path.
func File() string {
	return filepath.Join(Dir(), "config.yaml")
}

// ResolveFile returns the log file path, defaulting under the config
// directory.
func (l LoggingConfig) ResolveFile() string {
	if l.File != "" {
		return l.File
	}
	return filepath.Join(Dir(), "bw.log")
}

// ResolvePath returns the history database path, defaulting under the
// config directory.
func (h HistoryConfig) ResolvePath() string {
	if h.Path != "" {
		return h.Path
	}
	return filepath.Join(Dir(), "history.db")
}
