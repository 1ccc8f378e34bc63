// Package config loads the player and server configuration from a YAML
// file, SIGNAGE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment override, e.g.
// SIGNAGE_SERVER_SQL_PATH.
const EnvPrefix = "SIGNAGE"

// Config holds all application configuration
type Config struct {
	DataDir   string          `mapstructure:"data_dir"`
	Player    PlayerConfig    `mapstructure:"player"`
	Server    ServerConfig    `mapstructure:"server"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PlayerConfig holds slideshow and display configuration
type PlayerConfig struct {
	SlideInterval time.Duration `mapstructure:"slide_interval"`
	Layout        string        `mapstructure:"layout"` // preset name or layout file
	ScreenWidth   int           `mapstructure:"screen_width"`
	ScreenHeight  int           `mapstructure:"screen_height"`
	WatchDir      string        `mapstructure:"watch_dir"`   // folder imported into WatchGroup
	WatchGroup    string        `mapstructure:"watch_group"`
	Group         string        `mapstructure:"group"` // group selected at start
	Autoplay      bool          `mapstructure:"autoplay"`
}

// ServerConfig holds the inventory endpoint configuration
type ServerConfig struct {
	Listen   string        `mapstructure:"listen"`
	KVPath   string        `mapstructure:"kv_path"`  // bbolt cache / list database
	SQLPath  string        `mapstructure:"sql_path"` // sqlite inventory table
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// InventoryConfig holds the inventory client configuration
type InventoryConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File        string `mapstructure:"file"`
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// StorePath is the bbolt file holding the persisted groups.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "signage.db")
}

// DefaultDataDir returns the default data directory for the current OS
func DefaultDataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "signage")
	default:
		if d := os.Getenv("XDG_DATA_HOME"); d != "" {
			return filepath.Join(d, "signage")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "signage")
	}
}

// DefaultConfigDir returns the directory searched for config.yaml
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "signage")
	default:
		if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
			return filepath.Join(d, "signage")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "signage")
	}
}

// NewViper returns a viper instance with defaults and environment
// overrides registered. Callers bind flags on it before Load.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("data_dir", DefaultDataDir())

	v.SetDefault("player.slide_interval", 5*time.Second)
	v.SetDefault("player.layout", "fullscreen")
	v.SetDefault("player.screen_width", 1920)
	v.SetDefault("player.screen_height", 1080)
	v.SetDefault("player.watch_dir", "")
	v.SetDefault("player.watch_group", "Local")
	v.SetDefault("player.group", "")
	v.SetDefault("player.autoplay", false)

	v.SetDefault("server.listen", ":3001")
	v.SetDefault("server.kv_path", "")
	v.SetDefault("server.sql_path", "")
	v.SetDefault("server.cache_ttl", 300*time.Second)

	v.SetDefault("inventory.url", "")
	v.SetDefault("inventory.timeout", 10*time.Second)

	v.SetDefault("logging.file", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration into a Config. An explicit path must exist;
// otherwise config.yaml is looked up in DefaultConfigDir and the working
// directory, and a missing file means defaults.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = NewViper()
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// The bare PORT variable replaces the default listen address; file,
	// SIGNAGE_SERVER_LISTEN and flags still win.
	if port := os.Getenv("PORT"); port != "" {
		v.SetDefault("server.listen", ":"+port)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if c.Player.SlideInterval <= 0 {
		return fmt.Errorf("player.slide_interval must be positive, got %s", c.Player.SlideInterval)
	}
	if c.Player.ScreenWidth <= 0 || c.Player.ScreenHeight <= 0 {
		return fmt.Errorf("invalid screen size %dx%d", c.Player.ScreenWidth, c.Player.ScreenHeight)
	}
	if c.Server.CacheTTL <= 0 {
		return fmt.Errorf("server.cache_ttl must be positive, got %s", c.Server.CacheTTL)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
