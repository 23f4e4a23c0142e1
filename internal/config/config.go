// Package config loads application configuration from
// ~/.config/salah/config.toml with SALAH_* environment overrides.
//
// Prayer settings (location, calculation method) are not part of this file;
// they live in the database so the TUI can edit them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
)

type Config struct {
	DBPath  string        `toml:"db_path" env:"SALAH_DB_PATH"`
	API     APIConfig     `toml:"api"`
	Display DisplayConfig `toml:"display"`
	Log     LogConfig     `toml:"log"`
	Cache   CacheConfig   `toml:"cache"`
}

type APIConfig struct {
	BaseURL        string `toml:"base_url" env:"SALAH_API_BASE_URL" env-default:"https://api.aladhan.com/v1"`
	TimeoutSeconds int    `toml:"timeout_seconds" env:"SALAH_API_TIMEOUT_SECONDS" env-default:"10"`
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type DisplayConfig struct {
	// TimeFormat is a Go layout: "15:04" or "3:04 PM".
	TimeFormat string `toml:"time_format" env:"SALAH_TIME_FORMAT" env-default:"15:04"`
}

type LogConfig struct {
	Level string `toml:"level" env:"SALAH_LOG_LEVEL" env-default:"info"`
	File  string `toml:"file" env:"SALAH_LOG_FILE"`
}

type CacheConfig struct {
	// RetainDays bounds how long fetched prayer times are kept offline.
	RetainDays int `toml:"retain_days" env:"SALAH_CACHE_RETAIN_DAYS" env-default:"60"`
}

// Dir returns ~/.config/salah.
func Dir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "salah"), nil
}

func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		API:     APIConfig{BaseURL: "https://api.aladhan.com/v1", TimeoutSeconds: 10},
		Display: DisplayConfig{TimeFormat: "15:04"},
		Log:     LogConfig{Level: "info"},
		Cache:   CacheConfig{RetainDays: 60},
	}
}

// Load reads path, creating it with defaults if it does not exist. An empty
// path selects DefaultPath. Environment variables override file values.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("config: resolve path: %w", err)
		}
		path = p
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, Default()); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg as TOML, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}

func (c *Config) resolvePaths(dir string) {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(dir, "salah.db")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(dir, "salah.log")
	}
	c.DBPath = expandPath(c.DBPath)
	c.Log.File = expandPath(c.Log.File)
}

func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout_seconds must be positive, got %d", c.API.TimeoutSeconds))
	}
	if c.Display.TimeFormat != "15:04" && c.Display.TimeFormat != "3:04 PM" {
		errs = append(errs, fmt.Errorf("display.time_format must be \"15:04\" or \"3:04 PM\", got %q", c.Display.TimeFormat))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Cache.RetainDays < 0 {
		errs = append(errs, fmt.Errorf("cache.retain_days must not be negative, got %d", c.Cache.RetainDays))
	}
	return errors.Join(errs...)
}

func expandPath(p string) string {
	if len(p) > 1 && p[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
