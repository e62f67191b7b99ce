// Package config loads process configuration from the environment and an
// optional YAML file. Persisted scheduling settings live in the database, not here.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/julianstephens/clinicsched/internal/constants"
)

const envPrefix = "CLINICSCHED"

type Config struct {
	DB          string `mapstructure:"db"`
	Debug       bool   `mapstructure:"debug"`
	Addr        string `mapstructure:"addr"`
	Concurrency int    `mapstructure:"concurrency"`
	Profile     string `mapstructure:"profile"`
	// RunTimeout bounds one doctor's search, e.g. "90s". Zero keeps the default.
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

// DefaultDir returns ~/.config/clinicsched.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", constants.AppName)
	}
	return filepath.Join(home, ".config", constants.AppName)
}

// Load reads CLINICSCHED_* environment variables over an optional config file.
// An empty file searches DefaultDir for config.yaml and tolerates its absence;
// an explicit file must exist.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db", constants.DefaultConfigPath)
	v.SetDefault("debug", false)
	v.SetDefault("addr", constants.DefaultServerAddr)
	v.SetDefault("concurrency", constants.DefaultConcurrency)
	v.SetDefault("profile", "")
	v.SetDefault("run_timeout", constants.DefaultRunTimeout)

	for _, key := range []string{"db", "debug", "addr", "concurrency", "profile", "run_timeout"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DB = ExpandHome(cfg.DB)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DB) == "" {
		return errors.New("db must not be empty")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.RunTimeout < 0 {
		return fmt.Errorf("run_timeout must not be negative, got %s", c.RunTimeout)
	}
	return nil
}

// Dir returns the directory holding the SQLite database, logs and locks.
// PostgreSQL deployments fall back to DefaultDir.
func (c *Config) Dir() string {
	if strings.Contains(c.DB, "://") || strings.Contains(c.DB, "=") || strings.HasPrefix(c.DB, "keyring") {
		return DefaultDir()
	}
	return filepath.Dir(c.DB)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
