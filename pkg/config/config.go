// Package config loads tickr settings from .tickr.yaml and TICKR_* env vars.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	DefaultPath           = "~/.tickr.db"
	DefaultAPIURL         = "http://localhost:8000/api"
	DefaultServeAddr      = "127.0.0.1:7777"
	DefaultPollInterval   = 10 * time.Second
	DefaultRequestTimeout = 15 * time.Second
	DefaultCacheTTL       = 5 * time.Minute
	DefaultHoldDelay      = time.Second
	DefaultTickInterval   = time.Second

	// ConfigPathEnv names a directory searched first for .tickr.yaml.
	ConfigPathEnv = "TICKR_CONFIG_PATH"
)

// Config is the resolved runtime configuration.
type Config struct {
	Path           string        `mapstructure:"path"`
	APIURL         string        `mapstructure:"api-url"`
	Token          string        `mapstructure:"token"`
	ServeAddr      string        `mapstructure:"serve-addr"`
	HoldDelay      time.Duration `mapstructure:"hold-delay"`
	TickInterval   time.Duration `mapstructure:"tick-interval"`
	PollInterval   time.Duration `mapstructure:"poll-interval"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	CacheTTL       time.Duration `mapstructure:"cache-ttl"`
	ConfigFile     string        `mapstructure:"-"`
}

// BasePath is where the local store lives, with ~ expanded.
func (c *Config) BasePath() string {
	return c.Path
}

// Load reads configuration from the search path and environment.
func Load() (*Config, error) {
	v := viper.New()
	return LoadWith(v, os.Getenv(ConfigPathEnv))
}

// LoadWith reads configuration using the provided viper instance. override is
// an extra directory searched before the working directory.
func LoadWith(v *viper.Viper, override string) (*Config, error) {
	v.SetDefault("path", DefaultPath)
	v.SetDefault("api-url", DefaultAPIURL)
	v.SetDefault("token", "")
	v.SetDefault("serve-addr", DefaultServeAddr)
	v.SetDefault("hold-delay", DefaultHoldDelay)
	v.SetDefault("tick-interval", DefaultTickInterval)
	v.SetDefault("poll-interval", DefaultPollInterval)
	v.SetDefault("request-timeout", DefaultRequestTimeout)
	v.SetDefault("cache-ttl", DefaultCacheTTL)

	v.SetConfigName(".tickr") // .yaml is implicit
	v.SetEnvPrefix("TICKR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	path, err := homedir.Expand(cfg.Path)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	cfg.APIURL = strings.TrimSpace(cfg.APIURL)
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.HoldDelay < 0 {
		cfg.HoldDelay = DefaultHoldDelay
	}
	return cfg, nil
}
