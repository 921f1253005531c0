package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultPath = "config.yaml"

type Config struct {
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	API      APIConfig      `mapstructure:"api" yaml:"api"`
}

type DownloadConfig struct {
	Concurrency int  `mapstructure:"concurrency" yaml:"concurrency"`
	DeepCheck   bool `mapstructure:"deep_check" yaml:"deep_check"`
}

type HTTPConfig struct {
	MaxRetries            int           `mapstructure:"max_retries" yaml:"max_retries"`
	InitialBackoff        time.Duration `mapstructure:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff            time.Duration `mapstructure:"max_backoff" yaml:"max_backoff"`
	ResponseHeaderTimeout time.Duration `mapstructure:"response_header_timeout" yaml:"response_header_timeout"`
	UserAgent             string        `mapstructure:"user_agent" yaml:"user_agent"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

type StoreConfig struct {
	// SQLitePath enables run history when set.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

type APIConfig struct {
	// Addr enables the status server when set, e.g. ":8090".
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Load reads the config file at path, layered over defaults and GOFETCH_* env vars.
// An empty path means DefaultPath, which may be absent.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GOFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("download.concurrency", 10)
	v.SetDefault("download.deep_check", false)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.initial_backoff", "1s")
	v.SetDefault("http.max_backoff", "30s")
	v.SetDefault("http.response_header_timeout", "30s")
	v.SetDefault("http.user_agent", "gofetch")
	v.SetDefault("log.path", "gofetch.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)
	v.SetDefault("store.sqlite_path", "")
	v.SetDefault("api.addr", "")
}

func (c *Config) validate() error {
	if c.Download.Concurrency <= 0 {
		return errors.New("download.concurrency must be positive")
	}

	if c.HTTP.MaxRetries < 0 {
		return errors.New("http.max_retries cannot be negative")
	}

	if c.HTTP.InitialBackoff <= 0 {
		c.HTTP.InitialBackoff = time.Second
	}

	if c.HTTP.MaxBackoff < c.HTTP.InitialBackoff {
		c.HTTP.MaxBackoff = c.HTTP.InitialBackoff
	}

	if c.Log.Path == "" {
		c.Log.Path = "gofetch.log"
	}

	return nil
}
