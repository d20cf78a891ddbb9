package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	fileName  = "config.yaml"
	envPrefix = "ERRAND"
)

const (
	BackendFiles  = "files"
	BackendSQLite = "sqlite"
)

type Config struct {
	Backend        string        `yaml:"backend" mapstructure:"backend" validate:"oneof=files sqlite"`
	DefaultProject string        `yaml:"default_project,omitempty" mapstructure:"default_project"`
	Timezone       string        `yaml:"timezone,omitempty" mapstructure:"timezone"`
	LogLevel       string        `yaml:"log_level" mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Persist        PersistConfig `yaml:"persist" mapstructure:"persist"`
	Serve          ServeConfig   `yaml:"serve" mapstructure:"serve"`
}

// PersistConfig controls how failed backend writes are retried.
type PersistConfig struct {
	Retries int           `yaml:"retries" mapstructure:"retries" validate:"min=0,max=10"`
	Backoff time.Duration `yaml:"backoff" mapstructure:"backoff" validate:"min=0"`
}

type ServeConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr" validate:"required,hostname_port"`
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendFiles)
	v.SetDefault("default_project", "")
	v.SetDefault("timezone", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("persist.retries", 3)
	v.SetDefault("persist.backoff", 200*time.Millisecond)
	v.SetDefault("serve.addr", "127.0.0.1:7788")
}

// Load reads dataDir/config.yaml. Environment variables such as
// ERRAND_BACKEND or ERRAND_PERSIST_RETRIES override the file, and a missing
// file yields the defaults.
func Load(dataDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(filepath.Join(dataDir, fileName))
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Save(dataDir string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return os.WriteFile(filepath.Join(dataDir, fileName), data, 0644)
}

// Location resolves Timezone, falling back to the local zone when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
