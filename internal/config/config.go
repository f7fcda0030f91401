// Package config loads lifeplan settings from an optional YAML file and
// LIFEPLAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"lifeplan/internal/kv"
)

// EnvPrefix is prepended to every environment override, so storage.driver
// is read from LIFEPLAN_STORAGE_DRIVER.
const EnvPrefix = "LIFEPLAN"

// Config is the merged runtime configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Service ServiceConfig `mapstructure:"service" yaml:"service"`

	// File is the config file that was read, empty when only defaults and
	// the environment applied.
	File string `mapstructure:"-" yaml:"-"`
}

// StorageConfig selects the kv backend.
type StorageConfig struct {
	Driver     string   `mapstructure:"driver" yaml:"driver"`
	Path       string   `mapstructure:"path" yaml:"path"`
	DSN        string   `mapstructure:"dsn" yaml:"dsn,omitempty"`
	SyncWrites bool     `mapstructure:"sync_writes" yaml:"sync_writes"`
	S3         S3Config `mapstructure:"s3" yaml:"s3"`
}

// S3Config is used by the s3 driver.
type S3Config struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Region    string `mapstructure:"region" yaml:"region,omitempty"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	PathStyle bool   `mapstructure:"path_style" yaml:"path_style"`
}

// LogConfig controls the zap logger. File enables a rotated JSON log next to
// console output.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ServiceConfig tunes the mutation coordinator.
type ServiceConfig struct {
	SettleDelay    time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	UpcomingWindow time.Duration `mapstructure:"upcoming_window" yaml:"upcoming_window"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Driver: string(kv.DriverSQLite), Path: "./lifeplan.db"},
		Log:     LogConfig{Level: "info", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28},
		Service: ServiceConfig{SettleDelay: 300 * time.Millisecond, UpcomingWindow: 14 * 24 * time.Hour},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.sync_writes", false)
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.path_style", false)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", false)
	v.SetDefault("service.settle_delay", d.Service.SettleDelay)
	v.SetDefault("service.upcoming_window", d.Service.UpcomingWindow)
}

// Load merges defaults, the config file and the environment, in increasing
// precedence. With an empty path, lifeplan.yaml is looked up in the working
// directory and then in the user config directory; a missing file is not an
// error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("lifeplan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "lifeplan"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var knownDrivers = []kv.Driver{
	kv.DriverMemory, kv.DriverFilesystem, kv.DriverSQLite,
	kv.DriverPostgres, kv.DriverBadger, kv.DriverS3,
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	driver := kv.Driver(strings.ToLower(strings.TrimSpace(c.Storage.Driver)))
	known := false
	for _, d := range knownDrivers {
		if d == driver {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch driver {
	case kv.DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("config: storage.dsn is required for postgres")
		}
	case kv.DriverS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("config: storage.s3.bucket is required for s3")
		}
	case kv.DriverMemory:
	default:
		if c.Storage.Path == "" {
			return fmt.Errorf("config: storage.path is required for %s", driver)
		}
	}
	if c.Service.SettleDelay < 0 {
		return errors.New("config: service.settle_delay must not be negative")
	}
	if c.Service.UpcomingWindow <= 0 {
		return errors.New("config: service.upcoming_window must be positive")
	}
	return nil
}

// KV converts the storage section into a kv driver configuration.
func (c *Config) KV(logger kv.Logger) kv.Config {
	return kv.Config{
		Driver:     kv.Driver(strings.ToLower(strings.TrimSpace(c.Storage.Driver))),
		Path:       c.Storage.Path,
		DSN:        c.Storage.DSN,
		SyncWrites: c.Storage.SyncWrites,
		Logger:     logger,
		S3: kv.S3Config{
			Bucket:    c.Storage.S3.Bucket,
			Region:    c.Storage.S3.Region,
			Prefix:    c.Storage.S3.Prefix,
			Endpoint:  c.Storage.S3.Endpoint,
			PathStyle: c.Storage.S3.PathStyle,
		},
	}
}
