// Package config loads offfetch settings from file, environment and
// defaults, and wires them into a store.Store.
//
// Precedence (highest to lowest):
//  1. Environment variables (OFFCACHE_*, e.g. OFFCACHE_STORE_DRIVER=badger)
//  2. Configuration file
//  3. Defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const EnvPrefix = "OFFCACHE"

type Config struct {
	Namespace    string             `mapstructure:"namespace" validate:"required"`
	Policy       string             `mapstructure:"policy" validate:"required,oneof=local remote local-or-remote local-and-remote"`
	Restricted   bool               `mapstructure:"restricted"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Store        StoreConfig        `mapstructure:"store"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	HTTP         HTTPConfig         `mapstructure:"http"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
	// File enables a rotating log file in addition to stderr.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
}

type StoreConfig struct {
	Driver    string        `mapstructure:"driver" validate:"oneof=memory badger redis"`
	Path      string        `mapstructure:"path" validate:"required_if=Driver badger"`
	RedisAddr string        `mapstructure:"redis_addr" validate:"required_if=Driver redis"`
	TTL       time.Duration `mapstructure:"ttl" validate:"gte=0"`
	Front     FrontConfig   `mapstructure:"front"`
}

type FrontConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Driver    string `mapstructure:"driver" validate:"oneof=bigcache ristretto"`
	MaxSizeMB int    `mapstructure:"max_size_mb" validate:"gt=0"`
}

type ConnectivityConfig struct {
	ProbeAddrs []string      `mapstructure:"probe_addrs" validate:"dive,hostname_port"`
	Interval   time.Duration `mapstructure:"interval" validate:"gt=0"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	UserAgent string        `mapstructure:"user_agent"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Namespace: "default",
		Policy:    "local-or-remote",
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
		Store: StoreConfig{
			Driver: "memory",
			Front:  FrontConfig{Driver: "ristretto", MaxSizeMB: 64},
		},
		Connectivity: ConnectivityConfig{
			ProbeAddrs: []string{"1.1.1.1:443", "8.8.8.8:53"},
			Interval:   10 * time.Second,
			Timeout:    2 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: "offfetch/1",
		},
	}
}

// Load reads path (optional; "" skips the file), overlays OFFCACHE_*
// environment variables and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("namespace", d.Namespace)
	v.SetDefault("policy", d.Policy)
	v.SetDefault("restricted", d.Restricted)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)

	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.redis_addr", d.Store.RedisAddr)
	v.SetDefault("store.ttl", d.Store.TTL)
	v.SetDefault("store.front.enabled", d.Store.Front.Enabled)
	v.SetDefault("store.front.driver", d.Store.Front.Driver)
	v.SetDefault("store.front.max_size_mb", d.Store.Front.MaxSizeMB)

	v.SetDefault("connectivity.probe_addrs", d.Connectivity.ProbeAddrs)
	v.SetDefault("connectivity.interval", d.Connectivity.Interval)
	v.SetDefault("connectivity.timeout", d.Connectivity.Timeout)

	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
}
