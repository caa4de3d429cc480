package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. SCRY_SERVER_PORT.
const EnvPrefix = "SCRY"

// defaults lists every known key. Keys without a sensible default map to nil
// so that they are still bound to their environment variable.
var defaults = map[string]any{
	"server.port":             8080,
	"server.log_level":        "info",
	"server.shutdown_timeout": 10 * time.Second,

	"database.driver":         "postgres",
	"database.url":            nil,
	"database.max_open_conns": 10,

	"auth.jwt_secret":             nil,
	"auth.token_lifetime_minutes": 60,

	"scheduler.max_new_per_day":       20,
	"scheduler.relearning_delay":      5 * time.Minute,
	"scheduler.minimum_interval":      24 * time.Hour,
	"scheduler.difficulty_min":        1.0,
	"scheduler.difficulty_max":        10.0,
	"scheduler.baseline_difficulty":   5.0,
	"scheduler.desired_retention":     0.9,
	"scheduler.maximum_interval_days": 36500.0,
	"scheduler.timezone":              "UTC",
	"scheduler.conflict_retries":      3,
	"scheduler.reconcile_interval":    15 * time.Minute,
	"scheduler.reconcile_batch_size":  500,

	"catalog.cache_size": 256,
	"catalog.cache_ttl":  5 * time.Minute,
}

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is like Load but reads the given config file. An empty path
// searches the working directory for config.yaml and tolerates its absence.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		if value != nil {
			v.SetDefault(key, value)
		}
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
