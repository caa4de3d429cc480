package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Catalog   CatalogConfig   `mapstructure:"catalog" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the store implementation.
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	// URL is a postgres connection URL or a sqlite file path / DSN.
	URL          string `mapstructure:"url" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// SchedulerConfig holds the scheduling policy constants.
type SchedulerConfig struct {
	MaxNewPerDay        int           `mapstructure:"max_new_per_day" validate:"gte=0"`
	RelearningDelay     time.Duration `mapstructure:"relearning_delay" validate:"gt=0"`
	MinimumInterval     time.Duration `mapstructure:"minimum_interval" validate:"gt=0"`
	DifficultyMin       float64       `mapstructure:"difficulty_min" validate:"gte=1,ltfield=DifficultyMax"`
	DifficultyMax       float64       `mapstructure:"difficulty_max" validate:"lte=10"`
	BaselineDifficulty  float64       `mapstructure:"baseline_difficulty" validate:"gtefield=DifficultyMin,ltefield=DifficultyMax"`
	DesiredRetention    float64       `mapstructure:"desired_retention" validate:"gt=0,lt=1"`
	MaximumIntervalDays float64       `mapstructure:"maximum_interval_days" validate:"gte=1"`

	// Timezone is the IANA zone used for day boundaries when a request does
	// not name one.
	Timezone string `mapstructure:"timezone" validate:"required,timezone"`

	// ConflictRetries bounds how often a single card is re-fetched after an
	// optimistic concurrency conflict.
	ConflictRetries int `mapstructure:"conflict_retries" validate:"gte=0,lte=10"`

	ReconcileInterval  time.Duration `mapstructure:"reconcile_interval" validate:"gt=0"`
	ReconcileBatchSize int           `mapstructure:"reconcile_batch_size" validate:"gt=0"`
}

// Location returns the configured default timezone, or UTC if it cannot be loaded.
func (c SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CatalogConfig configures the content catalog cache.
type CatalogConfig struct {
	CacheSize int           `mapstructure:"cache_size" validate:"gt=0"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
}
