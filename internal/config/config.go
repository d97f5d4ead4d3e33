package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Backlog   BacklogConfig   `mapstructure:"backlog"`
	Bulk      BulkConfig      `mapstructure:"bulk"`
	Harness   HarnessConfig   `mapstructure:"harness"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// URL is a PostgreSQL connection URL, or a SQLite DSN when Driver is sqlite.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// AuthConfig contains the bearer token validation settings.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	Issuer        string        `mapstructure:"issuer"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"gt=0"`
}

// RedisConfig configures the backlog snapshot cache. An empty Addr disables
// caching.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db" validate:"gte=0"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl" validate:"gt=0"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// SchedulerConfig overrides the memory model parameters. Zero values keep
// the model defaults.
type SchedulerConfig struct {
	DesiredRetention float64         `mapstructure:"desired_retention" validate:"gte=0,lt=1"`
	MaximumInterval  int             `mapstructure:"maximum_interval" validate:"gte=0"`
	LearningSteps    []time.Duration `mapstructure:"learning_steps"`
	RelearningSteps  []time.Duration `mapstructure:"relearning_steps"`
	Weights          []float64       `mapstructure:"weights" validate:"omitempty,len=21"`
}

// BacklogConfig controls overdue classification.
type BacklogConfig struct {
	VeryOverdueDays int `mapstructure:"very_overdue_days" validate:"gte=1"`
	// DefaultDailyLimit applies to users without saved preferences.
	// 0 means unlimited.
	DefaultDailyLimit int    `mapstructure:"default_daily_limit" validate:"gte=0"`
	DefaultTimezone   string `mapstructure:"default_timezone" validate:"required,timezone"`
}

// BulkConfig bounds the work a single bulk action may do.
type BulkConfig struct {
	MaxCardsPerDay    int `mapstructure:"max_cards_per_day" validate:"gte=1"`
	MaxReportedErrors int `mapstructure:"max_reported_errors" validate:"gte=1"`
	MaxRecoveryDays   int `mapstructure:"max_recovery_days" validate:"gte=1"`
}

// HarnessConfig toggles the test-harness routes. Never enable in production.
type HarnessConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
