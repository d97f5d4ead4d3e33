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

// defaults lists every key with its default value. Keys without a sensible
// default are still listed so that viper picks them up from the environment.
var defaults = map[string]any{
	"server.port":             8080,
	"server.log_level":        "info",
	"server.read_timeout":     10 * time.Second,
	"server.write_timeout":    30 * time.Second,
	"server.shutdown_timeout": 15 * time.Second,

	"database.driver":            "postgres",
	"database.url":               "",
	"database.max_open_conns":    25,
	"database.max_idle_conns":    25,
	"database.conn_max_lifetime": 5 * time.Minute,
	"database.auto_migrate":      true,

	"auth.jwt_secret":     "",
	"auth.issuer":         "",
	"auth.token_lifetime": time.Hour,

	"redis.addr":         "",
	"redis.password":     "",
	"redis.db":           0,
	"redis.snapshot_ttl": 5 * time.Minute,
	"redis.key_prefix":   "scry:backlog:",

	"scheduler.desired_retention": 0.0,
	"scheduler.maximum_interval":  0,
	"scheduler.learning_steps":    []string{},
	"scheduler.relearning_steps":  []string{},
	"scheduler.weights":           []float64{},

	"backlog.very_overdue_days":   7,
	"backlog.default_daily_limit": 0,
	"backlog.default_timezone":    "UTC",

	"bulk.max_cards_per_day":   500,
	"bulk.max_reported_errors": 20,
	"bulk.max_recovery_days":   365,

	"harness.enabled": false,
}

// Load reads configuration from defaults, an optional config.yaml in the
// working directory, and environment variables. Environment variables take
// precedence over the file.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path. An empty path looks
// for config.yaml in the working directory and ./config.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// normalize maps the empty list defaults to nil, which is what omitempty
// validation and the memory model treat as unset.
func normalize(cfg *Config) {
	if len(cfg.Scheduler.Weights) == 0 {
		cfg.Scheduler.Weights = nil
	}
	if len(cfg.Scheduler.LearningSteps) == 0 {
		cfg.Scheduler.LearningSteps = nil
	}
	if len(cfg.Scheduler.RelearningSteps) == 0 {
		cfg.Scheduler.RelearningSteps = nil
	}
}

// Validate checks struct tags and cross-field rules.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	for i, step := range cfg.Scheduler.LearningSteps {
		if step <= 0 {
			return fmt.Errorf("config validation failed: scheduler.learning_steps[%d] must be positive", i)
		}
	}
	for i, step := range cfg.Scheduler.RelearningSteps {
		if step <= 0 {
			return fmt.Errorf("config validation failed: scheduler.relearning_steps[%d] must be positive", i)
		}
	}
	return nil
}
