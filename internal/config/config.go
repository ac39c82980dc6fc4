// Package config loads and validates process config from env and an optional .env file using Viper.
// Runtime job thresholds are not here; they live in the settings table (see internal/settings).
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds process configuration loaded from the environment.
type Config struct {
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// LogLevel is the zap level name: debug, info, warn, error. Default info.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogDev switches to the zap development encoder (console, colored levels).
	LogDev bool `mapstructure:"LOG_DEV"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12. Used by seed for demo accounts.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// Env is the application environment (e.g. "development", "production"). Seed refuses demo data in production.
	Env string `mapstructure:"APP_ENV"`

	// OTLPEndpoint is the OTLP gRPC collector (e.g. localhost:4317). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the otel service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// JobEventsKafkaBrokers is a comma-separated list of Kafka brokers. When set, job outcomes are published.
	JobEventsKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// JobEventsKafkaTopic is the Kafka topic for job outcome events (default loyalty-job-executions).
	JobEventsKafkaTopic string `mapstructure:"JOB_EVENTS_KAFKA_TOPIC"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEV", false)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "loyalty-accounts")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("JOB_EVENTS_KAFKA_TOPIC", "loyalty-job-executions")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return nil, errors.New("config: LOG_LEVEL must be one of debug, info, warn, error")
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "loyalty-accounts"
	}

	return &cfg, nil
}

// JobEventsKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list means job outcome publishing is disabled.
func (c *Config) JobEventsKafkaBrokersList() []string {
	if c == nil || c.JobEventsKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.JobEventsKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
