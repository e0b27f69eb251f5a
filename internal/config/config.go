// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted in STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// Env is the application environment (e.g. "development", "production"). Selects the log encoder.
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// StoreDriver selects the backing store: memory, postgres or sqlite.
	StoreDriver string `mapstructure:"STORE_DRIVER"`
	// DatabaseURL is the Postgres DSN or the SQLite file path. Required unless StoreDriver is memory.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// SeedDemoData loads the demo accounts and users at startup when the store is empty.
	// Unset, it is true only for the memory store.
	SeedDemoData bool `mapstructure:"SEED_DEMO_DATA"`

	// AccessTTLRaw is the access token lifetime (e.g. "30m").
	AccessTTLRaw string `mapstructure:"ACCESS_TTL"`
	// RefreshTTLRaw is the refresh token lifetime (e.g. "168h").
	RefreshTTLRaw string `mapstructure:"REFRESH_TTL"`
	// AccessTokenBytes is the entropy of an access token in bytes.
	AccessTokenBytes int `mapstructure:"ACCESS_TOKEN_BYTES"`
	// RefreshTokenBytes is the entropy of a refresh token in bytes.
	RefreshTokenBytes int `mapstructure:"REFRESH_TOKEN_BYTES"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// SessionSweepIntervalRaw is how often fully expired sessions are purged (e.g. "10m"). "0" disables the sweeper.
	SessionSweepIntervalRaw string `mapstructure:"SESSION_SWEEP_INTERVAL"`
	// RolePolicyFile is an optional Rego file replacing the built-in role policy.
	RolePolicyFile string `mapstructure:"ROLE_POLICY_FILE"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses. Empty disables session events.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// EventsKafkaTopic is the topic session lifecycle events are written to.
	EventsKafkaTopic string `mapstructure:"EVENTS_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group of the events worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// LokiURL is where the events worker also pushes session events (e.g. http://localhost:3100). Optional.
	LokiURL string `mapstructure:"LOKI_URL"`

	// OTelEndpoint is the OTLP gRPC collector endpoint. Empty disables OpenTelemetry export.
	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTelInsecure forces a plaintext connection to the collector.
	OTelInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is reported as service.name to OpenTelemetry.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	accessTTL     time.Duration
	refreshTTL    time.Duration
	sweepInterval time.Duration
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ACCESS_TTL", "30m")
	v.SetDefault("REFRESH_TTL", "168h") // 7d
	v.SetDefault("ACCESS_TOKEN_BYTES", 32)
	v.SetDefault("REFRESH_TOKEN_BYTES", 40)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SESSION_SWEEP_INTERVAL", "0")
	v.SetDefault("ROLE_POLICY_FILE", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("EVENTS_KAFKA_TOPIC", "cms-session-events")
	v.SetDefault("KAFKA_GROUP_ID", "cms-events-worker")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "multitenant-cms")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if !v.IsSet("SEED_DEMO_DATA") {
		cfg.SeedDemoData = cfg.StoreDriver == StoreMemory
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres, StoreSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL must be set when STORE_DRIVER=%s", c.StoreDriver)
		}
	default:
		return fmt.Errorf("config: STORE_DRIVER must be one of memory, postgres, sqlite; got %q", c.StoreDriver)
	}

	var err error
	if c.accessTTL, err = positiveDuration("ACCESS_TTL", c.AccessTTLRaw); err != nil {
		return err
	}
	if c.refreshTTL, err = positiveDuration("REFRESH_TTL", c.RefreshTTLRaw); err != nil {
		return err
	}
	c.sweepInterval, err = time.ParseDuration(c.SessionSweepIntervalRaw)
	if err != nil || c.sweepInterval < 0 {
		return fmt.Errorf("config: SESSION_SWEEP_INTERVAL must be a non-negative duration; got %q", c.SessionSweepIntervalRaw)
	}

	if c.AccessTokenBytes < 16 || c.RefreshTokenBytes < 16 {
		return errors.New("config: ACCESS_TOKEN_BYTES and REFRESH_TOKEN_BYTES must be at least 16")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	return nil
}

func positiveDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive duration; got %q", key, raw)
	}
	return d, nil
}

// AccessTTL is the parsed ACCESS_TTL.
func (c *Config) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL is the parsed REFRESH_TTL.
func (c *Config) RefreshTTL() time.Duration { return c.refreshTTL }

// SessionSweepInterval is the parsed SESSION_SWEEP_INTERVAL; zero means the sweeper is off.
func (c *Config) SessionSweepInterval() time.Duration { return c.sweepInterval }

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if session events are enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
