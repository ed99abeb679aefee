package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config captures runtime configuration for the order service.
type Config struct {
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Kafka       KafkaConfig
	Idempotency IdempotencyConfig
	Chaos       ChaosConfig
	Telemetry   TelemetryConfig
	Service     ServiceConfig
}

type HTTPConfig struct {
	Port          int    `envconfig:"API_HTTP_PORT" default:"8080"`
	MetricsPath   string `envconfig:"API_METRICS_PATH" default:"/metrics"`
	ShutdownGrace int    `envconfig:"API_SHUTDOWN_GRACE_SECONDS" default:"15"`
}

type DatabaseConfig struct {
	URL            string `envconfig:"DATABASE_URL"`
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	User           string `envconfig:"DB_USER" default:"postgres"`
	Password       string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name           string `envconfig:"DB_NAME" default:"orders"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns       int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	AutoMigrate    bool   `envconfig:"AUTO_MIGRATE" default:"true"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"migrations"`
}

type KafkaConfig struct {
	Brokers             []string      `envconfig:"KAFKA_BROKERS"`
	OrderCreatedTopic   string        `envconfig:"KAFKA_ORDER_CREATED_TOPIC" default:"order.created"`
	OrderCancelledTopic string        `envconfig:"KAFKA_ORDER_CANCELLED_TOPIC" default:"order.cancelled"`
	ConsumerGroup       string        `envconfig:"KAFKA_CONSUMER_GROUP" default:"order-service"`
	WriteTimeout        time.Duration `envconfig:"KAFKA_WRITE_TIMEOUT" default:"5s"`
}

type IdempotencyConfig struct {
	Backend   string        `envconfig:"IDEMPOTENCY_BACKEND" default:"postgres"`
	RedisAddr string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	TTL       time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
}

// ChaosConfig toggles the phantom-event demonstration endpoint.
type ChaosConfig struct {
	Enabled bool `envconfig:"CHAOS_ENABLED" default:"false"`
}

type TelemetryConfig struct {
	LogLevel      string  `envconfig:"LOG_LEVEL" default:"info"`
	OTelEndpoint  string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	EnableTracing bool    `envconfig:"OTEL_ENABLE_TRACING" default:"true"`
	EnableMetrics bool    `envconfig:"OTEL_ENABLE_METRICS" default:"true"`
	SampleRate    float64 `envconfig:"OTEL_SAMPLE_RATE" default:"1.0"`
}

type ServiceConfig struct {
	Name        string `envconfig:"API_SERVICE_NAME" default:"order-service"`
	Version     string `envconfig:"SERVICE_VERSION" default:"0.1.0"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

const (
	IdempotencyPostgres = "postgres"
	IdempotencyRedis    = "redis"
	IdempotencyMemory   = "memory"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	cfg := &Config{}

	sections := []struct {
		name string
		spec any
	}{
		{"HTTP", &cfg.HTTP},
		{"database", &cfg.Database},
		{"kafka", &cfg.Kafka},
		{"idempotency", &cfg.Idempotency},
		{"chaos", &cfg.Chaos},
		{"telemetry", &cfg.Telemetry},
		{"service", &cfg.Service},
	}
	for _, s := range sections {
		if err := envconfig.Process("", s.spec); err != nil {
			return nil, fmt.Errorf("loading %s config: %w", s.name, err)
		}
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = cfg.Database.buildURL()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("%w: API_HTTP_PORT %d out of range", ErrInvalidConfig, c.HTTP.Port)
	}

	switch c.Idempotency.Backend {
	case IdempotencyPostgres, IdempotencyRedis, IdempotencyMemory:
	default:
		return fmt.Errorf("%w: unknown IDEMPOTENCY_BACKEND %q", ErrInvalidConfig, c.Idempotency.Backend)
	}

	if c.Kafka.WriteTimeout <= 0 {
		return fmt.Errorf("%w: KAFKA_WRITE_TIMEOUT must be positive", ErrInvalidConfig)
	}

	// Without brokers events go to a no-op writer, so a phantom event could never be observed.
	if c.Chaos.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: CHAOS_ENABLED requires KAFKA_BROKERS", ErrInvalidConfig)
	}

	return nil
}

func (d DatabaseConfig) buildURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
