package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talentiq/talentstats/pkg/counting"
	"github.com/talentiq/talentstats/pkg/observability"
	"github.com/talentiq/talentstats/pkg/statcache"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Redis         statcache.RedisConfig
	Postgres      PostgresConfig
	CountService  counting.Config
	Observability ObservabilityConfig

	// BucketLRUSize bounds the in-process memo of completed buckets.
	BucketLRUSize int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// PostgresConfig holds entity directory database configuration
type PostgresConfig struct {
	URL      string
	MaxConns int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	OTel observability.OTelConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("TALENTSTATS_HOST", "0.0.0.0"),
			Port:            getEnv("TALENTSTATS_PORT", "8080"),
			ReadTimeout:     getEnvDuration("TALENTSTATS_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("TALENTSTATS_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("TALENTSTATS_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("TALENTSTATS_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("TALENTSTATS_HEALTH_PORT", "9090"),
		},
		Redis: statcache.RedisConfig{
			URL:        getEnv("TALENTSTATS_REDIS_URL", "redis://localhost:6379/0"),
			Password:   getEnv("TALENTSTATS_REDIS_PASSWORD", ""),
			DB:         getEnvInt("TALENTSTATS_REDIS_DB", -1),
			MaxRetries: getEnvInt("TALENTSTATS_REDIS_MAX_RETRIES", 3),
			PoolSize:   getEnvInt("TALENTSTATS_REDIS_POOL_SIZE", 10),
		},
		Postgres: PostgresConfig{
			URL:      getEnv("TALENTSTATS_POSTGRES_URL", "postgres://localhost/recruiting?sslmode=disable"),
			MaxConns: getEnvInt("TALENTSTATS_POSTGRES_MAX_CONNS", 10),
		},
		CountService: counting.Config{
			BaseURL:    getEnv("TALENTSTATS_COUNT_SERVICE_URL", "http://localhost:8200"),
			Timeout:    getEnvDuration("TALENTSTATS_COUNT_SERVICE_TIMEOUT", 10*time.Second),
			MaxRetries: getEnvInt("TALENTSTATS_COUNT_SERVICE_MAX_RETRIES", 2),
		},
		Observability: ObservabilityConfig{
			LogLevel:       parseLogLevel(getEnv("TALENTSTATS_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("TALENTSTATS_METRICS_ENABLED", true),
			OTel: observability.OTelConfig{
				Enabled:        getEnvBool("TALENTSTATS_OTEL_ENABLED", false),
				Endpoint:       getEnv("TALENTSTATS_OTEL_ENDPOINT", "localhost:4317"),
				ServiceName:    getEnv("TALENTSTATS_OTEL_SERVICE_NAME", "talentstats"),
				ServiceVersion: getEnv("TALENTSTATS_OTEL_SERVICE_VERSION", "1.0.0"),
				Insecure:       getEnvBool("TALENTSTATS_OTEL_INSECURE", true),
			},
		},
		BucketLRUSize: getEnvInt("TALENTSTATS_BUCKET_LRU_SIZE", 4096),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required")
	}
	if c.Postgres.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.CountService.BaseURL == "" {
		return fmt.Errorf("count service URL is required")
	}
	if strings.HasSuffix(c.CountService.BaseURL, "/") {
		return fmt.Errorf("count service URL must not end with a slash")
	}
	if c.Observability.OTel.Enabled && c.Observability.OTel.Endpoint == "" {
		return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
	}
	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
