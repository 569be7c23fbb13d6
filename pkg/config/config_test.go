package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentiq/talentstats/pkg/observability"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 10*time.Second, cfg.CountService.Timeout)
	assert.Equal(t, 2, cfg.CountService.MaxRetries)
	assert.Equal(t, 4096, cfg.BucketLRUSize)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.False(t, cfg.Observability.OTel.Enabled)
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("TALENTSTATS_PORT", "9999")
	t.Setenv("TALENTSTATS_LOG_LEVEL", "debug")
	t.Setenv("TALENTSTATS_COUNT_SERVICE_TIMEOUT", "30s")
	t.Setenv("TALENTSTATS_COUNT_SERVICE_MAX_RETRIES", "5")
	t.Setenv("TALENTSTATS_BUCKET_LRU_SIZE", "128")
	t.Setenv("TALENTSTATS_METRICS_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.CountService.Timeout)
	assert.Equal(t, 5, cfg.CountService.MaxRetries)
	assert.Equal(t, 128, cfg.BucketLRUSize)
	assert.False(t, cfg.Observability.MetricsEnabled)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("TALENTSTATS_REDIS_MAX_RETRIES", "many")
	t.Setenv("TALENTSTATS_COUNT_SERVICE_TIMEOUT", "soon")
	t.Setenv("TALENTSTATS_LOG_LEVEL", "chatty")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Redis.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.CountService.Timeout)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfig()
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Server.HealthPort = cfg.Server.Port
	assert.Error(t, cfg.Validate(), "API and health ports must differ")

	cfg = base()
	cfg.Redis.URL = ""
	assert.Error(t, cfg.Validate(), "redis URL is required")

	cfg = base()
	cfg.Postgres.URL = ""
	assert.Error(t, cfg.Validate(), "postgres URL is required")

	cfg = base()
	cfg.CountService.BaseURL = "http://counts.internal/"
	assert.Error(t, cfg.Validate(), "trailing slash is rejected")

	cfg = base()
	cfg.Observability.OTel.Enabled = true
	cfg.Observability.OTel.Endpoint = ""
	assert.Error(t, cfg.Validate(), "enabled OTel needs an endpoint")
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]observability.LogLevel{
		"debug":   observability.DebugLevel,
		"INFO":    observability.InfoLevel,
		"warn":    observability.WarnLevel,
		"warning": observability.WarnLevel,
		"Error":   observability.ErrorLevel,
		"":        observability.InfoLevel,
	}
	for raw, want := range cases {
		assert.Equal(t, want, parseLogLevel(raw), "level %q", raw)
	}
}
