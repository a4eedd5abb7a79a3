package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Load default config when no config file is present", func(t *testing.T) {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
		assert.True(t, cfg.Server.RateLimit.Enabled)
		assert.Equal(t, RateLimitBackendMemory, cfg.Server.RateLimit.Backend)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
		assert.False(t, cfg.Server.Auth.Enabled)

		assert.Equal(t, StoreDriverFile, cfg.Store.Driver)
		assert.Equal(t, "customers.json", cfg.Store.Path)
		assert.Equal(t, "customers_console.json", cfg.Store.ConsolePath)

		assert.Equal(t, int32(10), cfg.Database.MaxConns)
		assert.Equal(t, 5*time.Minute, cfg.Database.MaxConnIdleTime)
		assert.Equal(t, time.Minute, cfg.Database.HealthCheckPeriod)
		assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)

		assert.Equal(t, "info", cfg.Logger.Level)
		assert.Equal(t, "json", cfg.Logger.Encoding)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)

		assert.False(t, cfg.RabbitMQ.Enabled)
		assert.Equal(t, "customer-manager", cfg.RabbitMQ.ExchangeName)

		assert.Equal(t, "*/5 * * * *", cfg.Batch.StatisticsSchedule)
		assert.Equal(t, 30*time.Second, cfg.Batch.StatisticsTimeout)
	})

	t.Run("Environment overrides the store path", func(t *testing.T) {
		t.Setenv("STORE_PATH", "/tmp/other-customers.json")

		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "/tmp/other-customers.json", cfg.Store.Path)
	})

	t.Run("Unsupported store driver is rejected", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "sqlite")

		_, err := LoadConfig(t.TempDir())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported store.driver")
	})

	t.Run("Unsupported rate limit backend is rejected", func(t *testing.T) {
		t.Setenv("SERVER_RATELIMIT_BACKEND", "memcached")

		_, err := LoadConfig(t.TempDir())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported server.rateLimit.backend")
	})

	t.Run("Redis backend requires an address", func(t *testing.T) {
		t.Setenv("SERVER_RATELIMIT_BACKEND", "redis")
		t.Setenv("REDIS_ADDR", " ")

		_, err := LoadConfig(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("Auth without secret is rejected", func(t *testing.T) {
		t.Setenv("SERVER_AUTH_ENABLED", "true")
		t.Setenv("SERVER_AUTH_JWTSECRET", "")

		_, err := LoadConfig(t.TempDir())
		assert.Error(t, err)
	})
}

func TestRabbitMQConfigURL(t *testing.T) {
	cfg := RabbitMQConfig{Host: "mq", Port: 5672, Username: "guest", Password: "secret"}
	assert.Equal(t, "amqp://guest:secret@mq:5672/", cfg.URL())
}
