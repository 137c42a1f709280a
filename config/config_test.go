package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080"},
		Redis:   RedisConfig{Addr: "localhost:6379"},
		Archive: ArchiveConfig{Store: "redis"},
		Gateway: GatewayConfig{Backend: "studio", BaseURL: "http://localhost:8090"},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid defaults", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("port required", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("redis addr required", func(t *testing.T) {
		cfg := validConfig()
		cfg.Redis.Addr = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("postgres archive store needs a dsn", func(t *testing.T) {
		cfg := validConfig()
		cfg.Archive.Store = "postgres"
		assert.Error(t, cfg.Validate())

		cfg.Database.DSN = "postgres://localhost/atelier"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown archive store", func(t *testing.T) {
		cfg := validConfig()
		cfg.Archive.Store = "s3"
		assert.Error(t, cfg.Validate())
	})

	t.Run("openai backend needs a key", func(t *testing.T) {
		cfg := validConfig()
		cfg.Gateway.Backend = "openai"
		assert.Error(t, cfg.Validate())

		cfg.Gateway.OpenAIKey = "sk-test"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("studio backend needs a base url", func(t *testing.T) {
		cfg := validConfig()
		cfg.Gateway.BaseURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown gateway backend", func(t *testing.T) {
		cfg := validConfig()
		cfg.Gateway.Backend = "local"
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("GATEWAY_RATE_PER_MINUTE", "12")
	t.Setenv("ARCHIVE_STORE", "redis")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 12, cfg.Gateway.RatePerMinute)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("GATEWAY_RATE_PER_MINUTE", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Gateway.RatePerMinute)
}
