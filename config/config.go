package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Archive  ArchiveConfig
	Gateway  GatewayConfig
	Firebase FirebaseConfig
	App      AppConfig
}

// ArchiveConfig picks where the project snapshot lives: "redis" (default)
// or "postgres" (requires DB_DSN).
type ArchiveConfig struct {
	Store string
}

type ServerConfig struct {
	Port string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig is only needed when the postgres snapshot store or the
// users table is enabled; an empty DSN means a redis-only deployment.
type DatabaseConfig struct {
	DSN string
}

type GatewayConfig struct {
	// Backend picks the generation backend: "studio" (default) or "openai".
	Backend string
	// BaseURL of the studio engine, used when Backend == "studio".
	BaseURL string
	// OpenAIKey is required when Backend == "openai".
	OpenAIKey string
	// RatePerMinute throttles outbound generation calls.
	RatePerMinute int
}

type FirebaseConfig struct {
	CredentialsPath string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DB_DSN", ""),
		},
		Archive: ArchiveConfig{
			Store: getEnv("ARCHIVE_STORE", "redis"),
		},
		Gateway: GatewayConfig{
			Backend:       getEnv("GATEWAY_BACKEND", "studio"),
			BaseURL:       getEnv("GATEWAY_BASE_URL", "http://localhost:8090"),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			RatePerMinute: getEnvAsInt("GATEWAY_RATE_PER_MINUTE", 30),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	switch c.Archive.Store {
	case "redis":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN is required for the postgres archive store")
		}
	default:
		return fmt.Errorf("unknown ARCHIVE_STORE %q", c.Archive.Store)
	}

	switch c.Gateway.Backend {
	case "studio":
		if c.Gateway.BaseURL == "" {
			return fmt.Errorf("GATEWAY_BASE_URL is required for the studio backend")
		}
	case "openai":
		if c.Gateway.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai backend")
		}
	default:
		return fmt.Errorf("unknown GATEWAY_BACKEND %q", c.Gateway.Backend)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}
