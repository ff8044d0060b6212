// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DatabaseURL  string        // PostgreSQL; empty means no SQL store
	RedisURL     string        // Redis store, or cache in front of PostgreSQL
	CacheTTL     time.Duration // read-through cache lifetime
	LogLevel     string
	LogPretty    bool
	SyncDelay    time.Duration // simulated broker latency
	SyncRate     int           // broker fetches per second, 0 = unlimited
	SectorsFile  string        // optional YAML sector table override
	MockDataFile string        // optional YAML broker dataset override
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8080),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		RedisURL:     getEnv("REDIS_URL", ""),
		CacheTTL:     getEnvAsDuration("CACHE_TTL", 30*time.Second),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    getEnvAsBool("LOG_PRETTY", false),
		SyncDelay:    getEnvAsDuration("SYNC_DELAY", time.Second),
		SyncRate:     getEnvAsInt("SYNC_RATE", 5),
		SectorsFile:  getEnv("SECTORS_FILE", ""),
		MockDataFile: getEnv("MOCK_DATA_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	if c.SyncDelay < 0 {
		return fmt.Errorf("SYNC_DELAY cannot be negative, got %s", c.SyncDelay)
	}
	if c.SyncRate < 0 {
		return fmt.Errorf("SYNC_RATE cannot be negative, got %d", c.SyncRate)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
