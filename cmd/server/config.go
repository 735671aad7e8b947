package main

import (
	"fmt"
	"os"
	"time"
)

// config is read from the environment.
type config struct {
	LogLevel    string
	Development bool
	Port        string

	// DatabaseURL selects PostgreSQL; empty serves the built-in demo data.
	DatabaseURL string
	MaxConns    int

	// FiltersFile holds custom filter definitions (.xml, .xml.gz, .xml.zst).
	// With a database it is published to the database at startup.
	FiltersFile string

	// JWTSecret enables bearer authentication when set.
	JWTSecret string
	TokenTTL  time.Duration
}

func loadConfig() config {
	return config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
		Port:        getEnv("APP_PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MaxConns:    getEnvInt("DB_MAX_CONNS", 16),
		FiltersFile: getEnv("FILTERS_FILE", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		TokenTTL:    getEnvDuration("JWT_TTL", 15*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
