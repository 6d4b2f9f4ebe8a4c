package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	Port         int
	LogLevel     string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	dbPath := os.Getenv("MEALBUDDY_DB_PATH")
	if dbPath == "" {
		dbPath = "data/mealbuddy.db"
	}

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil || p <= 0 || p > 65535 {
			return nil, fmt.Errorf("PORT environment variable is not a valid port: %q", portStr)
		}
		port = p
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("LOG_LEVEL environment variable must be one of debug, info, warn, error; got %q", logLevel)
	}

	return &Config{
		DatabasePath: dbPath,
		Port:         port,
		LogLevel:     logLevel,
	}, nil
}
