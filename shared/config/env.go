package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvBool reads "true"/"false" style values; anything unparseable yields the default
func GetEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("Ignoring invalid boolean environment variable", "key", key, "value", value)
		return defaultValue
	}
	return b
}

// GetEnvDuration parses values like "400ms" or "30m". Invalid or non-positive
// values fall back to the default with a warning.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("Ignoring invalid duration environment variable", "key", key, "value", value)
		return defaultValue
	}
	return d
}

// GetEnvRequired gets an environment variable and panics if not set
func GetEnvRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
