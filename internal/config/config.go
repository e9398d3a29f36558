// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// AuthSecret is the HMAC secret used to verify bearer tokens. Required.
	AuthSecret string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// WeatherBaseURL is the base URL of the weather provider API.
	// When empty, weather refresh endpoints report bad_gateway.
	WeatherBaseURL string

	// WeatherAPIKey authenticates against the weather provider.
	WeatherAPIKey string

	// WeatherTimeout bounds each outbound weather provider call.
	// Defaults to 10s. Set WEATHER_TIMEOUT to a Go duration to override.
	WeatherTimeout time.Duration
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is loaded first if present; real
// environment variables take precedence over it.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		WeatherBaseURL: os.Getenv("WEATHER_BASE_URL"),
		WeatherAPIKey:  os.Getenv("WEATHER_API_KEY"),
	}

	timeout, err := time.ParseDuration(getEnv("WEATHER_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("WEATHER_TIMEOUT is not a valid duration: %w", err)
	}
	cfg.WeatherTimeout = timeout

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.AuthSecret = os.Getenv("AUTH_SECRET")
	if cfg.AuthSecret == "" {
		missing = append(missing, "AUTH_SECRET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
