package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      int
	DatabasePath    string
	Env             string // "development" or "production"
	CORSOrigins     []string
	SessionTTL      time.Duration
	SweepSchedule   string // cron expression for the expired-session sweep
	RateLimitMax    int
	RateLimitWindow time.Duration
	LogLevel        string
}

// IsProduction reports whether the app runs in a production-classified
// environment; it controls the Secure flag on the session cookie.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first, if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, err
	}

	ttlHours, err := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "168"))
	if err != nil {
		return nil, err
	}

	rateMax, err := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "100"))
	if err != nil {
		return nil, err
	}

	rateWindowMin, err := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_MINUTES", "15"))
	if err != nil {
		return nil, err
	}

	var origins []string
	for _, o := range strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		ServerPort:      port,
		DatabasePath:    getEnv("DATABASE_PATH", "./taskify.db"),
		Env:             getEnv("APP_ENV", "development"),
		CORSOrigins:     origins,
		SessionTTL:      time.Duration(ttlHours) * time.Hour,
		SweepSchedule:   getEnv("SESSION_SWEEP_SCHEDULE", "@hourly"),
		RateLimitMax:    rateMax,
		RateLimitWindow: time.Duration(rateWindowMin) * time.Minute,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
