package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port     string
	LogLevel string

	BackendURL     string
	BackendTimeout time.Duration
	BackendRPS     float64

	AggregationConcurrency int

	RedisAddr  string
	SessionTTL time.Duration

	Database    Database
	CORSOrigins []string
}

// Database is optional. An empty Host means suggestions live in memory.
type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func (d Database) Enabled() bool {
	return d.Host != ""
}

// Load reads the process environment. A .env file in the working directory
// is loaded first when present.
func Load() (*Config, error) {
	cfg := &Config{
		Port:       getenv("PORT", "8080"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		BackendURL: strings.TrimSpace(os.Getenv("BACKEND_URL")),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		Database: Database{
			Host:     os.Getenv("DB_HOST"),
			Port:     getenv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_DATABASE"),
		},
		CORSOrigins: splitList(getenv("CORS_ORIGINS", "http://localhost:5173")),
	}
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL environment variable is required")
	}

	var err error
	if cfg.BackendTimeout, err = durationEnv("BACKEND_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	rps, err := strconv.ParseFloat(getenv("BACKEND_RPS", "20"), 64)
	if err != nil || rps < 0 {
		return nil, fmt.Errorf("BACKEND_RPS must be a non-negative number")
	}
	cfg.BackendRPS = rps

	conc, err := strconv.Atoi(getenv("AGGREGATION_CONCURRENCY", "8"))
	if err != nil || conc < 1 {
		return nil, fmt.Errorf("AGGREGATION_CONCURRENCY must be a positive integer")
	}
	cfg.AggregationConcurrency = conc

	if cfg.Database.Enabled() {
		if cfg.Database.User == "" {
			return nil, fmt.Errorf("DB_USERNAME environment variable is required")
		}
		if cfg.Database.Name == "" {
			return nil, fmt.Errorf("DB_DATABASE environment variable is required")
		}
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
