package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration. Load fills AppConfig once at
// startup; middleware and handlers read it from there.
type Config struct {
	DatabaseURL      string
	JWTSecret        string
	RedisURL         string
	GeminiAPIKey     string
	GeminiModel      string
	Port             string
	ObservationDays  int
	SourceTimeout    time.Duration
	ExplainTimeout   time.Duration
	SnapshotCacheTTL time.Duration
}

// AppConfig holds the application-wide configuration
var AppConfig Config

// Load reads configuration from the environment, applying defaults for
// everything except the database URL and JWT secret.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		RedisURL:     os.Getenv("REDIS_URL"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		Port:         getEnv("PORT", "3000"),
	}

	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is not set")
	}

	var err error
	if cfg.ObservationDays, err = getInt("OBSERVATION_DAYS", 30); err != nil {
		return cfg, err
	}
	if cfg.ObservationDays <= 0 {
		return cfg, fmt.Errorf("OBSERVATION_DAYS must be positive, got %d", cfg.ObservationDays)
	}
	if cfg.SourceTimeout, err = getDuration("SOURCE_TIMEOUT", 5*time.Second); err != nil {
		return cfg, err
	}
	if cfg.ExplainTimeout, err = getDuration("EXPLAIN_TIMEOUT", 15*time.Second); err != nil {
		return cfg, err
	}
	if cfg.SnapshotCacheTTL, err = getDuration("SNAPSHOT_CACHE_TTL", 168*time.Hour); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
