package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Storage
	PostgresURL    string
	RedisURL       string
	MaxRetries     int
	RetryBaseDelay time.Duration

	// Upstream competition data
	FootballDataURL   string
	FootballDataToken string
	LeagueCodes       []string
	UpstreamTimeout   time.Duration
	CacheTTL          time.Duration

	// Inference
	ModelDir    string
	WorkerCount int
	QueueSize   int
	MaxGoals    int

	// Backfill
	BackfillDelay time.Duration
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		MaxRetries:     getEnvInt("STORAGE_MAX_RETRIES", 3),
		RetryBaseDelay: getEnvDuration("STORAGE_RETRY_BASE_DELAY", time.Second),

		FootballDataURL: getEnv("FOOTBALL_DATA_URL", "https://api.football-data.org/v4"),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		CacheTTL:        getEnvDuration("UPSTREAM_CACHE_TTL", 5*time.Minute),

		ModelDir:    getEnv("MODEL_DIR", "./assets/models"),
		WorkerCount: getEnvInt("WORKER_COUNT", 4),
		QueueSize:   getEnvInt("QUEUE_SIZE", 64),
		MaxGoals:    getEnvInt("MAX_GOALS", 10),

		BackfillDelay: getEnvDuration("BACKFILL_DELAY", 1200*time.Millisecond),

		RedisURL: getEnv("REDIS_URL", ""),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// League codes shown in the browse endpoints (e.g. PL,BL1,SA)
	codes := getEnv("LEAGUE_CODES", "PL,PD,BL1,SA,FL1")
	for _, c := range strings.Split(codes, ",") {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			cfg.LeagueCodes = append(cfg.LeagueCodes, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.FootballDataToken, err = getEnvRequired("FOOTBALL_DATA_TOKEN"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
