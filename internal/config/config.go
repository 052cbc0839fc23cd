package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all externally supplied settings. Policy knobs (quota budget,
// call costs, result limits) are configuration, not hardcoded constants.
type Config struct {
	Port        string
	LogLevel    string
	Environment string
	CORSOrigins string

	// YouTube Data API
	YouTubeAPIKey string
	YouTubeAPIURL string

	// Quota tracking
	DailyQuota    int
	QuotaFile     string
	QuotaCosts    map[string]int
	ResetTimezone string

	// Optional backing services
	DatabaseURL string
	RedisURL    string

	// Search policy
	DefaultMaxResults int
	MaxMaxResults     int
	SearchWorkers     int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		YouTubeAPIKey: getEnv("YOUTUBE_API_KEY", ""),
		YouTubeAPIURL: getEnv("YOUTUBE_API_URL", "https://www.googleapis.com/youtube/v3"),

		DailyQuota:    getEnvInt("DAILY_QUOTA", 10000),
		QuotaFile:     getEnv("QUOTA_FILE", "quota_usage.json"),
		QuotaCosts:    parseCosts(getEnv("QUOTA_COSTS", "")),
		ResetTimezone: getEnv("QUOTA_RESET_TZ", "America/Los_Angeles"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		DefaultMaxResults: getEnvInt("DEFAULT_MAX_RESULTS", 50),
		MaxMaxResults:     getEnvInt("MAX_MAX_RESULTS", 100),
		SearchWorkers:     getEnvInt("SEARCH_WORKERS", 4),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// parseCosts parses a per-call-type cost table override of the form
// "search=100,channels=1,playlistItems=1". Malformed entries are skipped;
// defaults live in the quota package.
func parseCosts(raw string) map[string]int {
	costs := make(map[string]int)
	if raw == "" {
		return costs
	}
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			continue
		}
		costs[strings.TrimSpace(k)] = n
	}
	return costs
}
