package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port int

	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPassword string
	RedisPort     string

	// Doma registry configuration
	Doma DomaConfig

	// Search-trend provider configuration
	SerpAPI SerpAPIConfig

	// LLM configuration
	LLM LLMConfig

	// Scoring configuration
	Scoring ScoringConfig
}

// DomaConfig holds Doma registry API configuration
type DomaConfig struct {
	BaseURL          string
	APIKey           string
	PollIntervalSecs int
	MaxEventsPerPoll int
	RequestTimeoutMs int
}

// SerpAPIConfig holds search-trend provider configuration
type SerpAPIConfig struct {
	Enabled          bool
	BaseURL          string
	APIKey           string
	DailyLimit       int
	UseMockData      bool
	RequestTimeoutMs int
	CacheTTLMinutes  int
}

// LLMConfig holds LLM enrichment configuration
type LLMConfig struct {
	Enabled     bool
	Endpoint    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	TimeoutMs   int
}

// ScoringConfig holds trend scoring parameters
type ScoringConfig struct {
	FreshnessHours    int // max age before a stored score is stale
	InsightTTLHours   int // max age before a cached AI insight regenerates
	TrendAnalysisDays int
	StaleCheckMinutes int // how often the stale refresher scans
	StaleBatchLimit   int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port: getEnvInt("PORT", 8080),

		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "domatrend"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "domatrend"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "domatrend123"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		// Doma registry configuration
		Doma: DomaConfig{
			BaseURL:          getEnvOrDefault("DOMA_API_BASE", "https://api-testnet.doma.xyz"),
			APIKey:           os.Getenv("DOMA_API_KEY"),
			PollIntervalSecs: getEnvInt("POLL_INTERVAL_SECONDS", 30),
			MaxEventsPerPoll: getEnvInt("MAX_EVENTS_PER_POLL", 50),
			RequestTimeoutMs: getEnvInt("DOMA_TIMEOUT_MS", 30000),
		},

		// Search-trend provider configuration
		SerpAPI: SerpAPIConfig{
			Enabled:          getEnvOrDefault("SERPAPI_ENABLED", "false") == "true",
			BaseURL:          getEnvOrDefault("SERPAPI_BASE_URL", "https://serpapi.com/search"),
			APIKey:           os.Getenv("SERPAPI_API_KEY"),
			DailyLimit:       getEnvInt("SERPAPI_DAILY_LIMIT", 10),
			UseMockData:      getEnvOrDefault("SERPAPI_USE_MOCK", "true") == "true",
			RequestTimeoutMs: getEnvInt("SERPAPI_TIMEOUT_MS", 8000),
			CacheTTLMinutes:  getEnvInt("SERPAPI_CACHE_TTL_MINUTES", 60),
		},

		// LLM configuration
		LLM: LLMConfig{
			Enabled:     getEnvOrDefault("LLM_ENABLED", "false") == "true",
			Endpoint:    getEnvOrDefault("LLM_ENDPOINT", "https://api.openai.com/v1"),
			APIKey:      os.Getenv("LLM_API_KEY"),
			Model:       getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 400),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
			TimeoutMs:   getEnvInt("LLM_TIMEOUT_MS", 20000),
		},

		// Scoring configuration
		Scoring: ScoringConfig{
			FreshnessHours:    getEnvInt("SCORE_UPDATE_INTERVAL_HOURS", 6),
			InsightTTLHours:   getEnvInt("INSIGHT_TTL_HOURS", 6),
			TrendAnalysisDays: getEnvInt("TREND_ANALYSIS_DAYS", 30),
			StaleCheckMinutes: getEnvInt("STALE_CHECK_MINUTES", 60),
			StaleBatchLimit:   getEnvInt("STALE_BATCH_LIMIT", 25),
		},
	}
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
