package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Venue APIs
	PolymarketGammaURL string
	PolymarketCLOBURL  string
	KalshiAPIURL       string

	// Venue pagination
	PolymarketPageSize       int
	KalshiPageSize           int
	VenuePageDelay           time.Duration
	VenueRateLimitDelay      time.Duration
	VenueRateLimitMaxRetries int
	VenueMaxPages            int
	VenueHTTPTimeout         time.Duration

	// Refresh and matching
	RefreshInterval    time.Duration
	MatchMinConfidence float64
	MatchMinProfitPct  float64

	// Execution
	ExecutionMode       string // "paper" or "live"
	ExecutionMaxStake   float64
	ExecutionLegTimeout time.Duration

	// Cache
	OpportunityCacheTTL time.Duration

	// Storage
	StorageMode  string // "memory", "console" or "postgres"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
// Variables from a .env file in the working directory are loaded first and
// never override variables already set.
func LoadFromEnv() (*Config, error) {
	err := loadDotEnv(".env")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Venue API defaults
		PolymarketGammaURL: getEnvOrDefault("POLYMARKET_GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		PolymarketCLOBURL:  getEnvOrDefault("POLYMARKET_CLOB_API_URL", "https://clob.polymarket.com"),
		KalshiAPIURL:       getEnvOrDefault("KALSHI_API_URL", "https://api.elections.kalshi.com/trade-api/v2"),

		// Pagination defaults
		PolymarketPageSize:       getIntOrDefault("POLYMARKET_PAGE_SIZE", 100),
		KalshiPageSize:           getIntOrDefault("KALSHI_PAGE_SIZE", 200),
		VenuePageDelay:           getDurationOrDefault("VENUE_PAGE_DELAY", 500*time.Millisecond),
		VenueRateLimitDelay:      getDurationOrDefault("VENUE_RATE_LIMIT_DEFAULT_DELAY", 2*time.Second),
		VenueRateLimitMaxRetries: getIntOrDefault("VENUE_RATE_LIMIT_MAX_RETRIES", 5),
		VenueMaxPages:            getIntOrDefault("VENUE_MAX_PAGES", 500),
		VenueHTTPTimeout:         getDurationOrDefault("VENUE_HTTP_TIMEOUT", 30*time.Second),

		// Refresh and matching defaults
		RefreshInterval:    getDurationOrDefault("REFRESH_INTERVAL", 30*time.Second),
		MatchMinConfidence: getFloat64OrDefault("MATCH_MIN_CONFIDENCE", 0.4),
		MatchMinProfitPct:  getFloat64OrDefault("MATCH_MIN_PROFIT_PCT", 0.5),

		// Execution defaults
		ExecutionMode:       getEnvOrDefault("EXECUTION_MODE", "paper"),
		ExecutionMaxStake:   getFloat64OrDefault("EXECUTION_MAX_STAKE", 100),
		ExecutionLegTimeout: getDurationOrDefault("EXECUTION_LEG_TIMEOUT", 30*time.Second),

		// Cache defaults
		OpportunityCacheTTL: getDurationOrDefault("OPPORTUNITY_CACHE_TTL", 5*time.Minute),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "memory"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "crossarb"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "crossarb"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "crossvenue_arb"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.PolymarketGammaURL == "" {
		return fmt.Errorf("POLYMARKET_GAMMA_API_URL cannot be empty")
	}

	if c.PolymarketCLOBURL == "" {
		return fmt.Errorf("POLYMARKET_CLOB_API_URL cannot be empty")
	}

	if c.KalshiAPIURL == "" {
		return fmt.Errorf("KALSHI_API_URL cannot be empty")
	}

	if c.PolymarketPageSize <= 0 || c.KalshiPageSize <= 0 {
		return fmt.Errorf("page sizes must be positive, got polymarket=%d kalshi=%d", c.PolymarketPageSize, c.KalshiPageSize)
	}

	if c.VenuePageDelay < 0 {
		return fmt.Errorf("VENUE_PAGE_DELAY cannot be negative, got %v", c.VenuePageDelay)
	}

	if c.VenueRateLimitMaxRetries < 0 {
		return fmt.Errorf("VENUE_RATE_LIMIT_MAX_RETRIES cannot be negative, got %d", c.VenueRateLimitMaxRetries)
	}

	if c.RefreshInterval < 0 {
		return fmt.Errorf("REFRESH_INTERVAL cannot be negative, got %v", c.RefreshInterval)
	}

	if c.MatchMinConfidence < 0 || c.MatchMinConfidence > 1 {
		return fmt.Errorf("MATCH_MIN_CONFIDENCE must be between 0 and 1, got %f", c.MatchMinConfidence)
	}

	if c.ExecutionMode != "paper" && c.ExecutionMode != "live" {
		return fmt.Errorf("EXECUTION_MODE must be 'paper' or 'live', got %q", c.ExecutionMode)
	}

	if c.ExecutionMaxStake < 0 {
		return fmt.Errorf("EXECUTION_MAX_STAKE cannot be negative, got %f", c.ExecutionMaxStake)
	}

	switch c.StorageMode {
	case "memory", "console", "postgres":
	default:
		return fmt.Errorf("STORAGE_MODE must be 'memory', 'console' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
