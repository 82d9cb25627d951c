package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Venue API base URLs
	KalshiAPIURL       string
	PolymarketGammaURL string
	PolymarketClobURL  string

	// Scanner
	ScanInterval    time.Duration
	MinProfitCents  float64
	MatchThreshold  int
	AutoExecute     bool
	OverridesPath   string

	// Market fetch limits
	MaxKalshiMarkets     int
	MaxPolymarketMarkets int

	// Fees (fractions of the winning leg's profit)
	KalshiFeeRate     float64
	PolymarketFeeRate float64

	// Rate limiting (requests per second per venue)
	KalshiMaxRPS     int
	PolymarketMaxRPS int

	// Execution
	MaxPositionUSD   float64
	MaxDailyLossUSD  float64
	CooldownSeconds  float64
	KalshiAPIKeyID   string
	PolymarketAPIKey string
	PolymarketSecret string
	PolymarketPass   string
	PolymarketPK     string

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Venue API defaults
		KalshiAPIURL:       getEnvOrDefault("KALSHI_API_URL", "https://api.elections.kalshi.com/trade-api/v2"),
		PolymarketGammaURL: getEnvOrDefault("POLYMARKET_GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		PolymarketClobURL:  getEnvOrDefault("POLYMARKET_CLOB_API_URL", "https://clob.polymarket.com"),

		// Scanner defaults
		ScanInterval:   getDurationOrDefault("SCAN_INTERVAL", 60*time.Second),
		MinProfitCents: getFloat64OrDefault("MIN_PROFIT_CENTS", 2.0),
		MatchThreshold: getIntOrDefault("MATCH_SIMILARITY_THRESHOLD", 80),
		AutoExecute:    getBoolOrDefault("AUTO_EXECUTE", false),
		OverridesPath:  getEnvOrDefault("MARKET_OVERRIDES_PATH", "market_overrides.json"),

		// Fetch limit defaults
		MaxKalshiMarkets:     getIntOrDefault("MAX_KALSHI_MARKETS", 15000),
		MaxPolymarketMarkets: getIntOrDefault("MAX_POLYMARKET_MARKETS", 5000),

		// Fee defaults
		KalshiFeeRate:     getFloat64OrDefault("KALSHI_FEE_RATE", 0.07),
		PolymarketFeeRate: getFloat64OrDefault("POLYMARKET_FEE_RATE", 0.02),

		// Rate limit defaults
		KalshiMaxRPS:     getIntOrDefault("KALSHI_MAX_RPS", 10),
		PolymarketMaxRPS: getIntOrDefault("POLYMARKET_MAX_RPS", 10),

		// Execution defaults
		MaxPositionUSD:   getFloat64OrDefault("MAX_POSITION_SIZE_USD", 100.0),
		MaxDailyLossUSD:  getFloat64OrDefault("MAX_DAILY_LOSS_USD", 50.0),
		CooldownSeconds:  getFloat64OrDefault("EXECUTION_COOLDOWN_SECONDS", 5.0),
		KalshiAPIKeyID:   os.Getenv("KALSHI_API_KEY_ID"),
		PolymarketAPIKey: os.Getenv("POLYMARKET_API_KEY"),
		PolymarketSecret: os.Getenv("POLYMARKET_SECRET"),
		PolymarketPass:   os.Getenv("POLYMARKET_PASSPHRASE"),
		PolymarketPK:     os.Getenv("POLYMARKET_PRIVATE_KEY"),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "arb"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "arb123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "kalshi_poly_arb"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.KalshiAPIURL == "" {
		return fmt.Errorf("KALSHI_API_URL cannot be empty")
	}

	if c.PolymarketGammaURL == "" {
		return fmt.Errorf("POLYMARKET_GAMMA_API_URL cannot be empty")
	}

	if c.PolymarketClobURL == "" {
		return fmt.Errorf("POLYMARKET_CLOB_API_URL cannot be empty")
	}

	if c.ScanInterval <= 0 {
		return fmt.Errorf("SCAN_INTERVAL must be positive, got %s", c.ScanInterval)
	}

	if c.MatchThreshold < 0 || c.MatchThreshold > 100 {
		return fmt.Errorf("MATCH_SIMILARITY_THRESHOLD must be between 0 and 100, got %d", c.MatchThreshold)
	}

	if c.MinProfitCents < 0 {
		return fmt.Errorf("MIN_PROFIT_CENTS cannot be negative, got %f", c.MinProfitCents)
	}

	if c.KalshiMaxRPS <= 0 || c.PolymarketMaxRPS <= 0 {
		return fmt.Errorf("per-venue max RPS must be positive")
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
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

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
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
