package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries the environment-backed settings for the executor. Values are
// read once at startup; godotenv loads a local .env file before this runs.
type Config struct {
	Port                string
	WalletAddress       string
	BaseRPCURL          string
	CoinrankingAPIKey   string
	CoinrankingAPIBase  string
	VincentToolURL      string
	VincentAppVersion   int
	DatabasePath        string
	PostgresDSN         string
	PriceCacheTTL       time.Duration
	ConfirmationTimeout time.Duration
}

func Load() Config {
	return Config{
		Port:                getEnv("PORT", "3000"),
		WalletAddress:       os.Getenv("USER_PKP_ADDRESS"),
		BaseRPCURL:          getEnv("BASE_RPC_URL", "https://mainnet.base.org"),
		CoinrankingAPIKey:   os.Getenv("COINRANKING_API_KEY"),
		CoinrankingAPIBase:  getEnv("COINRANKING_API_BASE", "https://api.coinranking.com"),
		VincentToolURL:      os.Getenv("VINCENT_TOOL_URL"),
		VincentAppVersion:   getEnvInt("VINCENT_APP_VERSION", 11),
		DatabasePath:        getEnv("DATABASE_PATH", "dca.db"),
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
		PriceCacheTTL:       getEnvDuration("PRICE_CACHE_TTL", time.Second),
		ConfirmationTimeout: getEnvDuration("CONFIRMATION_TIMEOUT", 5*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
