package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the bot
type Config struct {
	// Telegram
	TelegramToken string
	AdminID       int64

	// CryptoCompare price API
	CryptoAPIKey string

	// CryptoBot payment API
	CryptoPayToken string
	CryptoPayURL   string
	PayButtonURL   string

	// Price watcher
	PollInterval     time.Duration
	DefaultThreshold decimal.Decimal

	// Mode
	Debug bool

	// Database
	DatabasePath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		// Telegram
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		// Price API
		CryptoAPIKey: os.Getenv("CRYPTO_API_KEY"),

		// Payments
		CryptoPayToken: os.Getenv("CRYPTO_PAY_TOKEN"),
		CryptoPayURL:   getEnv("CRYPTO_PAY_URL", "https://pay.crypt.bot/api"),
		PayButtonURL:   getEnv("PAY_BUTTON_URL", "https://t.me/CryptoWatchTracker_bot"),

		// Watcher
		PollInterval:     getEnvDuration("POLL_INTERVAL", 180*time.Second),
		DefaultThreshold: getEnvDecimal("DEFAULT_THRESHOLD", decimal.NewFromFloat(1.0)),

		Debug: getEnvBool("DEBUG", false),

		// Database
		DatabasePath: getEnv("DATABASE_PATH", "data/trackbot.db"),
	}

	// Parse admin ID
	if adminID := os.Getenv("ADMIN_ID"); adminID != "" {
		id, err := strconv.ParseInt(adminID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_ID: %w", err)
		}
		cfg.AdminID = id
	}

	// Validate required fields
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.CryptoAPIKey == "" {
		return nil, fmt.Errorf("CRYPTO_API_KEY is required")
	}
	if cfg.AdminID == 0 {
		return nil, fmt.Errorf("ADMIN_ID is required")
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
