// Trackbot - Telegram crypto price tracker
//
// Users subscribe (paid via CryptoBot invoices), pick currencies to track,
// and receive alerts when prices move past their personal threshold.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/trackbot/internal/bot"
	"github.com/web3guy0/trackbot/internal/config"
	"github.com/web3guy0/trackbot/internal/cryptopay"
	"github.com/web3guy0/trackbot/internal/database"
	"github.com/web3guy0/trackbot/internal/pricer"
	"github.com/web3guy0/trackbot/internal/watcher"
)

const version = "1.0.0"

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load environment
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().
		Str("version", version).
		Dur("poll_interval", cfg.PollInterval).
		Msg("⚡ Trackbot starting...")

	// Initialize database
	db, err := database.New(cfg.DatabasePath, cfg.AdminID, cfg.DefaultThreshold)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Price feed
	prices := pricer.NewClient(cfg.CryptoAPIKey)

	// Payments
	payments := cryptopay.NewClient(cfg.CryptoPayURL, cfg.CryptoPayToken, cfg.PayButtonURL)
	if !payments.Enabled() {
		log.Warn().Msg("⚠️ CRYPTO_PAY_TOKEN not set - subscription purchases disabled")
	}

	// Telegram bot
	tgBot, err := bot.New(cfg, db, prices, payments)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start Telegram bot")
	}

	// Background price watcher
	priceWatcher := watcher.New(db, prices, tgBot, cfg.PollInterval)
	priceWatcher.Start()

	tgBot.Start()
	log.Info().Msg("🟢 Trackbot online")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("Shutting down...")
	priceWatcher.Stop()
	tgBot.Stop()
}
