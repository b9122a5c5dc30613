// Package bot provides the Telegram front end: registration, menus,
// tracking selection, settings and subscription purchase.
package bot

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/trackbot/internal/config"
	"github.com/web3guy0/trackbot/internal/cryptopay"
	"github.com/web3guy0/trackbot/internal/database"
	"github.com/web3guy0/trackbot/internal/pricer"
	"github.com/web3guy0/trackbot/internal/watcher"
)

const welcomeImagePath = "assets/welcome.jpg"
const welcomeImageURL = "https://i.imgur.com/5Xc5HjL.jpg"

var hundred = decimal.NewFromInt(100)

// Bot handles Telegram interactions
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.Config
	db       *database.Database
	prices   *pricer.Client
	payments *cryptopay.Client
	stopCh   chan struct{}

	mu                 sync.Mutex
	broadcast          broadcastSession
	pendingPricePeriod string
}

// New creates the Telegram bot
func New(cfg *config.Config, db *database.Database, prices *pricer.Client, payments *cryptopay.Client) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	log.Info().Str("username", api.Self.UserName).Msg("🤖 Telegram bot connected")

	return &Bot{
		api:      api,
		cfg:      cfg,
		db:       db,
		prices:   prices,
		payments: payments,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins the bot's update listener
func (b *Bot) Start() {
	go b.listenForUpdates()
}

// Stop stops the bot
func (b *Bot) Stop() {
	close(b.stopCh)
}

func (b *Bot) listenForUpdates() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message != nil {
				b.handleMessage(update.Message)
			}
			if update.CallbackQuery != nil {
				b.handleCallback(update.CallbackQuery)
			}
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	log.Debug().
		Int64("chat_id", chatID).
		Str("text", msg.Text).
		Msg("Received message")

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.cmdStart(msg)
		case "help":
			b.cmdHelp(chatID)
		case "admin":
			b.cmdAdmin(msg)
		case "give_sub":
			b.cmdGiveSub(msg)
		case "remove_sub":
			b.cmdRemoveSub(msg)
		case "set_price":
			b.cmdSetPrice(msg)
		default:
			b.SendHTML(chatID, "❓ Unknown command. Use /help for available commands.")
		}
		return
	}

	// Non-command messages only matter inside admin flows.
	b.handleAdminInput(msg)
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	userID := cb.From.ID

	log.Debug().
		Int64("user_id", userID).
		Str("data", data).
		Msg("Received callback")

	b.api.Request(tgbotapi.NewCallback(cb.ID, ""))

	switch {
	case data == "profile":
		b.showProfile(cb)
	case data == "my_tracking":
		b.showMyTracking(cb)
	case data == "how_it_works":
		b.showHowItWorks(cb)
	case data == "choose_currency":
		b.showCurrencyMenu(cb)
	case strings.HasPrefix(data, "track_"):
		b.trackCurrency(cb, strings.TrimPrefix(data, "track_"))
	case data == "settings":
		b.showSettings(cb)
	case data == "settings_interval":
		b.showIntervalSettings(cb)
	case data == "settings_threshold":
		b.showThresholdSettings(cb)
	case data == "settings_format":
		b.showFormatSettings(cb)
	case strings.HasPrefix(data, "set_interval_"):
		b.setInterval(cb, strings.TrimPrefix(data, "set_interval_"))
	case strings.HasPrefix(data, "set_threshold_"):
		b.setThreshold(cb, strings.TrimPrefix(data, "set_threshold_"))
	case strings.HasPrefix(data, "set_format_"):
		b.setFormat(cb, strings.TrimPrefix(data, "set_format_"))
	case data == "buy_subscription":
		b.showSubscriptionPlans(cb)
	case strings.HasPrefix(data, "subscribe_"):
		b.createSubscriptionInvoice(cb, strings.TrimPrefix(data, "subscribe_"))
	case data == "check_payment":
		b.checkPayment(cb)
	case data == "cancel_payment":
		b.cancelPayment(cb)
	case data == "back_to_main":
		b.backToMain(cb)
	case strings.HasPrefix(data, "admin_"):
		b.handleAdminCallback(cb)
	}
}

// Commands

func (b *Bot) cmdStart(msg *tgbotapi.Message) {
	userID := msg.From.ID
	username := msg.From.UserName
	if username == "" {
		username = "unknown"
	}

	if err := b.db.AddUser(userID, username); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to register user")
		b.SendHTML(msg.Chat.ID, "❌ Something went wrong. Please try again later.")
		return
	}

	hasSub := b.db.IsSubscribed(userID)
	keyboard := welcomeKeyboard(hasSub)

	photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileURL(welcomeImageURL))
	if _, err := os.Stat(welcomeImagePath); err == nil {
		photo = tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FilePath(welcomeImagePath))
	}
	photo.Caption = welcomeText(hasSub)
	photo.ParseMode = tgbotapi.ModeHTML
	photo.ReplyMarkup = keyboard

	if _, err := b.api.Send(photo); err != nil {
		log.Warn().Err(err).Msg("Welcome photo failed, sending text")
		b.sendHTMLWithKeyboard(msg.Chat.ID, welcomeText(hasSub), keyboard)
	}

	log.Info().Int64("user_id", userID).Str("username", username).Msg("User started the bot")
}

func (b *Bot) cmdHelp(chatID int64) {
	text := "📚 <b>Crypto Tracker commands</b>\n\n" +
		"/start - main menu\n" +
		"/help - this message\n\n" +
		"Everything else works through the inline menu: pick a currency, " +
		"tune the threshold and format in settings, and the bot will message " +
		"you when the price moves."
	b.SendHTML(chatID, text)
}

func welcomeText(hasSubscription bool) string {
	status := "🔔 Buy a subscription to get started"
	if hasSubscription {
		status = "✅ Your subscription is active!"
	}
	return "👋 <b>Welcome to Crypto Tracker Bot!</b>\n\n" +
		"🤖 I watch crypto prices for you and send alerts when they move.\n\n" + status
}

// Menu screens

func (b *Bot) showProfile(cb *tgbotapi.CallbackQuery) {
	userID := cb.From.ID
	hasSub := b.db.IsSubscribed(userID)

	subInfo := "❌ Not active"
	if hasSub {
		subInfo = "✅ Active (unlimited)"
		if end, err := b.db.SubscriptionEnd(userID); err == nil && end != nil {
			left := time.Until(*end)
			days := int(left.Hours()) / 24
			hours := int(left.Hours()) % 24
			minutes := int(left.Minutes()) % 60
			subInfo = fmt.Sprintf("✅ Active\n⏱ Time left: %dd %dh %dm", days, hours, minutes)
		}
	}

	text := fmt.Sprintf("👤 <b>Your profile</b>\n\n🆔 ID: <code>%d</code>\n🔖 Subscription: <b>%s</b>", userID, subInfo)
	b.editHTML(cb, text, profileKeyboard(hasSub))
}

func (b *Bot) showMyTracking(cb *tgbotapi.CallbackQuery) {
	userID := cb.From.ID
	trackers, err := b.db.Tracking(userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load tracking")
		b.answerAlert(cb, "❌ Failed to load your tracking")
		return
	}

	var text string
	if len(trackers) == 0 {
		text = "📊 <b>My tracking</b>\n\n" +
			"❌ You are not tracking any currency yet.\n\n" +
			"Pick one below to get started."
	} else {
		text = "📊 <b>My tracking:</b>\n\n"
		for _, t := range trackers {
			glyph := "➡️"
			if t.LastPrice.GreaterThan(t.InitialPrice) {
				glyph = "📈"
			} else if t.LastPrice.LessThan(t.InitialPrice) {
				glyph = "📉"
			}
			changePct := "0.00"
			if t.InitialPrice.IsPositive() {
				changePct = t.LastPrice.Sub(t.InitialPrice).
					Div(t.InitialPrice).
					Mul(hundred).StringFixed(2)
			}
			text += fmt.Sprintf("<b>%s</b>\n%s $%s → $%s (%s%%)\n\n",
				t.Symbol, glyph, t.InitialPrice.StringFixed(2), t.LastPrice.StringFixed(2), changePct)
		}
	}
	b.editHTML(cb, text, myTrackingKeyboard())
}

func (b *Bot) showHowItWorks(cb *tgbotapi.CallbackQuery) {
	text := "❓ <b>How Crypto Tracker works:</b>\n\n" +
		"1️⃣ <b>Pick a currency</b> - one of 5 popular coins\n" +
		"2️⃣ <b>Start tracking</b> - the bot watches the price for you\n" +
		"3️⃣ <b>Get alerts</b> - a message on every significant move\n" +
		"4️⃣ <b>Tune it</b> - set your own threshold and format\n\n" +
		"⚙️ <b>Settings:</b>\n" +
		"• Notification interval (1-15 minutes)\n" +
		"• Price change threshold (0.1%-5%)\n" +
		"• Notification format (plain/compact/detailed)\n\n" +
		"💰 <b>Subscription:</b>\n" +
		"• Unlocks all features\n" +
		"• Track several currencies at once\n" +
		"• Personal notification settings"
	b.editHTML(cb, text, welcomeKeyboard(b.db.IsSubscribed(cb.From.ID)))
}

func (b *Bot) showCurrencyMenu(cb *tgbotapi.CallbackQuery) {
	if !b.requireSubscription(cb) {
		return
	}
	text := "📊 <b>Choose a cryptocurrency to track:</b>\n\nPick one of the popular coins below:"
	b.editHTML(cb, text, currencyKeyboard())
}

func (b *Bot) trackCurrency(cb *tgbotapi.CallbackQuery, symbol string) {
	if !b.requireSubscription(cb) {
		return
	}
	userID := cb.From.ID

	price, err := b.prices.GetPrice(symbol)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Int64("user_id", userID).Msg("Price lookup failed")
		b.answerAlert(cb, "❌ Failed to fetch the current price")
		return
	}

	if err := b.db.SetTracking(userID, symbol, price); err != nil {
		log.Error().Err(err).Str("symbol", symbol).Int64("user_id", userID).Msg("Failed to save tracker")
		b.answerAlert(cb, "❌ Failed to start tracking")
		return
	}

	name := currencyNames[symbol]
	if name == "" {
		name = symbol
	}
	settings, _ := b.db.UserSettings(userID)

	text := fmt.Sprintf(
		"✅ <b>Tracking started!</b>\n\n"+
			"📊 Currency: <b>%s (%s)</b>\n"+
			"💰 Current price: <b>$%s</b>\n"+
			"⏱ Interval: <b>%d min</b>\n"+
			"📊 Threshold: <b>%s%%</b>\n\n"+
			"🔔 You will get alerts in the <b>%s</b> format.",
		name, symbol, price.StringFixed(2),
		settings.IntervalMinutes, settings.Threshold.String(), settings.Format)

	b.editHTML(cb, text, trackingMenuKeyboard())
	log.Info().Int64("user_id", userID).Str("symbol", symbol).Str("price", price.StringFixed(2)).Msg("Tracking started")
}

// Settings screens

func (b *Bot) showSettings(cb *tgbotapi.CallbackQuery) {
	if !b.requireSubscription(cb) {
		return
	}
	settings, _ := b.db.UserSettings(cb.From.ID)
	text := fmt.Sprintf(
		"⚙️ <b>Notification settings</b>\n\n"+
			"⏱ Check interval: <b>%d min</b>\n"+
			"📊 Change threshold: <b>%s%%</b>\n"+
			"📝 Format: <b>%s</b>\n\n"+
			"Pick a setting to change:",
		settings.IntervalMinutes, settings.Threshold.String(), settings.Format)
	b.editHTML(cb, text, settingsKeyboard())
}

func (b *Bot) showIntervalSettings(cb *tgbotapi.CallbackQuery) {
	if !b.requireSubscription(cb) {
		return
	}
	b.editHTML(cb, "⏱ <b>Pick a notification interval:</b>", intervalSettingsKeyboard())
}

func (b *Bot) showThresholdSettings(cb *tgbotapi.CallbackQuery) {
	if !b.requireSubscription(cb) {
		return
	}
	b.editHTML(cb, "📊 <b>Pick a price change threshold:</b>\n\nAlerts fire only on moves bigger than this:", thresholdSettingsKeyboard())
}

func (b *Bot) showFormatSettings(cb *tgbotapi.CallbackQuery) {
	if !b.requireSubscription(cb) {
		return
	}
	b.editHTML(cb, "📝 <b>Pick a notification format:</b>", formatSettingsKeyboard())
}

func (b *Bot) setInterval(cb *tgbotapi.CallbackQuery, raw string) {
	if !b.requireSubscription(cb) {
		return
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		b.answerAlert(cb, "❌ Invalid interval")
		return
	}
	if err := b.db.UpdateInterval(cb.From.ID, minutes); err != nil {
		b.answerAlert(cb, "❌ Failed to update the interval")
		return
	}
	text := fmt.Sprintf("✅ <b>Interval updated!</b>\n\nPrices are now checked every <b>%d min</b>.", minutes)
	b.editHTML(cb, text, settingsKeyboard())
}

func (b *Bot) setThreshold(cb *tgbotapi.CallbackQuery, raw string) {
	if !b.requireSubscription(cb) {
		return
	}
	threshold, err := decimal.NewFromString(raw)
	if err != nil || !threshold.IsPositive() {
		b.answerAlert(cb, "❌ Invalid threshold")
		return
	}
	if err := b.db.UpdateThreshold(cb.From.ID, threshold); err != nil {
		b.answerAlert(cb, "❌ Failed to update the threshold")
		return
	}
	text := fmt.Sprintf("✅ <b>Threshold updated!</b>\n\nYou will be notified on moves over <b>%s%%</b>.", threshold.String())
	b.editHTML(cb, text, settingsKeyboard())
}

func (b *Bot) setFormat(cb *tgbotapi.CallbackQuery, format string) {
	if !b.requireSubscription(cb) {
		return
	}
	switch format {
	case watcher.FormatPlain, watcher.FormatCompact, watcher.FormatDetailed:
	default:
		b.answerAlert(cb, "❌ Unknown format")
		return
	}
	if err := b.db.UpdateFormat(cb.From.ID, format); err != nil {
		b.answerAlert(cb, "❌ Failed to update the format")
		return
	}
	text := fmt.Sprintf("✅ <b>Format updated!</b>\n\nYour alerts will use the <b>%s</b> format.", format)
	b.editHTML(cb, text, settingsKeyboard())
}

func (b *Bot) backToMain(cb *tgbotapi.CallbackQuery) {
	hasSub := b.db.IsSubscribed(cb.From.ID)
	b.editHTML(cb, welcomeText(hasSub), welcomeKeyboard(hasSub))
}

// requireSubscription answers with an alert and returns false for users
// without an active subscription.
func (b *Bot) requireSubscription(cb *tgbotapi.CallbackQuery) bool {
	if b.db.IsSubscribed(cb.From.ID) {
		return true
	}
	b.answerAlert(cb, "⚠️ You need an active subscription first!")
	return false
}

// Send helpers

// SendHTML delivers an HTML-formatted message to a chat. The watcher uses
// this as its notification sink.
func (b *Bot) SendHTML(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendHTMLWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = keyboard
	_, err := b.api.Send(msg)
	return err
}

// editHTML rewrites the message behind a callback in place. Menu messages
// may carry a photo (caption) or be plain text; try both before falling
// back to a fresh message.
func (b *Bot) editHTML(cb *tgbotapi.CallbackQuery, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	if len(cb.Message.Photo) > 0 {
		edit := tgbotapi.NewEditMessageCaption(chatID, messageID, text)
		edit.ParseMode = tgbotapi.ModeHTML
		edit.ReplyMarkup = &keyboard
		if _, err := b.api.Send(edit); err == nil {
			return
		}
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err == nil {
		return
	}

	if err := b.sendHTMLWithKeyboard(chatID, text, keyboard); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send menu message")
	}
}

func (b *Bot) answerAlert(cb *tgbotapi.CallbackQuery, text string) {
	b.api.Request(tgbotapi.NewCallbackWithAlert(cb.ID, text))
}
