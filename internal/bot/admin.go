package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const adminPanelText = "👑 <b>Crypto Tracker admin panel</b>\n\n" +
	"Welcome to the control panel.\n" +
	"Pick an action from the menu below:"

func (b *Bot) isAdmin(userID int64) bool {
	return userID == b.cfg.AdminID
}

func (b *Bot) cmdAdmin(msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		b.SendHTML(msg.Chat.ID, "❌ You have no access to the admin panel!")
		return
	}
	b.sendHTMLWithKeyboard(msg.Chat.ID, adminPanelText, adminMainKeyboard())
	log.Info().Int64("user_id", msg.From.ID).Msg("Admin opened the control panel")
}

func (b *Bot) handleAdminCallback(cb *tgbotapi.CallbackQuery) {
	if !b.isAdmin(cb.From.ID) {
		return
	}
	data := cb.Data

	switch {
	case data == "admin_main":
		b.mu.Lock()
		b.broadcast.reset()
		b.pendingPricePeriod = ""
		b.mu.Unlock()
		b.editHTML(cb, adminPanelText, adminMainKeyboard())

	case data == "admin_users":
		text := "👥 <b>User management</b>\n\nManage user subscriptions here:"
		b.editHTML(cb, text, adminUsersKeyboard())

	case data == "admin_user_list":
		b.showUserList(cb)

	case data == "admin_give_sub":
		text := "➕ <b>Grant a subscription</b>\n\n" +
			"Send the command:\n<code>/give_sub [user_id]</code>\n\n" +
			"Example: <code>/give_sub 123456789</code>"
		b.editHTML(cb, text, adminBackKeyboard())

	case data == "admin_remove_sub":
		text := "➖ <b>Revoke a subscription</b>\n\n" +
			"Send the command:\n<code>/remove_sub [user_id]</code>\n\n" +
			"Example: <code>/remove_sub 123456789</code>"
		b.editHTML(cb, text, adminBackKeyboard())

	case data == "admin_stats":
		b.showStats(cb)

	case data == "admin_subscription":
		b.showPriceManagement(cb)

	case strings.HasPrefix(data, "admin_change_price_"):
		b.askNewPrice(cb, strings.TrimPrefix(data, "admin_change_price_"))

	case data == "admin_broadcast":
		text := "📢 <b>Broadcast</b>\n\nCompose a message for every bot user."
		b.editHTML(cb, text, adminBroadcastStartKeyboard())

	case data == "admin_broadcast_text":
		b.mu.Lock()
		b.broadcast.begin()
		b.mu.Unlock()
		b.editHTML(cb, "✏️ <b>Send the broadcast text:</b>", adminBackKeyboard())

	case data == "admin_broadcast_attach_image":
		b.editHTML(cb, "🖼 <b>Send the image for the broadcast:</b>", adminBackKeyboard())

	case data == "admin_broadcast_send_no_image":
		b.mu.Lock()
		err := b.broadcast.skipImage()
		text := b.broadcast.text
		b.mu.Unlock()
		if err != nil {
			b.answerAlert(cb, "❌ Write the broadcast text first")
			return
		}
		b.editHTML(cb, broadcastPreviewText(text), adminBroadcastConfirmKeyboard())

	case data == "admin_broadcast_confirm":
		b.runBroadcast(cb)
	}
}

func (b *Bot) showUserList(cb *tgbotapi.CallbackQuery) {
	users, err := b.db.AllUsers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load user list")
		b.answerAlert(cb, "❌ Failed to load the list")
		return
	}

	var text string
	if len(users) == 0 {
		text = "👥 <b>User list</b>\n\n❌ No registered users yet."
	} else {
		text = "👥 <b>User list:</b>\n\n"
		shown := users
		if len(shown) > 15 {
			shown = shown[:15]
		}
		for _, u := range shown {
			status := "❌"
			if u.Subscribed {
				status = "✅"
			}
			name := "@" + u.Username
			if u.Username == "" {
				name = fmt.Sprintf("ID: %d", u.UserID)
			}
			text += fmt.Sprintf("• %s %s (<code>%d</code>)\n", status, name, u.UserID)
		}
		if len(users) > 15 {
			text += fmt.Sprintf("\n<i>Showing the first 15 of %d users</i>", len(users))
		}
	}
	b.editHTML(cb, text, adminUsersKeyboard())
}

func (b *Bot) showStats(cb *tgbotapi.CallbackQuery) {
	stats, err := b.db.GetUserStats()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load stats")
		b.answerAlert(cb, "❌ Failed to load statistics")
		return
	}
	text := fmt.Sprintf(
		"📊 <b>Bot statistics</b>\n\n"+
			"👥 Total users: <b>%d</b>\n"+
			"✅ Subscribed: <b>%d</b>\n"+
			"❌ Without subscription: <b>%d</b>",
		stats.Total, stats.Subscribed, stats.Unsubscribed)
	b.editHTML(cb, text, adminBackKeyboard())
}

// Subscription price management. Prices are read from the store on every
// screen render.

func (b *Bot) showPriceManagement(cb *tgbotapi.CallbackQuery) {
	prices, err := b.db.SubscriptionPrices()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load subscription prices")
		b.answerAlert(cb, "❌ Failed to load prices")
		return
	}

	pricesList := ""
	for _, period := range []string{"day", "week", "month"} {
		if price, ok := prices[period]; ok {
			pricesList += fmt.Sprintf("• %s: <b>%s USDT</b>\n", periodNames[period], price.String())
		}
	}
	text := "💰 <b>Subscription management</b>\n\n" +
		"Current prices:\n" + pricesList + "\n" +
		"Pick a period to change its price:"
	b.editHTML(cb, text, adminSubscriptionPeriodsKeyboard(prices))
}

func (b *Bot) askNewPrice(cb *tgbotapi.CallbackQuery, period string) {
	if _, ok := periodDays[period]; !ok {
		b.answerAlert(cb, "❌ Unknown period")
		return
	}

	current := "?"
	if prices, err := b.db.SubscriptionPrices(); err == nil {
		if price, ok := prices[period]; ok {
			current = price.String()
		}
	}

	b.mu.Lock()
	b.pendingPricePeriod = period
	b.mu.Unlock()

	text := fmt.Sprintf(
		"✏️ <b>Change the %s subscription price</b>\n\n"+
			"Current price: <b>%s USDT</b>\n\n"+
			"Send the new price in USDT (for example 0.5 or 1.25):",
		periodNames[period], current)
	b.editHTML(cb, text, adminBackKeyboard())
}

// Admin text/photo input: price entry and broadcast composition.

func (b *Bot) handleAdminInput(msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}

	b.mu.Lock()
	pricePeriod := b.pendingPricePeriod
	state := b.broadcast.state
	b.mu.Unlock()

	if pricePeriod != "" && msg.Text != "" {
		b.applyNewPrice(msg, pricePeriod)
		return
	}

	switch state {
	case broadcastCollectingText:
		if msg.Text == "" {
			return
		}
		b.mu.Lock()
		err := b.broadcast.inputText(msg.Text)
		b.mu.Unlock()
		if err != nil {
			return
		}
		b.sendHTMLWithKeyboard(msg.Chat.ID, "Text saved. Attach an image?", adminBroadcastImageKeyboard())

	case broadcastCollectingImage:
		if len(msg.Photo) == 0 {
			return
		}
		fileID := msg.Photo[len(msg.Photo)-1].FileID
		b.mu.Lock()
		err := b.broadcast.inputPhoto(fileID)
		text := b.broadcast.text
		b.mu.Unlock()
		if err != nil {
			return
		}

		photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileID(fileID))
		photo.Caption = broadcastPreviewText(text)
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = adminBroadcastConfirmKeyboard()
		if _, err := b.api.Send(photo); err != nil {
			log.Error().Err(err).Msg("Failed to send broadcast preview")
		}
	}
}

func (b *Bot) applyNewPrice(msg *tgbotapi.Message, period string) {
	price, err := decimal.NewFromString(strings.TrimSpace(msg.Text))
	if err != nil || price.IsNegative() {
		b.SendHTML(msg.Chat.ID, "❌ Invalid price. Send a number, for example 0.5 or 1.25:")
		return
	}

	if err := b.db.SetSubscriptionPrice(period, price); err != nil {
		log.Error().Err(err).Str("period", period).Msg("Failed to set subscription price")
		b.SendHTML(msg.Chat.ID, "❌ Failed to change the price.")
		return
	}

	b.mu.Lock()
	b.pendingPricePeriod = ""
	b.mu.Unlock()

	b.SendHTML(msg.Chat.ID, fmt.Sprintf(
		"✅ The %s subscription price is now <b>%s USDT</b>", periodNames[period], price.String()))
	b.sendHTMLWithKeyboard(msg.Chat.ID, adminPanelText, adminMainKeyboard())
	log.Info().Str("period", period).Str("price", price.String()).Msg("Subscription price changed")
}

// Broadcast delivery

func broadcastPreviewText(text string) string {
	preview := "📢 <b>Broadcast preview:</b>\n\n" + text
	if len(preview) > 1024 {
		preview = preview[:1021] + "..."
	}
	return preview
}

func (b *Bot) runBroadcast(cb *tgbotapi.CallbackQuery) {
	b.mu.Lock()
	text, photoID, err := b.broadcast.confirm()
	b.mu.Unlock()
	if err != nil {
		b.answerAlert(cb, "❌ There is no broadcast to send")
		return
	}

	users, loadErr := b.db.AllUsers()
	if loadErr != nil {
		log.Error().Err(loadErr).Msg("Failed to load broadcast recipients")
		b.answerAlert(cb, "❌ Failed to load recipients")
		return
	}

	b.SendHTML(cb.Message.Chat.ID, fmt.Sprintf(
		"🚀 <b>Starting the broadcast...</b>\nRecipients: %d", len(users)))

	sent, failed := 0, 0
	for _, u := range users {
		var sendErr error
		if photoID != "" {
			photo := tgbotapi.NewPhoto(u.UserID, tgbotapi.FileID(photoID))
			photo.Caption = text
			photo.ParseMode = tgbotapi.ModeHTML
			_, sendErr = b.api.Send(photo)
		} else {
			sendErr = b.SendHTML(u.UserID, text)
		}
		if sendErr != nil {
			log.Error().Err(sendErr).Int64("user_id", u.UserID).Str("username", u.Username).Msg("Broadcast delivery failed")
			failed++
			continue
		}
		sent++
	}

	b.sendHTMLWithKeyboard(cb.Message.Chat.ID, fmt.Sprintf(
		"✅ <b>Broadcast finished!</b>\nDelivered: %d\nFailed: %d", sent, failed),
		adminMainKeyboard())
	log.Info().Int("sent", sent).Int("failed", failed).Msg("Broadcast finished")
}

// Admin commands

func (b *Bot) cmdGiveSub(msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}
	userID, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.SendHTML(msg.Chat.ID, "❌ Usage: /give_sub [user_id]")
		return
	}
	if err := b.db.SetSubscription(userID, true, 30); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to grant subscription")
		b.SendHTML(msg.Chat.ID, "❌ Failed to grant the subscription")
		return
	}
	b.SendHTML(msg.Chat.ID, fmt.Sprintf("✅ Subscription granted to <code>%d</code>", userID))
	log.Info().Int64("user_id", userID).Msg("Admin granted a subscription")
}

func (b *Bot) cmdRemoveSub(msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}
	userID, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.SendHTML(msg.Chat.ID, "❌ Usage: /remove_sub [user_id]")
		return
	}
	if err := b.db.SetSubscription(userID, false, 0); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to revoke subscription")
		b.SendHTML(msg.Chat.ID, "❌ Failed to revoke the subscription")
		return
	}
	b.SendHTML(msg.Chat.ID, fmt.Sprintf("✅ Subscription revoked from <code>%d</code>", userID))
	log.Info().Int64("user_id", userID).Msg("Admin revoked a subscription")
}

func (b *Bot) cmdSetPrice(msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}
	price, err := decimal.NewFromString(strings.TrimSpace(msg.CommandArguments()))
	if err != nil || !price.IsPositive() {
		b.SendHTML(msg.Chat.ID, "❌ Usage: /set_price [price]")
		return
	}
	if err := b.db.SetSubscriptionPrice("month", price); err != nil {
		log.Error().Err(err).Msg("Failed to set monthly price")
		b.SendHTML(msg.Chat.ID, "❌ Failed to change the price.")
		return
	}
	b.SendHTML(msg.Chat.ID, fmt.Sprintf(
		"✅ The monthly subscription price is now <b>%s USDT</b>", price.String()))
	log.Info().Str("price", price.String()).Msg("Monthly price changed")
}
