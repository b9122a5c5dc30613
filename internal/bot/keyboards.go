package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

// Tracked currencies offered in the selection menu
var currencies = []struct {
	Label  string
	Symbol string
}{
	{"₿ Bitcoin (BTC)", "BTC"},
	{"Ξ Ethereum (ETH)", "ETH"},
	{"BNB Binance Coin (BNB)", "BNB"},
	{"SOL Solana (SOL)", "SOL"},
	{"XRP Ripple (XRP)", "XRP"},
}

var currencyNames = map[string]string{
	"BTC": "Bitcoin",
	"ETH": "Ethereum",
	"BNB": "Binance Coin",
	"SOL": "Solana",
	"XRP": "Ripple",
}

var periodNames = map[string]string{
	"day":   "day",
	"week":  "week",
	"month": "month",
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func dataBtn(label, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, data)
}

func welcomeKeyboard(hasSubscription bool) tgbotapi.InlineKeyboardMarkup {
	if hasSubscription {
		return tgbotapi.NewInlineKeyboardMarkup(
			row(dataBtn("📊 Choose currency", "choose_currency")),
			row(dataBtn("👤 Profile", "profile")),
			row(dataBtn("❓ How it works", "how_it_works")),
			row(dataBtn("⚙️ Settings", "settings")),
		)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row(dataBtn("💳 Buy subscription", "buy_subscription")),
		row(dataBtn("👤 Profile", "profile")),
		row(dataBtn("❓ How it works", "how_it_works")),
	)
}

func subscriptionSuccessKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(dataBtn("📊 Choose currency", "choose_currency")),
		row(dataBtn("👤 Profile", "profile")),
		row(dataBtn("⚙️ Settings", "settings")),
	)
}

func profileKeyboard(hasSubscription bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		row(dataBtn("📊 My tracking", "my_tracking")),
	}
	if !hasSubscription {
		rows = append(rows, row(dataBtn("💳 Buy subscription", "buy_subscription")))
	}
	rows = append(rows, row(dataBtn("🔙 Back", "back_to_main")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func paymentKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(dataBtn("🔄 Check payment", "check_payment")),
		row(dataBtn("❌ Cancel payment", "cancel_payment")),
		row(dataBtn("🔙 Back", "back_to_main")),
	)
}

func invoiceKeyboard(payURL string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(tgbotapi.NewInlineKeyboardButtonURL("💳 Open payment page", payURL)),
		row(dataBtn("🔄 Check payment", "check_payment")),
		row(dataBtn("❌ Cancel payment", "cancel_payment")),
		row(dataBtn("🔙 Back", "buy_subscription")),
	)
}

func currencyKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(currencies)+1)
	for _, c := range currencies {
		rows = append(rows, row(dataBtn(c.Label, "track_"+c.Symbol)))
	}
	rows = append(rows, row(dataBtn("🔙 Back", "back_to_main")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func trackingMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(dataBtn("📈 Choose another currency", "choose_currency")),
		row(dataBtn("📊 My tracking", "my_tracking")),
		row(dataBtn("👤 Profile", "profile")),
		row(dataBtn("⚙️ Settings", "settings")),
		row(dataBtn("🔙 Main menu", "back_to_main")),
	)
}

func myTrackingKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(dataBtn("📈 Choose another currency", "choose_currency")),
		row(dataBtn("👤 Profile", "profile")),
		row(dataBtn("🔙 Back", "back_to_main")),
	)
}

func settingsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(dataBtn("⏱ Notification interval", "settings_interval")),
		row(dataBtn("📊 Price change threshold", "settings_threshold")),
		row(dataBtn("📝 Notification format", "settings_format")),
		row(dataBtn("🔙 Back", "back_to_main")),
	)
}

func intervalSettingsKeyboard() tgbotapi.InlineKeyboardMarkup {
	intervals := []int{1, 2, 5, 10, 15}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(intervals)+1)
	for _, m := range intervals {
		label := fmt.Sprintf("%d min", m)
		rows = append(rows, row(dataBtn(label, fmt.Sprintf("set_interval_%d", m))))
	}
	rows = append(rows, row(dataBtn("🔙 Back", "settings")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func thresholdSettingsKeyboard() tgbotapi.InlineKeyboardMarkup {
	thresholds := []string{"0.1", "0.5", "1", "2", "3", "5"}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(thresholds)+1)
	for _, t := range thresholds {
		rows = append(rows, row(dataBtn(t+"%", "set_threshold_"+t)))
	}
	rows = append(rows, row(dataBtn("🔙 Back", "settings")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatSettingsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(dataBtn("Plain", "set_format_plain")),
		row(dataBtn("Compact", "set_format_compact")),
		row(dataBtn("Detailed", "set_format_detailed")),
		row(dataBtn("🔙 Back", "settings")),
	)
}

func subscriptionPeriodsKeyboard(prices map[string]decimal.Decimal) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 4)
	for _, period := range []string{"day", "week", "month"} {
		price, ok := prices[period]
		if !ok {
			continue
		}
		label := fmt.Sprintf("%s - %s USDT", periodNames[period], price.String())
		rows = append(rows, row(dataBtn(label, "subscribe_"+period)))
	}
	rows = append(rows, row(dataBtn("🔙 Back", "back_to_main")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Admin keyboards

func adminMainKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(dataBtn("👥 Manage users", "admin_users")),
		row(dataBtn("💰 Manage subscription", "admin_subscription")),
		row(dataBtn("📊 Statistics", "admin_stats")),
		row(dataBtn("📢 Broadcast", "admin_broadcast")),
		row(dataBtn("🔙 Back", "back_to_main")),
	)
}

func adminUsersKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(dataBtn("➕ Grant subscription", "admin_give_sub")),
		row(dataBtn("➖ Revoke subscription", "admin_remove_sub")),
		row(dataBtn("📋 User list", "admin_user_list")),
		row(dataBtn("🔙 Back", "admin_main")),
	)
}

func adminBackKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(dataBtn("🔙 Back", "admin_main")),
	)
}

func adminBroadcastStartKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(dataBtn("✏️ Write text", "admin_broadcast_text")),
		row(dataBtn("🔙 Back", "admin_main")),
	)
}

func adminBroadcastImageKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(dataBtn("🖼 Attach image", "admin_broadcast_attach_image")),
		row(dataBtn("🚀 Send without image", "admin_broadcast_send_no_image")),
		row(dataBtn("🔙 Back", "admin_broadcast_text")),
	)
}

func adminBroadcastConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(dataBtn("✅ Confirm send", "admin_broadcast_confirm")),
		row(dataBtn("❌ Cancel", "admin_main")),
	)
}

func adminSubscriptionPeriodsKeyboard(prices map[string]decimal.Decimal) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 4)
	for _, period := range []string{"day", "week", "month"} {
		price, ok := prices[period]
		if !ok {
			continue
		}
		label := fmt.Sprintf("✏️ %s (%s USDT)", periodNames[period], price.String())
		rows = append(rows, row(dataBtn(label, "admin_change_price_"+period)))
	}
	rows = append(rows, row(dataBtn("🔙 Back", "admin_main")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
