package watcher

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Notification format variants
const (
	FormatPlain    = "plain"
	FormatCompact  = "compact"
	FormatDetailed = "detailed"
)

// FormatAlert renders a price-change notification body in Telegram HTML.
// The up glyph is used only when the new price is strictly greater.
// Unknown variants fall back to the plain format.
func FormatAlert(symbol string, oldPrice, newPrice, changePct decimal.Decimal, variant string) string {
	glyph := "📉"
	if newPrice.GreaterThan(oldPrice) {
		glyph = "📈"
	}

	switch variant {
	case FormatCompact:
		return fmt.Sprintf("%s <b>%s</b> $%s (%s %s%%)",
			glyph, symbol, newPrice.StringFixed(2), glyph, changePct.StringFixed(2))

	case FormatDetailed:
		return fmt.Sprintf(
			"%s <b>%s price change</b>\n\n"+
				"💰 Previous price: <code>$%s</code>\n"+
				"💵 Current price: <code>$%s</code>\n"+
				"📊 Change: <b>%s %s%%</b>\n"+
				"⏰ %s",
			glyph, symbol,
			oldPrice.StringFixed(2),
			newPrice.StringFixed(2),
			glyph, changePct.StringFixed(2),
			time.Now().Format("15:04:05"))

	default:
		return fmt.Sprintf(
			"%s <b>%s price change</b>\n\n"+
				"💰 Old price: <code>$%s</code>\n"+
				"💵 New price: <code>$%s</code>\n"+
				"📊 Change: <b>%s %s%%</b>",
			glyph, symbol,
			oldPrice.StringFixed(2),
			newPrice.StringFixed(2),
			glyph, changePct.StringFixed(2))
	}
}
