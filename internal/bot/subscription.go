package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

var periodDays = map[string]int{"day": 1, "week": 7, "month": 30}

// showSubscriptionPlans lists the purchase options. The admin gets access
// without paying.
func (b *Bot) showSubscriptionPlans(cb *tgbotapi.CallbackQuery) {
	userID := cb.From.ID

	if userID == b.cfg.AdminID {
		if err := b.db.SetSubscription(userID, true, 3650); err != nil {
			log.Error().Err(err).Msg("Failed to grant admin access")
		}
		text := "👑 <b>Admin access</b>\n\n" +
			"✅ Full access granted automatically.\n\n" +
			"Use /admin to open the control panel."
		b.editHTML(cb, text, subscriptionSuccessKeyboard())
		return
	}

	prices, err := b.db.SubscriptionPrices()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load subscription prices")
		b.answerAlert(cb, "❌ Something went wrong")
		return
	}

	pricesList := ""
	for _, period := range []string{"day", "week", "month"} {
		if price, ok := prices[period]; ok {
			pricesList += fmt.Sprintf("• %s: <b>%s USDT</b>\n", periodNames[period], price.String())
		}
	}

	text := "💳 <b>Buy a subscription</b>\n\n" +
		"✨ <b>What you get:</b>\n" +
		"• Tracking for 5 popular cryptocurrencies\n" +
		"• Price change alerts\n" +
		"• Personal settings\n\n" +
		"<b>Prices:</b>\n" + pricesList + "\n" +
		"Pick a subscription period:"

	b.editHTML(cb, text, subscriptionPeriodsKeyboard(prices))
}

func (b *Bot) createSubscriptionInvoice(cb *tgbotapi.CallbackQuery, period string) {
	userID := cb.From.ID

	days, ok := periodDays[period]
	if !ok {
		b.answerAlert(cb, "❌ Unknown subscription period")
		return
	}

	prices, err := b.db.SubscriptionPrices()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load subscription prices")
		b.answerAlert(cb, "❌ Failed to create the payment")
		return
	}
	amount, ok := prices[period]
	if !ok {
		b.answerAlert(cb, "❌ This period is not for sale right now")
		return
	}

	invoice, err := b.payments.CreateInvoice(amount, "USDT",
		fmt.Sprintf("Crypto Tracker subscription for %d days", days))
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to create invoice")
		b.answerAlert(cb, "❌ Failed to create the payment")
		return
	}

	if err := b.db.AddInvoice(userID, invoice.InvoiceID, invoice.Hash, amount, "USDT"); err != nil {
		log.Error().Err(err).Int64("invoice_id", invoice.InvoiceID).Msg("Failed to store invoice")
	}

	text := fmt.Sprintf(
		"💳 <b>Subscription payment (%s)</b>\n\n"+
			"💰 Amount: <b>%s USDT</b>\n"+
			"🆔 Order: <code>%d</code>\n\n"+
			"Use the button below to pay:",
		periodNames[period], amount.String(), invoice.InvoiceID)

	b.editHTML(cb, text, invoiceKeyboard(invoice.PayURL))
	log.Info().
		Int64("user_id", userID).
		Int64("invoice_id", invoice.InvoiceID).
		Str("period", period).
		Str("amount", amount.String()).
		Msg("Invoice created")
}

func (b *Bot) checkPayment(cb *tgbotapi.CallbackQuery) {
	userID := cb.From.ID

	stored, err := b.db.ActiveInvoice(userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load active invoice")
		b.answerAlert(cb, "❌ Payment check failed")
		return
	}
	if stored == nil {
		text := "❌ <b>No active payment found</b>\n\n" +
			"You have no pending payments to check.\n" +
			"Please create a new one."
		b.editHTML(cb, text, welcomeKeyboard(b.db.IsSubscribed(userID)))
		return
	}

	invoice, err := b.payments.GetInvoice(stored.InvoiceID)
	if err != nil {
		log.Error().Err(err).Int64("invoice_id", stored.InvoiceID).Msg("Failed to check invoice")
		text := "❌ <b>Payment check failed</b>\n\n" +
			"Could not fetch the payment state.\n" +
			"Please try again later."
		b.editHTML(cb, text, paymentKeyboard())
		return
	}

	log.Info().Int64("invoice_id", invoice.InvoiceID).Str("status", invoice.Status).Msg("Invoice status checked")

	switch invoice.Status {
	case "paid", "confirmed":
		if err := b.db.UpdateInvoiceStatus(stored.InvoiceID, invoice.Status); err != nil {
			log.Error().Err(err).Int64("invoice_id", stored.InvoiceID).Msg("Failed to update invoice status")
		}

		// The purchased period is recovered from the amount paid.
		period := "month"
		if prices, err := b.db.SubscriptionPrices(); err == nil {
			for p, price := range prices {
				if price.Equal(stored.Amount) {
					period = p
					break
				}
			}
		}
		days := periodDays[period]

		if err := b.db.SetSubscription(userID, true, days); err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("Failed to activate subscription")
			b.answerAlert(cb, "❌ Payment received but activation failed, contact support")
			return
		}

		text := fmt.Sprintf(
			"✅ <b>Subscription for one %s activated!</b>\n\n"+
				"🎉 Congratulations! You now have full access for %d days.",
			periodNames[period], days)
		b.editHTML(cb, text, subscriptionSuccessKeyboard())
		log.Info().Int64("user_id", userID).Str("period", period).Msg("Subscription activated")

	case "active":
		text := "⏳ <b>Waiting for payment</b>\n\n" +
			"Your payment has not arrived yet.\n" +
			"Finish the payment and press check again."
		b.editHTML(cb, text, invoiceKeyboard(invoice.PayURL))

	case "cancelled", "expired":
		if err := b.db.UpdateInvoiceStatus(stored.InvoiceID, invoice.Status); err != nil {
			log.Error().Err(err).Int64("invoice_id", stored.InvoiceID).Msg("Failed to update invoice status")
		}
		text := fmt.Sprintf(
			"❌ <b>Payment %s</b>\n\nPlease create a new payment.", invoice.Status)
		b.editHTML(cb, text, welcomeKeyboard(b.db.IsSubscribed(userID)))

	default:
		text := fmt.Sprintf(
			"❓ <b>Unknown payment status</b>\n\nStatus: %s\nPlease try again later.", invoice.Status)
		b.editHTML(cb, text, paymentKeyboard())
	}
}

func (b *Bot) cancelPayment(cb *tgbotapi.CallbackQuery) {
	userID := cb.From.ID

	stored, err := b.db.ActiveInvoice(userID)
	if err != nil || stored == nil {
		b.answerAlert(cb, "❌ No active payments to cancel")
		return
	}

	if err := b.payments.CancelInvoice(stored.InvoiceID); err != nil {
		log.Error().Err(err).Int64("invoice_id", stored.InvoiceID).Msg("Failed to cancel invoice")
		b.answerAlert(cb, "❌ Failed to cancel the payment")
		return
	}
	if err := b.db.UpdateInvoiceStatus(stored.InvoiceID, "cancelled"); err != nil {
		log.Error().Err(err).Int64("invoice_id", stored.InvoiceID).Msg("Failed to update invoice status")
	}

	text := "✅ <b>Payment cancelled</b>\n\n" +
		"Your payment was cancelled.\n" +
		"You can create a new one any time."
	b.editHTML(cb, text, welcomeKeyboard(b.db.IsSubscribed(userID)))
	log.Info().Int64("user_id", userID).Int64("invoice_id", stored.InvoiceID).Msg("Payment cancelled")
}
