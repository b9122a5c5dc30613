package database

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const adminID int64 = 999

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"), adminID, decimal.NewFromFloat(1.0))
	require.NoError(t, err)
	return db
}

func TestAddUser_Idempotent(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.AddUser(1, "alice"))
	require.NoError(t, db.AddUser(1, "renamed"))

	stats, err := db.GetUserStats()
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Total)

	users, err := db.AllUsers()
	require.NoError(t, err)
	require.Equal(t, "alice", users[0].Username, "re-registration must not touch the record")
}

func TestUserSettings_Defaults(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AddUser(1, "alice"))

	settings, err := db.UserSettings(1)
	require.NoError(t, err)
	require.Equal(t, 5, settings.IntervalMinutes)
	require.True(t, settings.Threshold.Equal(decimal.NewFromFloat(1.0)))
	require.Equal(t, "plain", settings.Format)

	// Unknown users fall back to the same defaults.
	settings, err = db.UserSettings(404)
	require.NoError(t, err)
	require.Equal(t, 5, settings.IntervalMinutes)
}

func TestUpdateSettings(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AddUser(1, "alice"))

	require.NoError(t, db.UpdateInterval(1, 15))
	require.NoError(t, db.UpdateThreshold(1, decimal.NewFromFloat(2.5)))
	require.NoError(t, db.UpdateFormat(1, "compact"))

	settings, err := db.UserSettings(1)
	require.NoError(t, err)
	require.Equal(t, 15, settings.IntervalMinutes)
	require.True(t, settings.Threshold.Equal(decimal.NewFromFloat(2.5)))
	require.Equal(t, "compact", settings.Format)
}

func TestSetTracking_InitialPriceImmutable(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AddUser(1, "alice"))

	require.NoError(t, db.SetTracking(1, "BTC", decimal.NewFromInt(100)))
	require.NoError(t, db.SetTracking(1, "BTC", decimal.NewFromInt(110)))

	trackers, err := db.Tracking(1)
	require.NoError(t, err)
	require.Len(t, trackers, 1, "one tracker per (user, symbol)")
	require.True(t, trackers[0].InitialPrice.Equal(decimal.NewFromInt(100)))
	require.True(t, trackers[0].LastPrice.Equal(decimal.NewFromInt(110)))
}

func TestIsSubscribed(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AddUser(1, "alice"))

	require.False(t, db.IsSubscribed(1))
	require.True(t, db.IsSubscribed(adminID), "admin always has access")

	require.NoError(t, db.SetSubscription(1, true, 30))
	require.True(t, db.IsSubscribed(1))

	end, err := db.SubscriptionEnd(1)
	require.NoError(t, err)
	require.NotNil(t, end)

	require.NoError(t, db.SetSubscription(1, false, 0))
	require.False(t, db.IsSubscribed(1))
}

func TestIsSubscribed_ExpiryResetsStatus(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AddUser(1, "alice"))

	// An end date in the past means the subscription lapsed.
	require.NoError(t, db.SetSubscription(1, true, -1))
	require.False(t, db.IsSubscribed(1))

	end, err := db.SubscriptionEnd(1)
	require.NoError(t, err)
	require.Nil(t, end, "expired subscription is reset on read")
}

func TestListTrackersWithSettings(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AddUser(1, "alice"))
	require.NoError(t, db.AddUser(2, "bob"))
	require.NoError(t, db.SetTracking(1, "BTC", decimal.NewFromInt(100)))
	require.NoError(t, db.SetTracking(1, "ETH", decimal.NewFromInt(2000)))

	rows, err := db.ListTrackersWithSettings()
	require.NoError(t, err)
	require.Len(t, rows, 3, "two tracker rows for alice plus a bare row for bob")

	var symbols []string
	for _, r := range rows {
		if r.UserID == 1 {
			symbols = append(symbols, r.Symbol)
			require.Equal(t, "alice", r.Username)
			require.Equal(t, 5, r.IntervalMinutes)
			require.True(t, r.ThresholdPct.Equal(decimal.NewFromFloat(1.0)))
		} else {
			require.Equal(t, int64(2), r.UserID)
			require.Empty(t, r.Symbol)
		}
	}
	require.ElementsMatch(t, []string{"BTC", "ETH"}, symbols)
}

func TestInvoiceLifecycle(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AddUser(1, "alice"))

	amount := decimal.NewFromFloat(0.5)
	require.NoError(t, db.AddInvoice(1, 12345, "abc123", amount, "USDT"))

	active, err := db.ActiveInvoice(1)
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, int64(12345), active.InvoiceID)
	require.Equal(t, "active", active.Status)
	require.True(t, active.Amount.Equal(amount))

	require.NoError(t, db.UpdateInvoiceStatus(12345, "paid"))

	active, err = db.ActiveInvoice(1)
	require.NoError(t, err)
	require.Nil(t, active, "paid invoices are no longer active")

	invoice, err := db.InvoiceByID(12345)
	require.NoError(t, err)
	require.Equal(t, "paid", invoice.Status)
}

func TestSubscriptionPrices_SeededAndUpdatable(t *testing.T) {
	db := newTestDB(t)

	prices, err := db.SubscriptionPrices()
	require.NoError(t, err)
	require.Len(t, prices, 3)
	require.True(t, prices["day"].Equal(decimal.NewFromFloat(0.1)))
	require.True(t, prices["week"].Equal(decimal.NewFromFloat(0.5)))
	require.True(t, prices["month"].Equal(decimal.NewFromFloat(1.0)))

	require.NoError(t, db.SetSubscriptionPrice("month", decimal.NewFromFloat(2.5)))
	prices, err = db.SubscriptionPrices()
	require.NoError(t, err)
	require.True(t, prices["month"].Equal(decimal.NewFromFloat(2.5)))
}

func TestGetUserStats(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AddUser(1, "alice"))
	require.NoError(t, db.AddUser(2, "bob"))
	require.NoError(t, db.SetSubscription(1, true, 30))

	stats, err := db.GetUserStats()
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Total)
	require.Equal(t, int64(1), stats.Subscribed)
	require.Equal(t, int64(1), stats.Unsubscribed)
}
