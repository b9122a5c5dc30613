// Package watcher runs the background price check loop: every tick it
// refreshes the last observed price of each tracked (user, symbol) pair and
// notifies the owner when the move crosses their threshold.
package watcher

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/trackbot/internal/database"
)

// TrackerStore is the slice of the database the watcher needs
type TrackerStore interface {
	ListTrackersWithSettings() ([]database.TrackerRow, error)
	SetTracking(userID int64, symbol string, price decimal.Decimal) error
}

// PriceSource supplies current spot prices
type PriceSource interface {
	GetPrice(symbol string) (decimal.Decimal, error)
}

// Notifier delivers rendered alerts to users
type Notifier interface {
	SendHTML(chatID int64, text string) error
}

// Watcher is the long-lived price check loop
type Watcher struct {
	store    TrackerStore
	prices   PriceSource
	notifier Notifier
	interval time.Duration
	stopCh   chan struct{}
}

// New creates a watcher ticking at the given interval
func New(store TrackerStore, prices PriceSource, notifier Notifier, interval time.Duration) *Watcher {
	return &Watcher{
		store:    store,
		prices:   prices,
		notifier: notifier,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the loop in a goroutine. It runs until Stop.
func (w *Watcher) Start() {
	go func() {
		for {
			w.tick()
			select {
			case <-time.After(w.interval):
			case <-w.stopCh:
				return
			}
		}
	}()
	log.Info().Dur("interval", w.interval).Msg("Price watcher started")
}

// Stop terminates the loop
func (w *Watcher) Stop() {
	close(w.stopCh)
}

type watchedSymbol struct {
	symbol    string
	lastPrice decimal.Decimal
}

type userWatch struct {
	userID    int64
	username  string
	threshold decimal.Decimal
	format    string
	symbols   []watchedSymbol
}

// tick runs one full pass over all trackers. Failures are isolated: a bad
// price fetch skips one symbol, a failed delivery skips one user, and a
// store failure skips the whole round. The loop itself never stops here.
func (w *Watcher) tick() {
	rows, err := w.store.ListTrackersWithSettings()
	if err != nil {
		log.Error().Err(err).Msg("Price check failed to load trackers")
		return
	}
	log.Debug().Int("rows", len(rows)).Msg("Checking prices")

	for _, watch := range groupByUser(rows) {
		for _, tracked := range watch.symbols {
			current, err := w.prices.GetPrice(tracked.symbol)
			if err != nil {
				log.Error().Err(err).Str("symbol", tracked.symbol).Msg("Price fetch failed")
				continue
			}

			// The fresh price is always persisted, threshold or not.
			if err := w.store.SetTracking(watch.userID, tracked.symbol, current); err != nil {
				log.Error().Err(err).
					Int64("user_id", watch.userID).
					Str("symbol", tracked.symbol).
					Msg("Failed to store price")
			}

			// No baseline yet: nothing to compare against.
			if tracked.lastPrice.IsZero() {
				continue
			}

			changePct := current.Sub(tracked.lastPrice).Abs().
				Div(tracked.lastPrice).
				Mul(decimal.NewFromInt(100))

			log.Debug().
				Int64("user_id", watch.userID).
				Str("symbol", tracked.symbol).
				Str("last", tracked.lastPrice.StringFixed(2)).
				Str("current", current.StringFixed(2)).
				Str("change_pct", changePct.StringFixed(2)).
				Str("threshold", watch.threshold.String()).
				Msg("Price compared")

			if changePct.LessThan(watch.threshold) {
				continue
			}

			text := FormatAlert(tracked.symbol, tracked.lastPrice, current, changePct, watch.format)
			if err := w.notifier.SendHTML(watch.userID, text); err != nil {
				log.Error().Err(err).
					Int64("user_id", watch.userID).
					Str("symbol", tracked.symbol).
					Msg("Failed to deliver alert")
				continue
			}
			log.Info().
				Int64("user_id", watch.userID).
				Str("username", watch.username).
				Str("symbol", tracked.symbol).
				Str("change_pct", changePct.StringFixed(2)).
				Msg("Alert sent")
		}
	}
}

// groupByUser folds the flat snapshot into per-user watches, preserving
// row order. Rows without a symbol are users that track nothing; they are
// dropped here.
func groupByUser(rows []database.TrackerRow) []userWatch {
	index := make(map[int64]int, len(rows))
	watches := make([]userWatch, 0, len(rows))

	for _, row := range rows {
		if row.Symbol == "" {
			continue
		}
		i, ok := index[row.UserID]
		if !ok {
			i = len(watches)
			index[row.UserID] = i
			watches = append(watches, userWatch{
				userID:    row.UserID,
				username:  row.Username,
				threshold: row.ThresholdPct,
				format:    row.Format,
			})
		}
		watches[i].symbols = append(watches[i].symbols, watchedSymbol{
			symbol:    row.Symbol,
			lastPrice: row.LastPrice,
		})
	}
	return watches
}
