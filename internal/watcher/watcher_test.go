package watcher

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/web3guy0/trackbot/internal/database"
)

type storedPrice struct {
	userID int64
	symbol string
	price  decimal.Decimal
}

type fakeStore struct {
	rows    []database.TrackerRow
	listErr error
	stored  []storedPrice
}

func (s *fakeStore) ListTrackersWithSettings() ([]database.TrackerRow, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	// Hand out copies so ticks observe what a real store would return.
	rows := make([]database.TrackerRow, len(s.rows))
	copy(rows, s.rows)
	return rows, nil
}

func (s *fakeStore) SetTracking(userID int64, symbol string, price decimal.Decimal) error {
	s.stored = append(s.stored, storedPrice{userID, symbol, price})
	// Mirror the write back into the snapshot, like the real table.
	for i := range s.rows {
		if s.rows[i].UserID == userID && s.rows[i].Symbol == symbol {
			s.rows[i].LastPrice = price
		}
	}
	return nil
}

type fakeSource struct {
	prices  map[string]decimal.Decimal
	fetches []string
}

func (f *fakeSource) GetPrice(symbol string) (decimal.Decimal, error) {
	f.fetches = append(f.fetches, symbol)
	price, ok := f.prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no quote for %s", symbol)
	}
	return price, nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	sent    []sentMessage
	failFor map[int64]bool
}

func (n *fakeNotifier) SendHTML(chatID int64, text string) error {
	if n.failFor[chatID] {
		return fmt.Errorf("chat %d unreachable", chatID)
	}
	n.sent = append(n.sent, sentMessage{chatID, text})
	return nil
}

func row(userID int64, symbol string, last float64, threshold float64) database.TrackerRow {
	return database.TrackerRow{
		UserID:          userID,
		Username:        fmt.Sprintf("user%d", userID),
		IntervalMinutes: 5,
		ThresholdPct:    decimal.NewFromFloat(threshold),
		Format:          FormatPlain,
		Symbol:          symbol,
		LastPrice:       decimal.NewFromFloat(last),
	}
}

func newTestWatcher(store *fakeStore, source *fakeSource, notifier *fakeNotifier) *Watcher {
	return New(store, source, notifier, 0)
}

func TestTick_ConstantPriceConverges(t *testing.T) {
	store := &fakeStore{rows: []database.TrackerRow{row(1, "BTC", 100, 1.0)}}
	source := &fakeSource{prices: map[string]decimal.Decimal{"BTC": decimal.NewFromInt(100)}}
	notifier := &fakeNotifier{}
	w := newTestWatcher(store, source, notifier)

	for i := 0; i < 3; i++ {
		w.tick()
	}

	require.Len(t, store.stored, 3, "every tick persists the fresh price")
	for _, s := range store.stored {
		require.True(t, s.price.Equal(decimal.NewFromInt(100)))
	}
	require.Empty(t, notifier.sent, "no alert for a flat price")
}

func TestTick_ThresholdBoundary(t *testing.T) {
	notify := func(newPrice float64) []sentMessage {
		store := &fakeStore{rows: []database.TrackerRow{row(1, "BTC", 100, 1.0)}}
		source := &fakeSource{prices: map[string]decimal.Decimal{"BTC": decimal.NewFromFloat(newPrice)}}
		notifier := &fakeNotifier{}
		newTestWatcher(store, source, notifier).tick()
		return notifier.sent
	}

	// 1.00% change meets a 1.0% threshold exactly.
	sent := notify(101.00)
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].text, "1.00%")

	// 0.99% stays below it.
	require.Empty(t, notify(100.99))
}

func TestTick_NoBaselineStillPersists(t *testing.T) {
	r := row(1, "SOL", 0, 1.0)
	store := &fakeStore{rows: []database.TrackerRow{r}}
	source := &fakeSource{prices: map[string]decimal.Decimal{"SOL": decimal.NewFromInt(500)}}
	notifier := &fakeNotifier{}

	newTestWatcher(store, source, notifier).tick()

	require.Len(t, store.stored, 1)
	require.True(t, store.stored[0].price.Equal(decimal.NewFromInt(500)))
	require.Empty(t, notifier.sent, "no baseline means no comparison")
}

func TestTick_PerSymbolIsolation(t *testing.T) {
	store := &fakeStore{rows: []database.TrackerRow{
		row(1, "BTC", 100, 1.0),
		row(1, "ETH", 100, 1.0),
	}}
	// BTC has no quote this round; ETH moved 5%.
	source := &fakeSource{prices: map[string]decimal.Decimal{"ETH": decimal.NewFromInt(105)}}
	notifier := &fakeNotifier{}

	newTestWatcher(store, source, notifier).tick()

	require.Len(t, store.stored, 1, "only the symbol with a quote is persisted")
	require.Equal(t, "ETH", store.stored[0].symbol)
	require.Len(t, notifier.sent, 1)
	require.Contains(t, notifier.sent[0].text, "ETH")
}

func TestTick_DeliveryFailureIsolatedPerUser(t *testing.T) {
	store := &fakeStore{rows: []database.TrackerRow{
		row(1, "BTC", 100, 1.0),
		row(2, "BTC", 100, 1.0),
	}}
	source := &fakeSource{prices: map[string]decimal.Decimal{"BTC": decimal.NewFromInt(110)}}
	notifier := &fakeNotifier{failFor: map[int64]bool{1: true}}

	newTestWatcher(store, source, notifier).tick()

	require.Len(t, store.stored, 2, "both trackers persist despite the failed delivery")
	require.Len(t, notifier.sent, 1)
	require.Equal(t, int64(2), notifier.sent[0].chatID)
}

func TestTick_UsersWithoutTrackersAreSkipped(t *testing.T) {
	bare := database.TrackerRow{UserID: 7, Username: "idle", IntervalMinutes: 5,
		ThresholdPct: decimal.NewFromFloat(1.0), Format: FormatPlain}
	store := &fakeStore{rows: []database.TrackerRow{bare}}
	source := &fakeSource{prices: map[string]decimal.Decimal{}}
	notifier := &fakeNotifier{}

	newTestWatcher(store, source, notifier).tick()

	require.Empty(t, source.fetches, "no price work for a user with no trackers")
	require.Empty(t, store.stored)
	require.Empty(t, notifier.sent)
}

func TestTick_StoreFailureSkipsRound(t *testing.T) {
	store := &fakeStore{listErr: fmt.Errorf("store unavailable")}
	source := &fakeSource{prices: map[string]decimal.Decimal{}}
	notifier := &fakeNotifier{}

	newTestWatcher(store, source, notifier).tick()

	require.Empty(t, source.fetches)
	require.Empty(t, notifier.sent)
}

func TestTick_EndToEnd(t *testing.T) {
	store := &fakeStore{rows: []database.TrackerRow{row(42, "ETH", 2000, 2.0)}}
	source := &fakeSource{prices: map[string]decimal.Decimal{"ETH": decimal.NewFromInt(2050)}}
	notifier := &fakeNotifier{}

	newTestWatcher(store, source, notifier).tick()

	require.Len(t, store.stored, 1)
	require.Equal(t, storedPrice{42, "ETH", decimal.NewFromInt(2050)}, store.stored[0])

	require.Len(t, notifier.sent, 1)
	msg := notifier.sent[0]
	require.Equal(t, int64(42), msg.chatID)
	require.Contains(t, msg.text, "ETH")
	require.Contains(t, msg.text, "2000.00")
	require.Contains(t, msg.text, "2050.00")
	require.Contains(t, msg.text, "2.50%")
}
