package cryptopay

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCreateInvoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/createInvoice", r.URL.Path)
		require.Equal(t, "test-token", r.Header.Get(tokenHeader))
		w.Write([]byte(`{"ok":true,"result":{"invoice_id":42,"hash":"h42","asset":"USDT","amount":"0.5","pay_url":" https://pay.example/h42 ","status":"active"}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-token", "https://t.me/bot")
	invoice, err := c.CreateInvoice(decimal.NewFromFloat(0.5), "USDT", "subscription")
	require.NoError(t, err)
	require.Equal(t, int64(42), invoice.InvoiceID)
	require.Equal(t, "h42", invoice.Hash)
	require.Equal(t, "https://pay.example/h42", invoice.PayURL, "pay URL is trimmed")
}

func TestCreateInvoice_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":{"name":"AMOUNT_TOO_SMALL","code":400,"message":"amount below minimum"}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-token", "https://t.me/bot")
	_, err := c.CreateInvoice(decimal.NewFromFloat(0.0001), "USDT", "subscription")
	require.Error(t, err)
	require.Contains(t, err.Error(), "AMOUNT_TOO_SMALL")
}

func TestGetInvoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/getInvoices", r.URL.Path)
		require.Equal(t, "42", r.URL.Query().Get("invoice_ids"))
		w.Write([]byte(`{"ok":true,"result":{"items":[{"invoice_id":42,"status":"paid"}]}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-token", "https://t.me/bot")
	invoice, err := c.GetInvoice(42)
	require.NoError(t, err)
	require.Equal(t, "paid", invoice.Status)
}

func TestGetInvoice_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":{"items":[]}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-token", "https://t.me/bot")
	_, err := c.GetInvoice(42)
	require.Error(t, err)
}

func TestCancelInvoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cancelInvoice", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-token", "https://t.me/bot")
	require.NoError(t, c.CancelInvoice(42))
}

func TestClient_NoToken(t *testing.T) {
	c := NewClient("https://pay.example", "", "https://t.me/bot")
	require.False(t, c.Enabled())
	_, err := c.CreateInvoice(decimal.NewFromFloat(1), "USDT", "subscription")
	require.Error(t, err)
}
