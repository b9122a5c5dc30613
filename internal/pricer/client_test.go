package pricer

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	c := NewClient("test-key")
	c.baseURL = baseURL
	return c
}

func TestGetPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/price", r.URL.Path)
		require.Equal(t, "BTC", r.URL.Query().Get("fsym"))
		require.Equal(t, "USD", r.URL.Query().Get("tsyms"))
		require.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"USD":64123.45}`))
	}))
	defer server.Close()

	price, err := newTestClient(server.URL).GetPrice("BTC")
	require.NoError(t, err)
	require.Equal(t, "64123.45", price.StringFixed(2))
}

func TestGetPrice_MissingQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"EUR":59000.12}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetPrice("NOPE")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no USD quote")
}

func TestGetPrice_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetPrice("BTC")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}
