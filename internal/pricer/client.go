// Package pricer provides spot prices from the CryptoCompare min-api.
package pricer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://min-api.cryptocompare.com"

// Client fetches USD spot prices for crypto symbols
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a new CryptoCompare client
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
	}
}

// GetPrice returns the current USD price for a symbol.
// Any failure (network, bad status, missing field) comes back as an error;
// callers treat it as "no price this round".
func (c *Client) GetPrice(symbol string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/data/price?fsym=%s&tsyms=USD&api_key=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price request for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price request for %s: HTTP %d", symbol, resp.StatusCode)
	}

	var data map[string]json.Number
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return decimal.Zero, fmt.Errorf("price response for %s: %w", symbol, err)
	}

	raw, ok := data["USD"]
	if !ok {
		return decimal.Zero, fmt.Errorf("price response for %s: no USD quote", symbol)
	}

	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("price response for %s: %w", symbol, err)
	}

	log.Debug().Str("symbol", symbol).Str("price", price.StringFixed(2)).Msg("Price fetched")
	return price, nil
}
