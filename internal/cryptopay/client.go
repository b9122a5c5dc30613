// Package cryptopay wraps the CryptoBot payment API (pay.crypt.bot).
package cryptopay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const tokenHeader = "Crypto-Pay-API-Token"

// Invoice is a payment request tracked by CryptoBot
type Invoice struct {
	InvoiceID int64           `json:"invoice_id"`
	Hash      string          `json:"hash"`
	Asset     string          `json:"asset"`
	Amount    decimal.Decimal `json:"amount"`
	PayURL    string          `json:"pay_url"`
	Status    string          `json:"status"`
}

type apiError struct {
	Name    string `json:"name"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *apiError       `json:"error"`
}

// Client talks to the CryptoBot payment API
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	payBtnURL  string
}

// NewClient creates a new CryptoBot client
func NewClient(baseURL, token, payBtnURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		payBtnURL:  payBtnURL,
	}
}

// Enabled reports whether a payment token is configured.
func (c *Client) Enabled() bool {
	return c.token != ""
}

// CreateInvoice opens a new invoice for the given amount
func (c *Client) CreateInvoice(amount decimal.Decimal, asset, description string) (*Invoice, error) {
	payload := map[string]interface{}{
		"asset":          asset,
		"amount":         amount.String(),
		"description":    description,
		"hidden_message": "Thanks for subscribing! Access is activated automatically.",
		"paid_btn_name":  "viewItem",
		"paid_btn_url":   c.payBtnURL,
	}

	var invoice Invoice
	if err := c.call(http.MethodPost, "createInvoice", payload, &invoice); err != nil {
		return nil, err
	}
	invoice.PayURL = strings.TrimSpace(invoice.PayURL)

	log.Info().Int64("invoice_id", invoice.InvoiceID).Str("amount", amount.String()).Msg("Invoice created")
	return &invoice, nil
}

// GetInvoice fetches the current state of a single invoice
func (c *Client) GetInvoice(invoiceID int64) (*Invoice, error) {
	var result struct {
		Items []Invoice `json:"items"`
	}
	path := fmt.Sprintf("getInvoices?invoice_ids=%d", invoiceID)
	if err := c.call(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, fmt.Errorf("invoice %d not found", invoiceID)
	}
	return &result.Items[0], nil
}

// CancelInvoice cancels a still-active invoice
func (c *Client) CancelInvoice(invoiceID int64) error {
	payload := map[string]interface{}{"invoice_id": invoiceID}
	if err := c.call(http.MethodPost, "cancelInvoice", payload, nil); err != nil {
		return err
	}
	log.Info().Int64("invoice_id", invoiceID).Msg("Invoice cancelled")
	return nil
}

func (c *Client) call(method, path string, payload interface{}, out interface{}) error {
	if c.token == "" {
		return fmt.Errorf("CRYPTO_PAY_TOKEN is not configured")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+"/"+path, body)
	if err != nil {
		return err
	}
	req.Header.Set(tokenHeader, c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cryptopay %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cryptopay %s: HTTP %d: %s", path, resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("cryptopay %s: %w", path, err)
	}
	if !apiResp.OK {
		if apiResp.Error != nil {
			return fmt.Errorf("cryptopay %s: %s (%d) %s", path, apiResp.Error.Name, apiResp.Error.Code, apiResp.Error.Message)
		}
		return fmt.Errorf("cryptopay %s: request rejected", path)
	}

	if out != nil {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return fmt.Errorf("cryptopay %s: %w", path, err)
		}
	}
	return nil
}
