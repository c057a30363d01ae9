package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway is the surface the order engine needs from a payment provider.
// CreateIntent is mandatory during checkout: its failure aborts order
// creation. VerifySignature is a local HMAC check against the shared secret.
type Gateway interface {
	CreateIntent(amount decimal.Decimal, currency, receiptID string) (string, error)
	VerifySignature(orderRef, paymentRef, signature string) bool
}

// Config holds gateway connection details.
type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Currency  string
	Timeout   time.Duration
}

// HTTPGateway talks to a remote payment provider over JSON/HTTP.
type HTTPGateway struct {
	cfg    Config
	client *http.Client
}

// NewHTTPGateway creates a gateway client with a bounded request timeout.
func NewHTTPGateway(cfg Config) *HTTPGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type intentRequest struct {
	Amount   int64  `json:"amount"` // smallest currency unit
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type intentResponse struct {
	ID string `json:"id"`
}

// CreateIntent registers a payment order with the provider and returns its
// reference. The amount is converted to the smallest currency unit.
func (g *HTTPGateway) CreateIntent(amount decimal.Decimal, currency, receiptID string) (string, error) {
	payload := intentRequest{
		Amount:   amount.Shift(2).Round(0).IntPart(),
		Currency: currency,
		Receipt:  receiptID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal intent request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.cfg.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.cfg.KeyID, g.cfg.KeySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var out intentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode intent response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("payment gateway returned an empty order reference")
	}
	return out.ID, nil
}

// VerifySignature checks the provider's payment confirmation signature:
// hex(HMAC-SHA256(secret, orderRef|paymentRef)).
func (g *HTTPGateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	expected := Sign(g.cfg.KeySecret, orderRef, paymentRef)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the confirmation signature for an order/payment reference
// pair. Exposed so tests and sandbox tooling can produce valid signatures.
func Sign(secret, orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}
