package payment_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bazar/pkg/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGateway_CreateIntent(t *testing.T) {
	var received struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		keyID, keySecret, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_id", keyID)
		assert.Equal(t, "key_secret", keySecret)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "gw_order_9"})
	}))
	defer server.Close()

	gateway := payment.NewHTTPGateway(payment.Config{
		BaseURL:   server.URL,
		KeyID:     "key_id",
		KeySecret: "key_secret",
	})

	ref, err := gateway.CreateIntent(decimal.NewFromFloat(180.50), "USD", "receipt-1")
	require.NoError(t, err)
	assert.Equal(t, "gw_order_9", ref)
	// Amounts travel in the smallest currency unit.
	assert.Equal(t, int64(18050), received.Amount)
	assert.Equal(t, "USD", received.Currency)
	assert.Equal(t, "receipt-1", received.Receipt)
}

func TestHTTPGateway_CreateIntentErrors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	gateway := payment.NewHTTPGateway(payment.Config{BaseURL: failing.URL})
	_, err := gateway.CreateIntent(decimal.NewFromInt(10), "USD", "r")
	assert.ErrorContains(t, err, "status 502")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer empty.Close()

	gateway = payment.NewHTTPGateway(payment.Config{BaseURL: empty.URL})
	_, err = gateway.CreateIntent(decimal.NewFromInt(10), "USD", "r")
	assert.ErrorContains(t, err, "empty order reference")

	unreachable := payment.NewHTTPGateway(payment.Config{
		BaseURL: "http://127.0.0.1:1",
		Timeout: time.Second,
	})
	_, err = unreachable.CreateIntent(decimal.NewFromInt(10), "USD", "r")
	assert.ErrorContains(t, err, "unreachable")
}

func TestVerifySignature(t *testing.T) {
	gateway := payment.NewHTTPGateway(payment.Config{KeySecret: "secret"})

	signature := payment.Sign("secret", "gw_order_1", "pay_1")
	assert.True(t, gateway.VerifySignature("gw_order_1", "pay_1", signature))

	assert.False(t, gateway.VerifySignature("gw_order_1", "pay_1", "forged"))
	assert.False(t, gateway.VerifySignature("gw_order_2", "pay_1", signature), "signature binds the order reference")
	assert.False(t, gateway.VerifySignature("gw_order_1", "pay_2", signature), "signature binds the payment reference")

	other := payment.NewHTTPGateway(payment.Config{KeySecret: "other"})
	assert.False(t, other.VerifySignature("gw_order_1", "pay_1", signature))
}

func TestSign_Deterministic(t *testing.T) {
	// hex(HMAC-SHA256("secret", "a|b"))
	assert.Equal(t, payment.Sign("secret", "a", "b"), payment.Sign("secret", "a", "b"))
	assert.Len(t, payment.Sign("secret", "a", "b"), 64)
	assert.NotEqual(t, payment.Sign("secret", "a", "b"), payment.Sign("secret", "a", "c"))
}
