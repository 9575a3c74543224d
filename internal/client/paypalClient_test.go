package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"binwahab-store/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakePaypal(t *testing.T, verdict string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "cid" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body struct {
			PurchaseUnits []struct {
				ReferenceID string            `json:"reference_id"`
				Amount      map[string]string `json:"amount"`
			} `json:"purchase_units"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "BW-1", body.PurchaseUnits[0].ReferenceID)
		assert.Equal(t, "106.00", body.PurchaseUnits[0].Amount["value"])
		assert.Equal(t, "MYR", body.PurchaseUnits[0].Amount["currency_code"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "PP-ORDER-1",
			"status": "CREATED",
			"links": []map[string]string{
				{"rel": "self", "href": "https://api/self"},
				{"rel": "approve", "href": "https://paypal/approve?token=PP-ORDER-1"},
			},
		})
	})
	mux.HandleFunc("/v2/checkout/orders/PP-ORDER-1/capture", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"PP-ORDER-1","status":"COMPLETED","purchase_units":[{"payments":{"captures":[{"id":"CAP-1","status":"COMPLETED"}]}}]}`))
	})
	mux.HandleFunc("/v1/notifications/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "WH-1", body["webhook_id"])
		_ = json.NewEncoder(w).Encode(map[string]string{"verification_status": verdict})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestPaypalClient(url string) PaypalClient {
	return NewPaypalClient(&config.Paypal{
		BaseApiURL:   url,
		ClientID:     "cid",
		ClientSecret: "secret",
		WebhookID:    "WH-1",
	})
}

func signedPaypalHeaders() http.Header {
	h := http.Header{}
	h.Set("PAYPAL-AUTH-ALGO", "SHA256withRSA")
	h.Set("PAYPAL-CERT-URL", "https://api.paypal.com/cert")
	h.Set("PAYPAL-TRANSMISSION-ID", "tid")
	h.Set("PAYPAL-TRANSMISSION-SIG", "sig")
	h.Set("PAYPAL-TRANSMISSION-TIME", "2026-01-01T00:00:00Z")
	return h
}

func TestPaypalCreateAndCaptureOrder(t *testing.T) {
	srv := newFakePaypal(t, "SUCCESS")
	c := newTestPaypalClient(srv.URL)

	created, err := c.CreateOrder(context.Background(), &PaypalOrderRequest{
		ReferenceID: "BW-1",
		Amount:      decimal.RequireFromString("106"),
		Currency:    "MYR",
	})
	require.NoError(t, err)
	assert.Equal(t, "PP-ORDER-1", created.OrderID)
	assert.Equal(t, "https://paypal/approve?token=PP-ORDER-1", created.ApproveURL)

	captured, err := c.CaptureOrder(context.Background(), "PP-ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", captured.Status)
	assert.Equal(t, "CAP-1", captured.CaptureID)
}

func TestPaypalVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"id":"WH-EVT-1","event_type":"PAYMENT.CAPTURE.COMPLETED"}`)

	t.Run("success verdict", func(t *testing.T) {
		c := newTestPaypalClient(newFakePaypal(t, "SUCCESS").URL)
		assert.NoError(t, c.VerifyWebhookSignature(context.Background(), signedPaypalHeaders(), body))
	})

	t.Run("failure verdict", func(t *testing.T) {
		c := newTestPaypalClient(newFakePaypal(t, "FAILURE").URL)
		err := c.VerifyWebhookSignature(context.Background(), signedPaypalHeaders(), body)
		assert.ErrorIs(t, err, ErrInvalidWebhookSignature)
	})

	t.Run("missing headers never reach paypal", func(t *testing.T) {
		c := newTestPaypalClient("http://127.0.0.1:0")
		err := c.VerifyWebhookSignature(context.Background(), http.Header{}, body)
		assert.ErrorIs(t, err, ErrInvalidWebhookSignature)
	})
}

func TestPaypalErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			_, _ = w.Write([]byte(`{"access_token":"tok"}`))
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY"}`))
	}))
	defer srv.Close()

	_, err := newTestPaypalClient(srv.URL).CaptureOrder(context.Background(), "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paypal error 422")
}
