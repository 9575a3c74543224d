package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"binwahab-store/internal/config"

	"github.com/shopspring/decimal"
)

type CurlecClient interface {
	CreateOrder(ctx context.Context, receipt string, amount decimal.Decimal, currency string) (*CurlecOrderResponse, error)
	RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal) (string, error)

	// VerifyWebhookSignature checks x-razorpay-signature over the raw body.
	VerifyWebhookSignature(body []byte, signature string) error
	// VerifyPaymentSignature checks the checkout callback signature over "order_id|payment_id".
	VerifyPaymentSignature(orderID, paymentID, signature string) error

	KeyID() string
}

type CurlecOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type curlecClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	keyID         string
	keySecret     string
	webhookSecret string
}

func NewCurlecClient(cfg *config.Curlec) CurlecClient {
	return &curlecClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:    strings.TrimRight(cfg.BaseApiURL, "/"),
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
	}
}

func (c *curlecClientImpl) KeyID() string {
	return c.keyID
}

// ToSen converts ringgit to the integer minor unit used on the wire.
func ToSen(amount decimal.Decimal) int64 {
	return amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

func (c *curlecClientImpl) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("curlec request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("curlec error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode curlec response: %w", err)
	}
	return nil
}

func (c *curlecClientImpl) CreateOrder(ctx context.Context, receipt string, amount decimal.Decimal, currency string) (*CurlecOrderResponse, error) {
	payload := map[string]interface{}{
		"amount":   ToSen(amount),
		"currency": currency,
		"receipt":  receipt,
		"notes": map[string]string{
			"order_number": receipt,
		},
	}

	var result CurlecOrderResponse
	if err := c.post(ctx, "/v1/orders", payload, &result); err != nil {
		return nil, fmt.Errorf("create curlec order: %w", err)
	}
	if result.ID == "" {
		return nil, fmt.Errorf("curlec returned empty order id")
	}
	return &result, nil
}

func (c *curlecClientImpl) RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal) (string, error) {
	payload := map[string]interface{}{
		"amount": ToSen(amount),
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, fmt.Sprintf("/v1/payments/%s/refund", paymentID), payload, &result); err != nil {
		return "", fmt.Errorf("refund curlec payment: %w", err)
	}
	return result.ID, nil
}

func (c *curlecClientImpl) VerifyWebhookSignature(body []byte, signature string) error {
	return verifyHMACSHA256(c.webhookSecret, body, signature)
}

func (c *curlecClientImpl) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	if orderID == "" || paymentID == "" {
		return ErrInvalidWebhookSignature
	}
	return verifyHMACSHA256(c.keySecret, []byte(orderID+"|"+paymentID), signature)
}

// verifyHMACSHA256 fails closed: an empty secret or signature never verifies.
func verifyHMACSHA256(secret string, message []byte, signature string) error {
	if secret == "" || signature == "" {
		return ErrInvalidWebhookSignature
	}

	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return ErrInvalidWebhookSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	if !hmac.Equal(mac.Sum(nil), got) {
		return ErrInvalidWebhookSignature
	}
	return nil
}

// SignHMACSHA256 returns the hex signature a Curlec sender would attach.
func SignHMACSHA256(secret string, message []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
