package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"binwahab-store/internal/config"

	"github.com/shopspring/decimal"
)

var ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

type PaypalClient interface {
	CreateOrder(ctx context.Context, req *PaypalOrderRequest) (*CreateOrderResponse, error)
	CaptureOrder(ctx context.Context, orderID string) (*CaptureOrderResponse, error)
	RefundCapture(ctx context.Context, captureID string, amount decimal.Decimal, currency string) (string, error)
	VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error
}

type paypalClientImpl struct {
	httpClient         *http.Client
	baseApiURL         string
	paypalClientID     string
	paypalClientSecret string
	webhookID          string
}

type PaypalCreateOrderResult struct {
	ID     string       `json:"id"`
	Links  []PaypalLink `json:"links"`
	Status string       `json:"status"`
}

type PaypalLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type PaypalOrderRequest struct {
	ReferenceID string // our order number
	Amount      decimal.Decimal
	Currency    string
	ReturnURL   string
	CancelURL   string
}

type CreateOrderResponse struct {
	OrderID    string
	ApproveURL string
}

type CaptureOrderResponse struct {
	OrderID   string
	Status    string
	CaptureID string
}

func NewPaypalClient(paypalCfg *config.Paypal) PaypalClient {
	return &paypalClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:         strings.TrimRight(paypalCfg.BaseApiURL, "/"),
		paypalClientID:     paypalCfg.ClientID,
		paypalClientSecret: paypalCfg.ClientSecret,
		webhookID:          paypalCfg.WebhookID,
	}
}

func (c *paypalClientImpl) getAccessToken(ctx context.Context) (string, error) {
	auth := base64.StdEncoding.EncodeToString(
		[]byte(c.paypalClientID + ":" + c.paypalClientSecret),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+"/v1/oauth2/token",
		bytes.NewBufferString("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("paypal oauth error %d: %s", resp.StatusCode, string(b))
	}

	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode oauth response: %w", err)
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("paypal returned empty access token")
	}

	return res.AccessToken, nil
}

// do sends an authorized JSON request and decodes a 2xx body into out (when non-nil).
func (c *paypalClientImpl) do(ctx context.Context, method, path string, payload any, out any) error {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("get paypal access token: %w", err)
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paypal request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("paypal error %d: %s", resp.StatusCode, string(b))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode paypal response: %w", err)
	}
	return nil
}

func (c *paypalClientImpl) CreateOrder(ctx context.Context, in *PaypalOrderRequest) (*CreateOrderResponse, error) {
	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": in.ReferenceID,
				"invoice_id":   in.ReferenceID,
				"amount": map[string]string{
					"currency_code": in.Currency,
					"value":         in.Amount.StringFixed(2),
				},
			},
		},
		"application_context": map[string]string{
			"return_url": in.ReturnURL,
			"cancel_url": in.CancelURL,
		},
	}

	var result PaypalCreateOrderResult
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", payload, &result); err != nil {
		return nil, fmt.Errorf("create paypal order: %w", err)
	}

	approveURL := _extractLink(result.Links, "approve")
	if approveURL == "" {
		return nil, fmt.Errorf("paypal order %s has no approve link", result.ID)
	}

	return &CreateOrderResponse{
		OrderID:    result.ID,
		ApproveURL: approveURL,
	}, nil
}

func (c *paypalClientImpl) CaptureOrder(ctx context.Context, orderID string) (*CaptureOrderResponse, error) {
	var result struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID     string `json:"id"`
					Status string `json:"status"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}

	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", orderID)
	if err := c.do(ctx, http.MethodPost, path, nil, &result); err != nil {
		return nil, fmt.Errorf("capture paypal order: %w", err)
	}

	resp := &CaptureOrderResponse{OrderID: result.ID, Status: result.Status}
	if len(result.PurchaseUnits) > 0 && len(result.PurchaseUnits[0].Payments.Captures) > 0 {
		resp.CaptureID = result.PurchaseUnits[0].Payments.Captures[0].ID
	}
	return resp, nil
}

func (c *paypalClientImpl) RefundCapture(ctx context.Context, captureID string, amount decimal.Decimal, currency string) (string, error) {
	payload := map[string]interface{}{
		"amount": map[string]string{
			"currency_code": currency,
			"value":         amount.StringFixed(2),
		},
	}

	var result struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	path := fmt.Sprintf("/v2/payments/captures/%s/refund", captureID)
	if err := c.do(ctx, http.MethodPost, path, payload, &result); err != nil {
		return "", fmt.Errorf("refund paypal capture: %w", err)
	}
	return result.ID, nil
}

// VerifyWebhookSignature asks PayPal to verify the transmission. Missing headers or a
// non-SUCCESS verdict return ErrInvalidWebhookSignature.
func (c *paypalClientImpl) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error {
	fields := map[string]string{
		"auth_algo":         headers.Get("PAYPAL-AUTH-ALGO"),
		"cert_url":          headers.Get("PAYPAL-CERT-URL"),
		"transmission_id":   headers.Get("PAYPAL-TRANSMISSION-ID"),
		"transmission_sig":  headers.Get("PAYPAL-TRANSMISSION-SIG"),
		"transmission_time": headers.Get("PAYPAL-TRANSMISSION-TIME"),
	}
	for _, v := range fields {
		if v == "" {
			return ErrInvalidWebhookSignature
		}
	}
	if c.webhookID == "" {
		return fmt.Errorf("paypal webhook id is not configured: %w", ErrInvalidWebhookSignature)
	}

	payload := map[string]interface{}{
		"webhook_id":    c.webhookID,
		"webhook_event": json.RawMessage(body),
	}
	for k, v := range fields {
		payload[k] = v
	}

	var result struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", payload, &result); err != nil {
		return fmt.Errorf("verify paypal webhook: %w", err)
	}
	if result.VerificationStatus != "SUCCESS" {
		return ErrInvalidWebhookSignature
	}
	return nil
}

func _extractLink(links []PaypalLink, rel string) string {
	for _, link := range links {
		if link.Rel == rel {
			return link.Href
		}
	}
	return ""
}
