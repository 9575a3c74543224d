package client

import (
	"context"
	"fmt"

	"binwahab-store/internal/config"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
)

// --- INTERFACE ---

type BraintreeClient interface {
	// Charge submits a sale for settlement using a nonce from the Drop-in UI.
	Charge(ctx context.Context, nonce string, amount decimal.Decimal, orderNumber string) (*BraintreeCharge, error)

	// Refund refunds (part of) a settled transaction and returns the refund transaction id.
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (string, error)

	// ParseWebhook verifies bt_signature against bt_payload and decodes the notification.
	ParseWebhook(ctx context.Context, signature, payload string) (*BraintreeNotification, error)
}

type BraintreeCharge struct {
	TransactionID string
	OrderNumber   string
	Approved      bool
	Status        string
	Reason        string
	PaymentMethod string
}

type BraintreeNotification struct {
	Kind          string
	TransactionID string
	OrderNumber   string
	Status        string
}

// --- IMPLEMENTATION ---

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

// NewBraintreeClient initializes the Braintree SDK gateway
func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

// --- METHODS ---

func toBraintreeAmount(amount decimal.Decimal) *braintree.Decimal {
	// Braintree expects NewDecimal(unscaled, scale): "50.00" -> NewDecimal(5000, 2)
	cents := amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
	return braintree.NewDecimal(cents, 2)
}

func (c *braintreeClientImpl) Charge(ctx context.Context, nonce string, amount decimal.Decimal, orderNumber string) (*BraintreeCharge, error) {
	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             toBraintreeAmount(amount),
		PaymentMethodNonce: nonce,
		OrderId:            orderNumber,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true, // Captures the funds immediately
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		// processor declines come back as an API error carrying the transaction
		if apiErr, ok := err.(*braintree.BraintreeError); ok && apiErr.Transaction != nil {
			return &BraintreeCharge{
				TransactionID: apiErr.Transaction.Id,
				OrderNumber:   orderNumber,
				Approved:      false,
				Status:        string(apiErr.Transaction.Status),
				Reason:        apiErr.Transaction.ProcessorResponseText,
			}, nil
		}
		return nil, fmt.Errorf("transaction creation failed: %w", err)
	}

	charge := &BraintreeCharge{
		TransactionID: tx.Id,
		OrderNumber:   orderNumber,
		Status:        string(tx.Status),
		Reason:        tx.ProcessorResponseText,
		PaymentMethod: "card",
	}

	switch tx.Status {
	case braintree.TransactionStatusAuthorized,
		braintree.TransactionStatusSubmittedForSettlement,
		braintree.TransactionStatusSettling,
		braintree.TransactionStatusSettled:
		charge.Approved = true
	}
	if tx.PaymentInstrumentType != "" {
		charge.PaymentMethod = string(tx.PaymentInstrumentType)
	}

	return charge, nil
}

func (c *braintreeClientImpl) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (string, error) {
	tx, err := c.gateway.Transaction().Refund(ctx, transactionID, toBraintreeAmount(amount))
	if err != nil {
		return "", fmt.Errorf("failed to refund transaction %s: %w", transactionID, err)
	}
	return tx.Id, nil
}

func (c *braintreeClientImpl) ParseWebhook(ctx context.Context, signature, payload string) (*BraintreeNotification, error) {
	notification, err := c.gateway.WebhookNotification().Parse(signature, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}

	out := &BraintreeNotification{Kind: notification.Kind}
	if notification.Subject != nil && notification.Subject.Transaction != nil {
		tx := notification.Subject.Transaction
		out.TransactionID = tx.Id
		out.OrderNumber = tx.OrderId
		out.Status = string(tx.Status)
	}
	return out, nil
}
