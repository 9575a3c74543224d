package dto

import "github.com/shopspring/decimal"

type AddCartItemRequest struct {
	ProductID uint  `json:"product_id" validate:"required"`
	VariantID *uint `json:"variant_id"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type AddressRequest struct {
	RecipientName string `json:"recipient_name" validate:"required,max=255"`
	Phone         string `json:"phone" validate:"required,max=32"`
	Line1         string `json:"line1" validate:"required,max=255"`
	Line2         string `json:"line2" validate:"max=255"`
	City          string `json:"city" validate:"required,max=128"`
	State         string `json:"state" validate:"required,max=128"`
	Postcode      string `json:"postcode" validate:"required,numeric,len=5"`
	Country       string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	IsDefault     bool   `json:"is_default"`
}

type CreateOrderRequest struct {
	AddressID     *uint           `json:"address_id" validate:"required_without=Address"`
	Address       *AddressRequest `json:"address" validate:"required_without=AddressID,omitempty"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,oneof=PAYPAL CURLEC BRAINTREE"`
}

type StartPaymentRequest struct {
	Gateway string `json:"gateway" validate:"required,oneof=PAYPAL CURLEC BRAINTREE"`
	// Nonce comes from the Braintree Drop-in UI.
	Nonce string `json:"nonce" validate:"required_if=Gateway BRAINTREE"`
}

// CurlecVerifyRequest is what Curlec Checkout hands the page after a successful payment.
type CurlecVerifyRequest struct {
	OrderID   string `json:"razorpay_order_id" form:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" form:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" form:"razorpay_signature" validate:"required,hexadecimal"`
}

type ReturnItemRequest struct {
	OrderItemID uint `json:"order_item_id" validate:"required"`
	// Quantity bounds are checked against the order, per item.
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason" validate:"max=1024"`
}

type SubmitReturnRequest struct {
	OrderID uint                `json:"order_id" validate:"required"`
	Reason  string              `json:"reason" validate:"required,max=1024"`
	Items   []ReturnItemRequest `json:"items" validate:"required,min=1,dive"`
}

type ApproveReturnRequest struct {
	RefundAmount decimal.Decimal `json:"refund_amount"`
	RefundMethod string          `json:"refund_method" validate:"required,oneof=ORIGINAL_PAYMENT STORE_CREDIT BANK_TRANSFER"`
	Notes        string          `json:"notes" validate:"max=1024"`
}

type RejectReturnRequest struct {
	Notes string `json:"notes" validate:"max=1024"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=SHIPPED DELIVERED CANCELLED"`
}

type AdjustStockRequest struct {
	ProductID uint   `json:"product_id" validate:"required"`
	VariantID *uint  `json:"variant_id"`
	Quantity  int    `json:"quantity" validate:"required"`
	Reason    string `json:"reason" validate:"required,max=255"`
}
