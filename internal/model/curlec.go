package model

// Curlec webhooks use the Razorpay event envelope.
type CurlecWebhookEvent struct {
	Entity    string        `json:"entity" validate:"eq=event"`
	AccountID string        `json:"account_id"`
	Event     string        `json:"event" validate:"required"`
	Contains  []string      `json:"contains"`
	Payload   CurlecPayload `json:"payload"`
	CreatedAt int64         `json:"created_at"`
}

type CurlecPayload struct {
	Payment *CurlecPaymentWrapper `json:"payment,omitempty"`
	Order   *CurlecOrderWrapper   `json:"order,omitempty"`
	Refund  *CurlecRefundWrapper  `json:"refund,omitempty"`
}

type CurlecPaymentWrapper struct {
	Entity CurlecPayment `json:"entity" validate:"required"`
}

type CurlecOrderWrapper struct {
	Entity CurlecOrder `json:"entity" validate:"required"`
}

type CurlecRefundWrapper struct {
	Entity CurlecRefund `json:"entity" validate:"required"`
}

type CurlecPayment struct {
	ID       string `json:"id" validate:"required"`
	OrderID  string `json:"order_id" validate:"required"`
	Status   string `json:"status"`
	Method   string `json:"method"`
	Bank     string `json:"bank"`
	Amount   int64  `json:"amount" validate:"gte=0"`
	Currency string `json:"currency"`
}

type CurlecOrder struct {
	ID       string `json:"id" validate:"required"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type CurlecRefund struct {
	ID        string `json:"id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

const (
	CurlecEventPaymentCaptured = "payment.captured"
	CurlecEventPaymentFailed   = "payment.failed"
	CurlecEventOrderPaid       = "order.paid"
	CurlecEventRefundProcessed = "refund.processed"
)
