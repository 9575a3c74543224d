package model

type Payer struct {
	PayerID string `json:"payer_id"`
	Email   string `json:"email_address"`
}

type PaypalLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type Amount struct {
	Currency string `json:"currency_code" validate:"required"`
	Value    string `json:"value" validate:"required,numeric"`
}

type RelatedIDs struct {
	OrderID string `json:"order_id"`
}

type SupplementaryData struct {
	RelatedIDs RelatedIDs `json:"related_ids"`
}

// PaypalResource is the capture (or refund) object carried by PAYMENT.CAPTURE.* events.
type PaypalResource struct {
	ID                string            `json:"id" validate:"required"`
	Status            string            `json:"status"`
	Amount            *Amount           `json:"amount" validate:"omitempty"`
	InvoiceID         string            `json:"invoice_id"`
	CustomID          string            `json:"custom_id"`
	SupplementaryData SupplementaryData `json:"supplementary_data"`
	Links             []PaypalLink      `json:"links"`
}

type PayPalWebhookEvent struct {
	ID           string         `json:"id" validate:"required"`
	EventType    string         `json:"event_type" validate:"required"`
	ResourceType string         `json:"resource_type"`
	CreateTime   string         `json:"create_time"`
	Resource     PaypalResource `json:"resource" validate:"required"`
}

const (
	PaypalEventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	PaypalEventCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
	PaypalEventCaptureRefunded  = "PAYMENT.CAPTURE.REFUNDED"
)
