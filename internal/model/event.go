package model

// PaymentEvent is a verified, gateway-neutral payment outcome. The concrete types are
// PaymentSucceeded, PaymentFailed and PaymentRefunded.
type PaymentEvent interface {
	Ref() EventRef
	isPaymentEvent()
}

// EventRef locates the order an event belongs to. SessionID is preferred; TransactionID is
// used when a gateway only echoes the payment reference (refunds).
type EventRef struct {
	Gateway       Gateway
	EventID       string // empty when the source has no delivery id (redirect verification)
	EventType     string
	SessionID     string
	TransactionID string
}

type PaymentSucceeded struct {
	EventRef
	Method string
}

type PaymentFailed struct {
	EventRef
	Reason string
}

type PaymentRefunded struct {
	EventRef
	RefundID string
}

func (e PaymentSucceeded) Ref() EventRef { return e.EventRef }
func (e PaymentFailed) Ref() EventRef    { return e.EventRef }
func (e PaymentRefunded) Ref() EventRef  { return e.EventRef }

func (PaymentSucceeded) isPaymentEvent() {}
func (PaymentFailed) isPaymentEvent()    {}
func (PaymentRefunded) isPaymentEvent()  {}
