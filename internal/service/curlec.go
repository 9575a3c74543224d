package service

import (
	"encoding/json"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/model"

	"github.com/go-playground/validator/v10"
)

// parseCurlecEvent decodes a verified Curlec webhook. eventID is the x-razorpay-event-id
// header; when absent the event name and entity id stand in as the delivery key.
func parseCurlecEvent(validate *validator.Validate, eventID string, body []byte) (model.PaymentEvent, *model.CurlecWebhookEvent, error) {
	var payload model.CurlecWebhookEvent
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, apperror.Wrap(apperror.CodeValidation, err, "decode webhook payload")
	}
	if err := validate.Struct(&payload); err != nil {
		return nil, nil, apperror.Wrap(apperror.CodeValidation, err, "invalid webhook payload")
	}

	ref := model.EventRef{
		Gateway:   model.GatewayCurlec,
		EventID:   eventID,
		EventType: payload.Event,
	}
	deliveryKey := func(entityID string) string {
		if ref.EventID != "" {
			return ref.EventID
		}
		return payload.Event + ":" + entityID
	}

	payment := payload.Payload.Payment
	switch payload.Event {
	case model.CurlecEventPaymentCaptured, model.CurlecEventPaymentFailed:
		if payment == nil {
			return nil, nil, apperror.New(apperror.CodeValidation, "payment entity missing")
		}
		ref.EventID = deliveryKey(payment.Entity.ID)
		ref.SessionID = payment.Entity.OrderID
		ref.TransactionID = payment.Entity.ID
		if payload.Event == model.CurlecEventPaymentFailed {
			return model.PaymentFailed{EventRef: ref, Reason: payment.Entity.Status}, &payload, nil
		}
		return model.PaymentSucceeded{EventRef: ref, Method: payment.Entity.Method}, &payload, nil

	case model.CurlecEventOrderPaid:
		order := payload.Payload.Order
		if order == nil {
			return nil, nil, apperror.New(apperror.CodeValidation, "order entity missing")
		}
		ref.EventID = deliveryKey(order.Entity.ID)
		ref.SessionID = order.Entity.ID
		method := ""
		if payment != nil {
			ref.TransactionID = payment.Entity.ID
			method = payment.Entity.Method
		}
		return model.PaymentSucceeded{EventRef: ref, Method: method}, &payload, nil

	case model.CurlecEventRefundProcessed:
		refund := payload.Payload.Refund
		if refund == nil {
			return nil, nil, apperror.New(apperror.CodeValidation, "refund entity missing")
		}
		ref.EventID = deliveryKey(refund.Entity.ID)
		ref.TransactionID = refund.Entity.PaymentID
		if payment != nil {
			ref.SessionID = payment.Entity.OrderID
		}
		return model.PaymentRefunded{EventRef: ref, RefundID: refund.Entity.ID}, &payload, nil
	}

	return nil, &payload, nil
}
