package service

import (
	"encoding/json"
	"strings"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/model"

	"github.com/go-playground/validator/v10"
)

// parsePaypalEvent decodes a verified PayPal webhook. It returns a nil event for event types
// that do not affect payment state.
func parsePaypalEvent(validate *validator.Validate, body []byte) (model.PaymentEvent, *model.PayPalWebhookEvent, error) {
	var payload model.PayPalWebhookEvent
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, apperror.Wrap(apperror.CodeValidation, err, "decode webhook payload")
	}
	if err := validate.Struct(&payload); err != nil {
		return nil, nil, apperror.Wrap(apperror.CodeValidation, err, "invalid webhook payload")
	}

	resource := payload.Resource
	ref := model.EventRef{
		Gateway:   model.GatewayPaypal,
		EventID:   payload.ID,
		EventType: payload.EventType,
		SessionID: resource.SupplementaryData.RelatedIDs.OrderID,
	}

	switch payload.EventType {
	case model.PaypalEventCaptureCompleted:
		if ref.SessionID == "" {
			return nil, nil, apperror.New(apperror.CodeValidation, "capture event has no related order id")
		}
		ref.TransactionID = resource.ID
		return model.PaymentSucceeded{EventRef: ref, Method: "paypal"}, &payload, nil

	case model.PaypalEventCaptureDenied:
		if ref.SessionID == "" {
			return nil, nil, apperror.New(apperror.CodeValidation, "capture event has no related order id")
		}
		ref.TransactionID = resource.ID
		return model.PaymentFailed{EventRef: ref, Reason: resource.Status}, &payload, nil

	case model.PaypalEventCaptureRefunded:
		// the resource is the refund; its "up" link points at the refunded capture
		ref.TransactionID = captureIDFromLinks(resource.Links)
		if ref.SessionID == "" && ref.TransactionID == "" {
			return nil, nil, apperror.New(apperror.CodeValidation, "refund event has no capture reference")
		}
		return model.PaymentRefunded{EventRef: ref, RefundID: resource.ID}, &payload, nil
	}

	return nil, &payload, nil
}

func captureIDFromLinks(links []model.PaypalLink) string {
	for _, link := range links {
		if link.Rel != "up" {
			continue
		}
		href := strings.TrimRight(link.Href, "/")
		if i := strings.Index(href, "/captures/"); i >= 0 {
			return href[i+len("/captures/"):]
		}
	}
	return ""
}
