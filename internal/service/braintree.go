package service

import (
	"binwahab-store/internal/client"
	"binwahab-store/internal/model"
)

const (
	braintreeKindSettled            = "transaction_settled"
	braintreeKindSettlementDeclined = "transaction_settlement_declined"
)

// braintreeEvent maps a parsed notification; kinds other than settlement are ignored.
func braintreeEvent(n *client.BraintreeNotification) model.PaymentEvent {
	if n.TransactionID == "" {
		return nil
	}

	ref := model.EventRef{
		Gateway:       model.GatewayBraintree,
		EventID:       n.Kind + ":" + n.TransactionID,
		EventType:     n.Kind,
		SessionID:     n.OrderNumber,
		TransactionID: n.TransactionID,
	}

	switch n.Kind {
	case braintreeKindSettled:
		return model.PaymentSucceeded{EventRef: ref, Method: "card"}
	case braintreeKindSettlementDeclined:
		return model.PaymentFailed{EventRef: ref, Reason: n.Status}
	}
	return nil
}
