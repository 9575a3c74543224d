package service

import (
	"fmt"
	"net/http"
	"testing"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/client"
	"binwahab-store/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingOrder(t *testing.T, f *fixture) (*model.Order, *model.Product) {
	t.Helper()
	baju := f.product("BAJU", "50.00", 10, true)
	f.addToCart(customer, baju.ID, nil, 2)
	return f.placeOrder(customer, "Selangor"), baju
}

func paypalWebhookBody(eventID, eventType, resourceID, relatedOrderID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"event_type": %q,
		"resource_type": "capture",
		"resource": {
			"id": %q,
			"status": "COMPLETED",
			"amount": {"currency_code": "MYR", "value": "106.00"},
			"supplementary_data": {"related_ids": {"order_id": %q}}
		}
	}`, eventID, eventType, resourceID, relatedOrderID))
}

func curlecPaymentBody(event, paymentID, orderID string) []byte {
	return []byte(fmt.Sprintf(`{
		"entity": "event",
		"event": %q,
		"contains": ["payment"],
		"payload": {"payment": {"entity": {
			"id": %q, "order_id": %q, "status": "captured", "method": "fpx", "amount": 10600, "currency": "MYR"
		}}}
	}`, event, paymentID, orderID))
}

func TestStartPayment_Paypal(t *testing.T) {
	f := newFixture(t)
	order, _ := pendingOrder(t, f)

	session, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: customer, OrderID: order.ID, Gateway: model.GatewayPaypal})
	require.NoError(t, err)

	assert.Equal(t, model.GatewayPaypal, session.Gateway)
	assert.NotEmpty(t, session.ApprovalURL)
	assertMoney(t, "106.00", session.Amount)

	stored := f.reload(order.ID)
	assert.Equal(t, model.GatewayPaypal, stored.PaymentGateway)
	require.NotNil(t, stored.GatewaySessionID)
	assert.Equal(t, session.SessionID, *stored.GatewaySessionID)

	t.Run("switching gateway replaces the session", func(t *testing.T) {
		curlec, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: customer, OrderID: order.ID, Gateway: model.GatewayCurlec})
		require.NoError(t, err)
		assert.Equal(t, "order_"+order.OrderNumber, curlec.SessionID)
		assert.Equal(t, "rzp_test_key", curlec.CurlecKeyID)
		assert.Equal(t, int64(10600), curlec.AmountSen)

		stored := f.reload(order.ID)
		assert.Equal(t, model.GatewayCurlec, stored.PaymentGateway)
		assert.Equal(t, curlec.SessionID, *stored.GatewaySessionID)
	})
}

func TestStartPayment_Guards(t *testing.T) {
	f := newFixture(t)
	order, _ := pendingOrder(t, f)

	_, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: model.Actor{UserID: "user-2"}, OrderID: order.ID, Gateway: model.GatewayPaypal})
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))

	_, err = f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: customer, OrderID: order.ID, Gateway: "CASH"})
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))

	_, err = f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: customer, OrderID: order.ID, Gateway: model.GatewayBraintree})
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err), "braintree needs a nonce")

	session := f.startPaypal(customer, order.ID)
	_, err = f.reconcile.Reconcile(f.ctx(), paypalSucceeded("WH-1", session))
	require.NoError(t, err)

	_, err = f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: customer, OrderID: order.ID, Gateway: model.GatewayPaypal})
	assert.Equal(t, apperror.CodeConflict, apperror.CodeOf(err))
}

func TestStartPayment_Restart(t *testing.T) {
	t.Run("same gateway resumes the open checkout", func(t *testing.T) {
		f := newFixture(t)
		order, _ := pendingOrder(t, f)

		first, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: customer, OrderID: order.ID, Gateway: model.GatewayPaypal})
		require.NoError(t, err)
		again, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: customer, OrderID: order.ID, Gateway: model.GatewayPaypal})
		require.NoError(t, err)

		assert.Equal(t, first.SessionID, again.SessionID)
		assert.Equal(t, first.ApprovalURL, again.ApprovalURL)
		assert.Equal(t, 1, f.paypal.createCalls)
	})

	t.Run("payment through an earlier checkout still lands", func(t *testing.T) {
		f := newFixture(t)
		order, baju := pendingOrder(t, f)

		paypalSession := f.startPaypal(customer, order.ID)
		curlec, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: customer, OrderID: order.ID, Gateway: model.GatewayCurlec})
		require.NoError(t, err)
		require.NotEqual(t, paypalSession, curlec.SessionID)

		result, err := f.reconcile.Reconcile(f.ctx(), paypalSucceeded("WH-1", paypalSession))
		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, result.Outcome)

		stored := f.reload(order.ID)
		assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
		assert.Equal(t, model.GatewayPaypal, stored.PaymentGateway, "refunds go back through the gateway that was paid")
		assert.Equal(t, "CAP-"+paypalSession, stored.PaymentTransactionID)
		stock, reserved := f.stockOf(baju.ID)
		assert.Equal(t, 8, stock)
		assert.Zero(t, reserved)
	})

	t.Run("failure of a replaced checkout is ignored", func(t *testing.T) {
		f := newFixture(t)
		order, baju := pendingOrder(t, f)

		paypalSession := f.startPaypal(customer, order.ID)
		curlec, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: customer, OrderID: order.ID, Gateway: model.GatewayCurlec})
		require.NoError(t, err)

		result, err := f.reconcile.Reconcile(f.ctx(), model.PaymentFailed{
			EventRef: model.EventRef{Gateway: model.GatewayPaypal, EventID: "WH-2", EventType: model.PaypalEventCaptureDenied, SessionID: paypalSession},
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, result.Outcome)
		assert.Equal(t, model.PaymentStatusPending, f.reload(order.ID).PaymentStatus)

		result, err = f.reconcile.Reconcile(f.ctx(), model.PaymentSucceeded{
			EventRef: model.EventRef{Gateway: model.GatewayCurlec, EventID: "evt_1", EventType: "payment.captured", SessionID: curlec.SessionID, TransactionID: "pay_1"},
			Method:   "fpx",
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, result.Outcome)
		stock, _ := f.stockOf(baju.ID)
		assert.Equal(t, 8, stock)
	})

	t.Run("card charge in flight blocks another start", func(t *testing.T) {
		f := newFixture(t)
		order, _ := pendingOrder(t, f)
		require.NoError(t, f.orderRepo.AttachPaymentSession(f.ctx(), &model.GatewaySession{
			OrderID: order.ID, Gateway: model.GatewayBraintree, SessionID: order.OrderNumber,
		}, "card"))

		_, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{
			Actor: customer, OrderID: order.ID, Gateway: model.GatewayBraintree, Nonce: "fake-valid-nonce",
		})
		assert.Equal(t, apperror.CodeConflict, apperror.CodeOf(err))
		_, err = f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: customer, OrderID: order.ID, Gateway: model.GatewayPaypal})
		assert.Equal(t, apperror.CodeConflict, apperror.CodeOf(err))
		assert.Zero(t, f.braintree.charges)
	})

	t.Run("card gateway error allows a retry", func(t *testing.T) {
		f := newFixture(t)
		order, _ := pendingOrder(t, f)

		f.braintree.chargeErr = fmt.Errorf("braintree: 503 service unavailable")
		_, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{
			Actor: customer, OrderID: order.ID, Gateway: model.GatewayBraintree, Nonce: "fake-valid-nonce",
		})
		assert.Equal(t, apperror.CodeGateway, apperror.CodeOf(err))
		assert.Nil(t, f.reload(order.ID).GatewaySessionID)

		f.braintree.chargeErr = nil
		session, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{
			Actor: customer, OrderID: order.ID, Gateway: model.GatewayBraintree, Nonce: "fake-valid-nonce",
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, session.Result.Outcome)
		assert.Equal(t, 1, f.braintree.charges)

		_, err = f.payments.StartPayment(f.ctx(), StartPaymentInput{
			Actor: customer, OrderID: order.ID, Gateway: model.GatewayBraintree, Nonce: "fake-valid-nonce",
		})
		assert.Equal(t, apperror.CodeConflict, apperror.CodeOf(err))
		assert.Equal(t, 1, f.braintree.charges)
	})
}

func TestStartPayment_BraintreeChargesImmediately(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		f := newFixture(t)
		order, baju := pendingOrder(t, f)

		session, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{
			Actor: customer, OrderID: order.ID, Gateway: model.GatewayBraintree, Nonce: "fake-valid-nonce",
		})
		require.NoError(t, err)
		require.NotNil(t, session.Result)
		assert.Equal(t, OutcomeApplied, session.Result.Outcome)

		stored := f.reload(order.ID)
		assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
		assert.Equal(t, "bt-"+order.OrderNumber, stored.PaymentTransactionID)
		stock, _ := f.stockOf(baju.ID)
		assert.Equal(t, 8, stock)

		// the later settlement notification changes nothing
		f.braintree.notification = &client.BraintreeNotification{
			Kind: "transaction_settled", TransactionID: "bt-" + order.OrderNumber, OrderNumber: order.OrderNumber,
		}
		result, err := f.payments.HandleBraintreeWebhook(f.ctx(), "valid", "payload")
		require.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyProcessed, result.Outcome)
	})

	t.Run("declined", func(t *testing.T) {
		f := newFixture(t)
		f.braintree.approve = false
		order, baju := pendingOrder(t, f)

		session, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{
			Actor: customer, OrderID: order.ID, Gateway: model.GatewayBraintree, Nonce: "fake-processor-declined",
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, session.Result.Outcome)

		assert.Equal(t, model.PaymentStatusFailed, f.reload(order.ID).PaymentStatus)
		_, reserved := f.stockOf(baju.ID)
		assert.Zero(t, reserved)
	})
}

func TestHandlePaypalWebhook(t *testing.T) {
	f := newFixture(t)
	order, baju := pendingOrder(t, f)
	session := f.startPaypal(customer, order.ID)
	body := paypalWebhookBody("WH-1", model.PaypalEventCaptureCompleted, "CAP-1", session)

	t.Run("invalid signature changes nothing", func(t *testing.T) {
		f.paypal.verifyErr = client.ErrInvalidWebhookSignature
		defer func() { f.paypal.verifyErr = nil }()

		_, err := f.payments.HandlePaypalWebhook(f.ctx(), http.Header{}, body)
		assert.Equal(t, apperror.CodeInvalidSignature, apperror.CodeOf(err))
		assert.Equal(t, model.PaymentStatusPending, f.reload(order.ID).PaymentStatus)
		assert.Zero(t, countRows(t, f, &model.WebhookEvent{}))
	})

	t.Run("verification outage is a gateway error", func(t *testing.T) {
		f.paypal.verifyErr = fmt.Errorf("dial tcp: connection refused")
		defer func() { f.paypal.verifyErr = nil }()

		_, err := f.payments.HandlePaypalWebhook(f.ctx(), http.Header{}, body)
		assert.Equal(t, apperror.CodeGateway, apperror.CodeOf(err))
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := f.payments.HandlePaypalWebhook(f.ctx(), http.Header{}, []byte(`{"id":`))
		assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
	})

	t.Run("unrelated event type", func(t *testing.T) {
		other := paypalWebhookBody("WH-X", "CHECKOUT.ORDER.APPROVED", "X", session)
		result, err := f.payments.HandlePaypalWebhook(f.ctx(), http.Header{}, other)
		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, result.Outcome)
	})

	result, err := f.payments.HandlePaypalWebhook(f.ctx(), http.Header{}, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)

	stored := f.reload(order.ID)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, "CAP-1", stored.PaymentTransactionID)

	result, err = f.payments.HandlePaypalWebhook(f.ctx(), http.Header{}, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyProcessed, result.Outcome)

	stock, _ := f.stockOf(baju.ID)
	assert.Equal(t, 8, stock)
}

func TestHandleCurlecWebhook(t *testing.T) {
	f := newFixture(t)
	order, _ := pendingOrder(t, f)
	_, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: customer, OrderID: order.ID, Gateway: model.GatewayCurlec})
	require.NoError(t, err)
	sessionID := "order_" + order.OrderNumber

	body := curlecPaymentBody(model.CurlecEventPaymentCaptured, "pay_1", sessionID)

	t.Run("tampered body", func(t *testing.T) {
		signature := client.SignHMACSHA256(testCurlecSecret, body)
		tampered := curlecPaymentBody(model.CurlecEventPaymentCaptured, "pay_2", sessionID)
		_, err := f.payments.HandleCurlecWebhook(f.ctx(), "evt_1", signature, tampered)
		assert.Equal(t, apperror.CodeInvalidSignature, apperror.CodeOf(err))
		assert.Equal(t, model.PaymentStatusPending, f.reload(order.ID).PaymentStatus)
	})

	result, err := f.payments.HandleCurlecWebhook(f.ctx(), "evt_1", client.SignHMACSHA256(testCurlecSecret, body), body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)

	stored := f.reload(order.ID)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, "pay_1", stored.PaymentTransactionID)
	assert.Equal(t, "fpx", stored.PaymentMethod)

	t.Run("order.paid for the same payment", func(t *testing.T) {
		paid := []byte(fmt.Sprintf(`{
			"entity": "event",
			"event": "order.paid",
			"payload": {
				"order": {"entity": {"id": %q, "status": "paid", "amount": 10600}},
				"payment": {"entity": {"id": "pay_1", "order_id": %q, "method": "fpx"}}
			}
		}`, sessionID, sessionID))
		result, err := f.payments.HandleCurlecWebhook(f.ctx(), "", client.SignHMACSHA256(testCurlecSecret, paid), paid)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyProcessed, result.Outcome)
		assert.Equal(t, "order.paid:"+sessionID, result.EventID)
	})
}

func TestVerifyCurlecCheckout(t *testing.T) {
	f := newFixture(t)
	order, _ := pendingOrder(t, f)
	_, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: customer, OrderID: order.ID, Gateway: model.GatewayCurlec})
	require.NoError(t, err)
	sessionID := "order_" + order.OrderNumber

	_, err = f.payments.VerifyCurlecCheckout(f.ctx(), sessionID, "pay_1", "forged")
	assert.Equal(t, apperror.CodeInvalidSignature, apperror.CodeOf(err))

	signature := client.SignHMACSHA256(testCurlecSecret, []byte(sessionID+"|pay_1"))
	result, err := f.payments.VerifyCurlecCheckout(f.ctx(), sessionID, "pay_1", signature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Equal(t, model.PaymentStatusPaid, f.reload(order.ID).PaymentStatus)
}

func TestHandleBraintreeWebhook_Rejects(t *testing.T) {
	f := newFixture(t)

	_, err := f.payments.HandleBraintreeWebhook(f.ctx(), "", "")
	assert.Equal(t, apperror.CodeInvalidSignature, apperror.CodeOf(err))

	f.braintree.notification = &client.BraintreeNotification{Kind: "check"}
	_, err = f.payments.HandleBraintreeWebhook(f.ctx(), "forged", "payload")
	assert.Equal(t, apperror.CodeInvalidSignature, apperror.CodeOf(err))

	result, err := f.payments.HandleBraintreeWebhook(f.ctx(), "valid", "payload")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, result.Outcome)
}

func TestCaptureIDFromLinks(t *testing.T) {
	links := []model.PaypalLink{
		{Rel: "self", Href: "https://api.sandbox.paypal.com/v2/payments/refunds/RF-1"},
		{Rel: "up", Href: "https://api.sandbox.paypal.com/v2/payments/captures/CAP-9/"},
	}
	assert.Equal(t, "CAP-9", captureIDFromLinks(links))
	assert.Empty(t, captureIDFromLinks(links[:1]))
}
