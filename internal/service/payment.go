package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/client"
	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StartPaymentInput struct {
	Actor   model.Actor
	OrderID uint
	Gateway model.Gateway
	// Nonce is the Braintree Drop-in payment method nonce.
	Nonce string
}

// PaymentSession tells the client how to finish paying. Only the fields of the chosen
// gateway are set.
type PaymentSession struct {
	Gateway     model.Gateway
	OrderID     uint
	OrderNumber string
	SessionID   string
	Amount      decimal.Decimal
	Currency    string

	ApprovalURL string // PAYPAL

	CurlecKeyID string // CURLEC
	AmountSen   int64

	Result *ReconcileResult // BRAINTREE, charged synchronously
}

type PaymentService interface {
	StartPayment(ctx context.Context, in StartPaymentInput) (*PaymentSession, error)
	// CapturePaypalOrder captures an approved PayPal order after the buyer returns. Local
	// state only changes when the capture webhook arrives.
	CapturePaypalOrder(ctx context.Context, paypalOrderID string) error
	VerifyCurlecCheckout(ctx context.Context, curlecOrderID, paymentID, signature string) (*ReconcileResult, error)

	HandlePaypalWebhook(ctx context.Context, headers http.Header, body []byte) (*ReconcileResult, error)
	HandleCurlecWebhook(ctx context.Context, eventID, signature string, body []byte) (*ReconcileResult, error)
	HandleBraintreeWebhook(ctx context.Context, signature, payload string) (*ReconcileResult, error)
}

type paymentServiceImpl struct {
	log             *slog.Logger
	validate        *validator.Validate
	paypalClient    client.PaypalClient
	curlecClient    client.CurlecClient
	braintreeClient client.BraintreeClient
	serviceBaseUrl  string
	frontendUrl     string
	orderRepo       repository.OrderRepository
	reconciler      ReconcileService
}

func NewPaymentService(
	log *slog.Logger,
	paypalClient client.PaypalClient,
	curlecClient client.CurlecClient,
	braintreeClient client.BraintreeClient,
	serviceBaseUrl string,
	frontendUrl string,
	orderRepo repository.OrderRepository,
	reconciler ReconcileService,
) PaymentService {
	return &paymentServiceImpl{
		log:             log,
		validate:        validator.New(),
		paypalClient:    paypalClient,
		curlecClient:    curlecClient,
		braintreeClient: braintreeClient,
		serviceBaseUrl:  serviceBaseUrl,
		frontendUrl:     frontendUrl,
		orderRepo:       orderRepo,
		reconciler:      reconciler,
	}
}

func gatewayErr(err error) error {
	return apperror.Wrap(apperror.CodeGateway, err, "payment gateway request failed")
}

func (s *paymentServiceImpl) StartPayment(ctx context.Context, in StartPaymentInput) (*PaymentSession, error) {
	order, err := s.orderRepo.FindByID(ctx, nil, in.OrderID)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	if !in.Actor.CanAccess(order.UserID) {
		return nil, apperror.New(apperror.CodeNotFound, "order not found")
	}
	if order.Status != model.OrderStatusPending || order.PaymentStatus != model.PaymentStatusPending {
		return nil, apperror.New(apperror.CodeConflict, "order is not awaiting payment")
	}

	if order.PaymentGateway == model.GatewayBraintree && order.GatewaySessionID != nil {
		return nil, apperror.New(apperror.CodeConflict, "a card payment for this order is in progress")
	}

	session := &PaymentSession{
		Gateway:     in.Gateway,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Amount:      order.Total,
		Currency:    order.Currency,
	}

	switch in.Gateway {
	case model.GatewayPaypal, model.GatewayCurlec:
		resumed, err := s.resume(ctx, order, session)
		if err != nil {
			return nil, err
		}
		if resumed {
			return session, nil
		}
	}

	switch in.Gateway {
	case model.GatewayPaypal:
		resp, err := s.paypalClient.CreateOrder(ctx, &client.PaypalOrderRequest{
			ReferenceID: order.OrderNumber,
			Amount:      order.Total,
			Currency:    order.Currency,
			ReturnURL:   s.serviceBaseUrl + "/api/paypal/success",
			CancelURL:   fmt.Sprintf("%s/orders/%d?payment=cancelled", s.frontendUrl, order.ID),
		})
		if err != nil {
			return nil, gatewayErr(err)
		}
		session.SessionID = resp.OrderID
		session.ApprovalURL = resp.ApproveURL
		err = s.attach(ctx, &model.GatewaySession{
			OrderID:     order.ID,
			Gateway:     in.Gateway,
			SessionID:   resp.OrderID,
			ApprovalURL: resp.ApproveURL,
		}, "paypal")
		return session, err

	case model.GatewayCurlec:
		resp, err := s.curlecClient.CreateOrder(ctx, order.OrderNumber, order.Total, order.Currency)
		if err != nil {
			return nil, gatewayErr(err)
		}
		session.SessionID = resp.ID
		session.CurlecKeyID = s.curlecClient.KeyID()
		session.AmountSen = resp.Amount
		err = s.attach(ctx, &model.GatewaySession{
			OrderID:   order.ID,
			Gateway:   in.Gateway,
			SessionID: resp.ID,
			AmountSen: resp.Amount,
		}, "fpx")
		return session, err

	case model.GatewayBraintree:
		if in.Nonce == "" {
			return nil, apperror.Validation("payment nonce is required",
				apperror.FieldError{Field: "nonce", Reason: "required for BRAINTREE"})
		}
		// the attached session doubles as the in-flight marker: a second charge is refused
		// until this one is settled or detached
		session.SessionID = order.OrderNumber
		err := s.attach(ctx, &model.GatewaySession{
			OrderID:   order.ID,
			Gateway:   in.Gateway,
			SessionID: order.OrderNumber,
		}, "card")
		if err != nil {
			return nil, err
		}
		result, err := s.chargeBraintree(ctx, order, in.Nonce)
		if err != nil {
			return nil, err
		}
		session.Result = result
		return session, nil

	default:
		return nil, apperror.Validation("unsupported payment gateway",
			apperror.FieldError{Field: "gateway", Reason: "must be PAYPAL, CURLEC or BRAINTREE"})
	}
}

// resume fills session from the checkout already open at the same gateway, so a retried
// start does not leave a second payable session behind.
func (s *paymentServiceImpl) resume(ctx context.Context, order *model.Order, session *PaymentSession) (bool, error) {
	if order.PaymentGateway != session.Gateway || order.GatewaySessionID == nil {
		return false, nil
	}

	existing, err := s.orderRepo.FindPaymentSession(ctx, session.Gateway, *order.GatewaySessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find payment session: %w", err)
	}

	session.SessionID = existing.SessionID
	session.ApprovalURL = existing.ApprovalURL
	session.AmountSen = existing.AmountSen
	if session.Gateway == model.GatewayCurlec {
		session.CurlecKeyID = s.curlecClient.KeyID()
	}
	return true, nil
}

func (s *paymentServiceImpl) attach(ctx context.Context, gs *model.GatewaySession, method string) error {
	err := s.orderRepo.AttachPaymentSession(ctx, gs, method)
	if errors.Is(err, repository.ErrGuardRejected) {
		return apperror.New(apperror.CodeConflict, "order is not awaiting payment")
	}
	if err != nil {
		return fmt.Errorf("attach payment session: %w", err)
	}
	return nil
}

func (s *paymentServiceImpl) chargeBraintree(ctx context.Context, order *model.Order, nonce string) (*ReconcileResult, error) {
	charge, err := s.braintreeClient.Charge(ctx, nonce, order.Total, order.OrderNumber)
	if err != nil {
		// nothing was charged, let the customer try again
		if derr := s.orderRepo.DetachPaymentSession(ctx, order.ID, model.GatewayBraintree, order.OrderNumber); derr != nil {
			s.log.ErrorContext(ctx, "detach braintree session", "order_id", order.ID, "error", derr)
		}
		return nil, gatewayErr(err)
	}

	ref := model.EventRef{
		Gateway:       model.GatewayBraintree,
		EventType:     "transaction.sale",
		SessionID:     order.OrderNumber,
		TransactionID: charge.TransactionID,
	}

	var event model.PaymentEvent
	if charge.Approved {
		event = model.PaymentSucceeded{EventRef: ref, Method: charge.PaymentMethod}
	} else {
		s.log.InfoContext(ctx, "braintree charge declined", "order_id", order.ID, "status", charge.Status, "reason", charge.Reason)
		event = model.PaymentFailed{EventRef: ref, Reason: charge.Reason}
	}
	return s.reconciler.Reconcile(ctx, event)
}

func (s *paymentServiceImpl) CapturePaypalOrder(ctx context.Context, paypalOrderID string) error {
	resp, err := s.paypalClient.CaptureOrder(ctx, paypalOrderID)
	if err != nil {
		return gatewayErr(err)
	}
	s.log.InfoContext(ctx, "paypal order captured", "paypal_order_id", resp.OrderID, "status", resp.Status, "capture_id", resp.CaptureID)
	return nil
}

func (s *paymentServiceImpl) VerifyCurlecCheckout(ctx context.Context, curlecOrderID, paymentID, signature string) (*ReconcileResult, error) {
	if err := s.curlecClient.VerifyPaymentSignature(curlecOrderID, paymentID, signature); err != nil {
		return nil, apperror.Wrap(apperror.CodeInvalidSignature, err, "invalid payment signature")
	}

	return s.reconciler.Reconcile(ctx, model.PaymentSucceeded{
		EventRef: model.EventRef{
			Gateway:       model.GatewayCurlec,
			EventType:     "checkout.verified",
			SessionID:     curlecOrderID,
			TransactionID: paymentID,
		},
		Method: "fpx",
	})
}

func (s *paymentServiceImpl) HandlePaypalWebhook(ctx context.Context, headers http.Header, body []byte) (*ReconcileResult, error) {
	if err := s.paypalClient.VerifyWebhookSignature(ctx, headers, body); err != nil {
		if errors.Is(err, client.ErrInvalidWebhookSignature) {
			return nil, apperror.Wrap(apperror.CodeInvalidSignature, err, "invalid webhook signature")
		}
		return nil, gatewayErr(err)
	}

	event, raw, err := parsePaypalEvent(s.validate, body)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return ignored(model.GatewayPaypal, raw.ID, raw.EventType), nil
	}
	return s.reconciler.Reconcile(ctx, event)
}

func (s *paymentServiceImpl) HandleCurlecWebhook(ctx context.Context, eventID, signature string, body []byte) (*ReconcileResult, error) {
	if err := s.curlecClient.VerifyWebhookSignature(body, signature); err != nil {
		return nil, apperror.Wrap(apperror.CodeInvalidSignature, err, "invalid webhook signature")
	}

	event, raw, err := parseCurlecEvent(s.validate, eventID, body)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return ignored(model.GatewayCurlec, eventID, raw.Event), nil
	}
	return s.reconciler.Reconcile(ctx, event)
}

func (s *paymentServiceImpl) HandleBraintreeWebhook(ctx context.Context, signature, payload string) (*ReconcileResult, error) {
	if signature == "" || payload == "" {
		return nil, apperror.New(apperror.CodeInvalidSignature, "missing bt_signature or bt_payload")
	}

	notification, err := s.braintreeClient.ParseWebhook(ctx, signature, payload)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInvalidSignature, err, "invalid webhook signature")
	}

	event := braintreeEvent(notification)
	if event == nil {
		return ignored(model.GatewayBraintree, "", notification.Kind), nil
	}
	return s.reconciler.Reconcile(ctx, event)
}
