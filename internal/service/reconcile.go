package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"

	"gorm.io/gorm"
)

type Outcome string

const (
	OutcomeApplied          Outcome = "APPLIED"
	OutcomeAlreadyProcessed Outcome = "ALREADY_PROCESSED"
	OutcomeOrderNotFound    Outcome = "ORDER_NOT_FOUND"
	OutcomeIgnored          Outcome = "IGNORED"
)

type ReconcileResult struct {
	Outcome     Outcome
	Gateway     model.Gateway
	EventID     string
	EventType   string
	OrderID     uint
	OrderNumber string
}

func ignored(gateway model.Gateway, eventID, eventType string) *ReconcileResult {
	return &ReconcileResult{Outcome: OutcomeIgnored, Gateway: gateway, EventID: eventID, EventType: eventType}
}

// ReconcileService applies verified payment events to orders. Every event is safe to
// deliver more than once.
type ReconcileService interface {
	Reconcile(ctx context.Context, event model.PaymentEvent) (*ReconcileResult, error)
}

type reconcileServiceImpl struct {
	db               *gorm.DB
	log              *slog.Logger
	orderRepo        repository.OrderRepository
	inventoryRepo    repository.InventoryRepository
	webhookEventRepo repository.WebhookEventRepository
	notifier         Notifier
}

func NewReconcileService(
	db *gorm.DB,
	log *slog.Logger,
	orderRepo repository.OrderRepository,
	inventoryRepo repository.InventoryRepository,
	webhookEventRepo repository.WebhookEventRepository,
	notifier Notifier,
) ReconcileService {
	return &reconcileServiceImpl{
		db:               db,
		log:              log,
		orderRepo:        orderRepo,
		inventoryRepo:    inventoryRepo,
		webhookEventRepo: webhookEventRepo,
		notifier:         notifier,
	}
}

func (s *reconcileServiceImpl) findOrder(ctx context.Context, tx *gorm.DB, ref model.EventRef) (*model.Order, error) {
	if ref.SessionID != "" {
		order, err := s.orderRepo.FindByGatewaySession(ctx, tx, ref.Gateway, ref.SessionID)
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) || ref.TransactionID == "" {
			return order, err
		}
	}
	if ref.TransactionID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return s.orderRepo.FindByGatewayTransaction(ctx, tx, ref.Gateway, ref.TransactionID)
}

func (s *reconcileServiceImpl) Reconcile(ctx context.Context, event model.PaymentEvent) (*ReconcileResult, error) {
	ref := event.Ref()
	result := &ReconcileResult{
		Gateway:   ref.Gateway,
		EventID:   ref.EventID,
		EventType: ref.EventType,
	}
	log := s.log.With("gateway", ref.Gateway, "event_id", ref.EventID, "event_type", ref.EventType)

	// cheap replay check; MarkProcessed inside the transaction is the authoritative one
	if ref.EventID != "" {
		seen, err := s.webhookEventRepo.Exists(ctx, ref.Gateway, ref.EventID)
		if err != nil {
			return nil, fmt.Errorf("check webhook event: %w", err)
		}
		if seen {
			log.InfoContext(ctx, "payment event already processed")
			result.Outcome = OutcomeAlreadyProcessed
			return result, nil
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.findOrder(ctx, tx, ref)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Outcome = OutcomeOrderNotFound
			return nil
		}
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}
		result.OrderID = order.ID
		result.OrderNumber = order.OrderNumber

		if ref.EventID != "" {
			inserted, err := s.webhookEventRepo.MarkProcessed(ctx, tx, ref.Gateway, ref.EventID, ref.EventType)
			if err != nil {
				return fmt.Errorf("mark event processed: %w", err)
			}
			if !inserted {
				result.Outcome = OutcomeAlreadyProcessed
				return nil
			}
		}

		if _, failed := event.(model.PaymentFailed); failed && superseded(order, ref) {
			log.InfoContext(ctx, "failure for a superseded checkout, order left as is", "order_id", order.ID, "session_id", ref.SessionID)
			result.Outcome = OutcomeIgnored
			return nil
		}

		var applied bool
		switch e := event.(type) {
		case model.PaymentSucceeded:
			applied, err = s.applySucceeded(ctx, tx, order.ID, e, log)
		case model.PaymentFailed:
			applied, err = s.applyFailed(ctx, tx, order.ID, e)
		case model.PaymentRefunded:
			applied, err = s.orderRepo.TransitionPayment(ctx, tx, order.ID, model.PaymentStatusPaid, model.PaymentStatusRefunded, nil)
		default:
			return fmt.Errorf("unsupported payment event %T", event)
		}
		if err != nil {
			return err
		}

		if applied {
			result.Outcome = OutcomeApplied
		} else {
			result.Outcome = OutcomeAlreadyProcessed
		}
		return nil
	})
	if err != nil {
		log.ErrorContext(ctx, "reconcile payment event", "error", err)
		return nil, err
	}

	log.InfoContext(ctx, "payment event reconciled", "outcome", result.Outcome, "order_id", result.OrderID)

	if result.Outcome == OutcomeApplied {
		s.notify(ctx, event, result.OrderID)
	}
	return result, nil
}

// superseded reports whether ref belongs to a checkout that was replaced by a later one.
func superseded(order *model.Order, ref model.EventRef) bool {
	if ref.SessionID == "" || order.GatewaySessionID == nil {
		return false
	}
	return order.PaymentGateway != ref.Gateway || *order.GatewaySessionID != ref.SessionID
}

// applySucceeded marks the order paid and turns its reservations into sales. A late payment
// for an order cancelled in the meantime is recorded but leaves stock alone.
func (s *reconcileServiceImpl) applySucceeded(ctx context.Context, tx *gorm.DB, orderID uint, e model.PaymentSucceeded, log *slog.Logger) (bool, error) {
	// the payment may arrive through an earlier checkout than the one last attached; refunds
	// must go back through the gateway that took the money
	fields := map[string]interface{}{
		"payment_gateway":        e.Gateway,
		"payment_transaction_id": e.TransactionID,
		"paid_at":                time.Now(),
	}
	if e.SessionID != "" {
		fields["gateway_session_id"] = e.SessionID
	}
	if e.Method != "" {
		fields["payment_method"] = e.Method
	}

	ok, err := s.orderRepo.TransitionPayment(ctx, tx, orderID, model.PaymentStatusPending, model.PaymentStatusPaid, fields)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	if !ok {
		log.WarnContext(ctx, "payment for an order that is no longer pending, refund manually if it was charged twice",
			"order_id", orderID, "transaction_id", e.TransactionID)
		return false, nil
	}

	moved, err := s.orderRepo.TransitionStatus(ctx, tx, orderID,
		[]model.OrderStatus{model.OrderStatusPending}, model.OrderStatusProcessing, nil)
	if err != nil {
		return false, fmt.Errorf("move order to processing: %w", err)
	}
	if !moved {
		log.WarnContext(ctx, "payment received for order that is no longer pending, refund manually", "order_id", orderID)
		return true, nil
	}

	order, err := s.orderRepo.FindByID(ctx, tx, orderID)
	if err != nil {
		return false, fmt.Errorf("get order: %w", err)
	}
	if err := commitReservations(ctx, tx, s.inventoryRepo, order, string(e.Gateway)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *reconcileServiceImpl) applyFailed(ctx context.Context, tx *gorm.DB, orderID uint, e model.PaymentFailed) (bool, error) {
	ok, err := s.orderRepo.TransitionPayment(ctx, tx, orderID, model.PaymentStatusPending, model.PaymentStatusFailed, nil)
	if err != nil {
		return false, fmt.Errorf("mark order failed: %w", err)
	}
	if !ok {
		return false, nil
	}

	order, err := s.orderRepo.FindByID(ctx, tx, orderID)
	if err != nil {
		return false, fmt.Errorf("get order: %w", err)
	}
	// a cancelled order already gave its reservation back
	if order.Status == model.OrderStatusCancelled {
		return true, nil
	}

	reason := "payment failed"
	if e.Reason != "" {
		reason = "payment failed: " + e.Reason
	}
	if err := releaseReservations(ctx, tx, s.inventoryRepo, order, string(e.Gateway), truncate(reason, 255)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *reconcileServiceImpl) notify(ctx context.Context, event model.PaymentEvent, orderID uint) {
	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		s.log.WarnContext(ctx, "load order for notification", "order_id", orderID, "error", err)
		return
	}

	switch event.(type) {
	case model.PaymentSucceeded:
		s.notifier.PaymentConfirmed(ctx, order)
	case model.PaymentFailed:
		s.notifier.PaymentFailed(ctx, order)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
