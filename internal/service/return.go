package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/client"
	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReturnItemInput struct {
	OrderItemID uint
	Quantity    int
	Reason      string
}

type SubmitReturnInput struct {
	Actor   model.Actor
	OrderID uint
	Reason  string
	Items   []ReturnItemInput
}

type ApproveReturnInput struct {
	Reviewer     model.Actor
	ReturnID     uint
	RefundAmount decimal.Decimal
	RefundMethod model.RefundMethod
	Notes        string
}

type ReturnService interface {
	Submit(ctx context.Context, in SubmitReturnInput) (*model.Return, error)
	List(ctx context.Context, userID string, status model.ReturnStatus) ([]*model.Return, error)
	Get(ctx context.Context, actor model.Actor, returnID uint) (*model.Return, error)
	Approve(ctx context.Context, in ApproveReturnInput) (*model.Return, error)
	Reject(ctx context.Context, reviewer model.Actor, returnID uint, notes string) (*model.Return, error)
}

type returnServiceImpl struct {
	db              *gorm.DB
	log             *slog.Logger
	returnWindow    time.Duration
	now             func() time.Time
	orderRepo       repository.OrderRepository
	returnRepo      repository.ReturnRepository
	inventoryRepo   repository.InventoryRepository
	paypalClient    client.PaypalClient
	curlecClient    client.CurlecClient
	braintreeClient client.BraintreeClient
	notifier        Notifier
}

func NewReturnService(
	db *gorm.DB,
	log *slog.Logger,
	returnWindowDays int,
	orderRepo repository.OrderRepository,
	returnRepo repository.ReturnRepository,
	inventoryRepo repository.InventoryRepository,
	paypalClient client.PaypalClient,
	curlecClient client.CurlecClient,
	braintreeClient client.BraintreeClient,
	notifier Notifier,
) ReturnService {
	return &returnServiceImpl{
		db:              db,
		log:             log,
		returnWindow:    time.Duration(returnWindowDays) * 24 * time.Hour,
		now:             time.Now,
		orderRepo:       orderRepo,
		returnRepo:      returnRepo,
		inventoryRepo:   inventoryRepo,
		paypalClient:    paypalClient,
		curlecClient:    curlecClient,
		braintreeClient: braintreeClient,
		notifier:        notifier,
	}
}

func (s *returnServiceImpl) Submit(ctx context.Context, in SubmitReturnInput) (*model.Return, error) {
	var ret *model.Return

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// returns of one order are checked against each other, so they go one at a time;
		// the lock comes before any read so the reads see the previous writer's rows
		if err := s.orderRepo.Lock(ctx, tx, in.OrderID); err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		order, err := s.orderRepo.FindByID(ctx, tx, in.OrderID)
		if err != nil {
			return lookupErr(err, "order")
		}
		if !in.Actor.CanAccess(order.UserID) {
			return apperror.New(apperror.CodeNotFound, "order not found")
		}
		if order.Status != model.OrderStatusDelivered || order.DeliveredAt == nil {
			return apperror.New(apperror.CodeValidation, "only delivered orders can be returned")
		}
		if s.now().Sub(*order.DeliveredAt) > s.returnWindow {
			return apperror.New(apperror.CodeValidation, "the return window for this order has closed")
		}
		if len(in.Items) == 0 {
			return apperror.Validation("at least one item is required",
				apperror.FieldError{Field: "items", Reason: "empty"})
		}

		returned, err := s.returnRepo.ReturnedQuantities(ctx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("sum returned quantities: %w", err)
		}

		ordered := make(map[uint]*model.OrderItem, len(order.Items))
		for i := range order.Items {
			ordered[order.Items[i].ID] = &order.Items[i]
		}

		var (
			details []apperror.FieldError
			items   []model.ReturnItem
			amount  = decimal.Zero
			seen    = make(map[uint]bool, len(in.Items))
		)
		for _, item := range in.Items {
			field := strconv.FormatUint(uint64(item.OrderItemID), 10)
			orderItem, ok := ordered[item.OrderItemID]
			switch {
			case seen[item.OrderItemID]:
				details = append(details, apperror.FieldError{Field: field, Reason: "item listed more than once"})
				continue
			case !ok:
				details = append(details, apperror.FieldError{Field: field, Reason: "item does not belong to this order"})
				continue
			case item.Quantity < 1:
				details = append(details, apperror.FieldError{Field: field, Reason: "quantity must be at least 1"})
				continue
			}
			seen[item.OrderItemID] = true

			left := orderItem.Quantity - returned[item.OrderItemID]
			if item.Quantity > left {
				details = append(details, apperror.FieldError{Field: field, Reason: fmt.Sprintf("only %d left to return", max(left, 0))})
				continue
			}

			items = append(items, model.ReturnItem{
				OrderItemID: item.OrderItemID,
				Quantity:    item.Quantity,
				Reason:      item.Reason,
			})
			amount = amount.Add(orderItem.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		if len(details) > 0 {
			return apperror.Validation("some return items are invalid", details...)
		}

		ret = &model.Return{
			ReturnNumber: newReference("RT"),
			OrderID:      order.ID,
			UserID:       order.UserID,
			Status:       model.ReturnStatusPending,
			Reason:       in.Reason,
			Items:        items,
			Refund: &model.Refund{
				Amount: amount.Round(2),
				Status: model.RefundStatusPending,
			},
		}
		if err := s.returnRepo.Create(ctx, tx, ret); err != nil {
			return fmt.Errorf("store return: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "return submitted", "return_id", ret.ID, "order_id", ret.OrderID)
	return ret, nil
}

func (s *returnServiceImpl) List(ctx context.Context, userID string, status model.ReturnStatus) ([]*model.Return, error) {
	returns, err := s.returnRepo.List(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	return returns, nil
}

func (s *returnServiceImpl) Get(ctx context.Context, actor model.Actor, returnID uint) (*model.Return, error) {
	ret, err := s.returnRepo.FindByID(ctx, nil, returnID)
	if err != nil {
		return nil, lookupErr(err, "return")
	}
	if !actor.CanAccess(ret.UserID) {
		return nil, apperror.New(apperror.CodeNotFound, "return not found")
	}
	return ret, nil
}

func (s *returnServiceImpl) Approve(ctx context.Context, in ApproveReturnInput) (*model.Return, error) {
	switch in.RefundMethod {
	case model.RefundMethodOriginalPayment, model.RefundMethodStoreCredit, model.RefundMethodBankTransfer:
	default:
		return nil, apperror.Validation("unsupported refund method",
			apperror.FieldError{Field: "refund_method", Reason: "must be ORIGINAL_PAYMENT, STORE_CREDIT or BANK_TRANSFER"})
	}
	if !in.RefundAmount.IsPositive() {
		return nil, apperror.Validation("refund amount must be positive",
			apperror.FieldError{Field: "refund_amount", Reason: "must be greater than 0"})
	}

	pending, err := s.returnRepo.FindByID(ctx, nil, in.ReturnID)
	if err != nil {
		return nil, lookupErr(err, "return")
	}

	var order *model.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// refunds of one order are capped together, see Submit for the lock order
		if err := s.orderRepo.Lock(ctx, tx, pending.OrderID); err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		ret, err := s.returnRepo.FindByID(ctx, tx, in.ReturnID)
		if err != nil {
			return lookupErr(err, "return")
		}
		order, err = s.orderRepo.FindByID(ctx, tx, ret.OrderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		refunded, err := s.returnRepo.SumRefunded(ctx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("sum refunds: %w", err)
		}
		if left := order.Total.Sub(refunded); in.RefundAmount.GreaterThan(left) {
			return apperror.Validation("refund amount exceeds what is left of the order total",
				apperror.FieldError{Field: "refund_amount", Reason: "at most " + decimal.Max(left, decimal.Zero).StringFixed(2)})
		}

		now := s.now()
		ok, err := s.returnRepo.TransitionStatus(ctx, tx, ret.ID, model.ReturnStatusPending, model.ReturnStatusApproved, map[string]interface{}{
			"reviewed_by": in.Reviewer.UserID,
			"reviewed_at": now,
			"admin_notes": in.Notes,
		})
		if err != nil {
			return fmt.Errorf("approve return: %w", err)
		}
		if !ok {
			return apperror.New(apperror.CodeConflict, "return has already been reviewed")
		}

		status := model.RefundStatusCompleted
		if in.RefundMethod == model.RefundMethodOriginalPayment {
			status = model.RefundStatusProcessing
		}
		err = s.returnRepo.UpsertRefund(ctx, tx, &model.Refund{
			ReturnID: ret.ID,
			Amount:   in.RefundAmount.Round(2),
			Method:   in.RefundMethod,
			Status:   status,
		})
		if err != nil {
			return fmt.Errorf("store refund: %w", err)
		}

		returnID := ret.ID
		var entries []*model.InventoryTransaction
		for _, item := range ret.Items {
			orderItem := item.OrderItem
			if orderItem == nil || !orderItem.StockReserved {
				continue
			}
			line := repository.StockLine{ProductID: orderItem.ProductID, VariantID: orderItem.VariantID, Quantity: item.Quantity}
			if err := s.inventoryRepo.Restock(ctx, tx, line); err != nil {
				return fmt.Errorf("restock %s: %w", orderItem.SKU, err)
			}
			entries = append(entries, &model.InventoryTransaction{
				ProductID: orderItem.ProductID,
				VariantID: orderItem.VariantID,
				OrderID:   &order.ID,
				ReturnID:  &returnID,
				Type:      model.InventoryReturn,
				Quantity:  item.Quantity,
				Reason:    "return " + ret.ReturnNumber,
				CreatedBy: in.Reviewer.UserID,
			})
		}
		return s.inventoryRepo.Record(ctx, tx, entries)
	})
	if err != nil {
		return nil, err
	}

	ret, err := s.returnRepo.FindByID(ctx, nil, in.ReturnID)
	if err != nil {
		return nil, fmt.Errorf("get return: %w", err)
	}

	if in.RefundMethod == model.RefundMethodOriginalPayment && ret.Refund != nil {
		s.issueRefund(ctx, order, ret.Refund)
	}

	s.log.InfoContext(ctx, "return approved", "return_id", ret.ID, "order_id", ret.OrderID, "by", in.Reviewer.UserID)
	s.notifier.ReturnApproved(ctx, ret)
	return ret, nil
}

// issueRefund sends the money back through the gateway that took it. The approval is
// already committed, so a failure only marks the refund FAILED for follow-up.
func (s *returnServiceImpl) issueRefund(ctx context.Context, order *model.Order, refund *model.Refund) {
	var (
		gatewayRefundID string
		err             error
	)
	switch {
	case order.PaymentTransactionID == "":
		err = errors.New("order has no captured payment")
	case order.PaymentGateway == model.GatewayPaypal:
		gatewayRefundID, err = s.paypalClient.RefundCapture(ctx, order.PaymentTransactionID, refund.Amount, order.Currency)
	case order.PaymentGateway == model.GatewayCurlec:
		gatewayRefundID, err = s.curlecClient.RefundPayment(ctx, order.PaymentTransactionID, refund.Amount)
	case order.PaymentGateway == model.GatewayBraintree:
		gatewayRefundID, err = s.braintreeClient.Refund(ctx, order.PaymentTransactionID, refund.Amount)
	default:
		err = fmt.Errorf("unknown payment gateway %q", order.PaymentGateway)
	}

	fields := map[string]interface{}{"status": model.RefundStatusCompleted, "gateway_refund_id": gatewayRefundID}
	if err != nil {
		s.log.ErrorContext(ctx, "gateway refund", "order_id", order.ID, "gateway", order.PaymentGateway, "refund_id", refund.ID, "error", err)
		fields = map[string]interface{}{"status": model.RefundStatusFailed}
	}

	if err := s.returnRepo.UpdateRefund(ctx, refund.ID, fields); err != nil {
		s.log.ErrorContext(ctx, "update refund status", "refund_id", refund.ID, "error", err)
		return
	}
	refund.Status = fields["status"].(model.RefundStatus)
	refund.GatewayRefundID = gatewayRefundID
}

func (s *returnServiceImpl) Reject(ctx context.Context, reviewer model.Actor, returnID uint, notes string) (*model.Return, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ret, err := s.returnRepo.FindByID(ctx, tx, returnID)
		if err != nil {
			return lookupErr(err, "return")
		}

		ok, err := s.returnRepo.TransitionStatus(ctx, tx, returnID, model.ReturnStatusPending, model.ReturnStatusRejected, map[string]interface{}{
			"reviewed_by": reviewer.UserID,
			"reviewed_at": s.now(),
			"admin_notes": notes,
		})
		if err != nil {
			return fmt.Errorf("reject return: %w", err)
		}
		if !ok {
			return apperror.New(apperror.CodeConflict, "return has already been reviewed")
		}

		if ret.Refund == nil {
			return nil
		}
		return s.returnRepo.UpsertRefund(ctx, tx, &model.Refund{
			ReturnID: ret.ID,
			Amount:   ret.Refund.Amount,
			Method:   ret.Refund.Method,
			Status:   model.RefundStatusCancelled,
		})
	})
	if err != nil {
		return nil, err
	}

	ret, err := s.returnRepo.FindByID(ctx, nil, returnID)
	if err != nil {
		return nil, fmt.Errorf("get return: %w", err)
	}

	s.log.InfoContext(ctx, "return rejected", "return_id", ret.ID, "by", reviewer.UserID)
	s.notifier.ReturnRejected(ctx, ret)
	return ret, nil
}
