package repository

import (
	"context"
	"errors"
	"time"

	"binwahab-store/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderFilter struct {
	UserID        string
	Status        model.OrderStatus
	PaymentStatus model.PaymentStatus
	Limit         int
	Offset        int
}

type OrderRepository interface {
	// Create inserts the order together with its items.
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error)
	FindByGatewaySession(ctx context.Context, tx *gorm.DB, gateway model.Gateway, sessionID string) (*model.Order, error)
	FindByGatewayTransaction(ctx context.Context, tx *gorm.DB, gateway model.Gateway, transactionID string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*model.Order, error)

	// AttachPaymentSession makes session the order's current checkout while the order is still
	// awaiting payment and no card charge is in flight. Earlier sessions stay resolvable.
	AttachPaymentSession(ctx context.Context, session *model.GatewaySession, method string) error
	// DetachPaymentSession clears the current session if it is still sessionID.
	DetachPaymentSession(ctx context.Context, orderID uint, gateway model.Gateway, sessionID string) error
	FindPaymentSession(ctx context.Context, gateway model.Gateway, sessionID string) (*model.GatewaySession, error)
	// Lock bumps updated_at so writers that check-then-insert against one order take turns.
	Lock(ctx context.Context, tx *gorm.DB, orderID uint) error
	// TransitionPayment moves payment_status from -> to only if it is currently from.
	TransitionPayment(ctx context.Context, tx *gorm.DB, orderID uint, from, to model.PaymentStatus, fields map[string]interface{}) (bool, error)
	// TransitionStatus moves status to `to` only if it is currently one of from.
	TransitionStatus(ctx context.Context, tx *gorm.DB, orderID uint, from []model.OrderStatus, to model.OrderStatus, fields map[string]interface{}) (bool, error)

	CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error)
	SumPaidRevenue(ctx context.Context, since time.Time) (decimal.Decimal, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return conn(r.db, tx).WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error) {
	var order model.Order
	err := conn(r.db, tx).WithContext(ctx).
		Preload("Items").
		Preload("ShippingAddress").
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByGatewaySession(ctx context.Context, tx *gorm.DB, gateway model.Gateway, sessionID string) (*model.Order, error) {
	var session model.GatewaySession
	err := conn(r.db, tx).WithContext(ctx).
		Where("gateway = ? AND session_id = ?", gateway, sessionID).
		First(&session).Error
	if err == nil {
		return r.FindByID(ctx, tx, session.OrderID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var order model.Order
	err = conn(r.db, tx).WithContext(ctx).
		Where("payment_gateway = ? AND gateway_session_id = ?", gateway, sessionID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByGatewayTransaction(ctx context.Context, tx *gorm.DB, gateway model.Gateway, transactionID string) (*model.Order, error) {
	var order model.Order
	err := conn(r.db, tx).WithContext(ctx).
		Where("payment_gateway = ? AND payment_transaction_id = ?", gateway, transactionID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter OrderFilter) ([]*model.Order, error) {
	var orders []*model.Order

	q := r.db.WithContext(ctx).Preload("Items").Order("id DESC")
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) AttachPaymentSession(ctx context.Context, session *model.GatewaySession, method string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Order{}).
			Where("id = ? AND status = ? AND payment_status = ?",
				session.OrderID, model.OrderStatusPending, model.PaymentStatusPending).
			Where("NOT (payment_gateway = ? AND gateway_session_id IS NOT NULL)", model.GatewayBraintree).
			Updates(map[string]interface{}{
				"payment_gateway":    session.Gateway,
				"gateway_session_id": session.SessionID,
				"payment_method":     method,
				"updated_at":         time.Now(),
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrGuardRejected
		}

		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(session).Error
	})
}

func (r *orderRepoImpl) DetachPaymentSession(ctx context.Context, orderID uint, gateway model.Gateway, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND payment_gateway = ? AND gateway_session_id = ?", orderID, gateway, sessionID).
		Updates(map[string]interface{}{
			"gateway_session_id": nil,
			"updated_at":         time.Now(),
		}).Error
}

func (r *orderRepoImpl) FindPaymentSession(ctx context.Context, gateway model.Gateway, sessionID string) (*model.GatewaySession, error) {
	var session model.GatewaySession
	err := r.db.WithContext(ctx).
		Where("gateway = ? AND session_id = ?", gateway, sessionID).
		First(&session).Error

	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *orderRepoImpl) Lock(ctx context.Context, tx *gorm.DB, orderID uint) error {
	return conn(r.db, tx).WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("updated_at", time.Now()).Error
}

func (r *orderRepoImpl) TransitionPayment(ctx context.Context, tx *gorm.DB, orderID uint, from, to model.PaymentStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"payment_status": to,
		"updated_at":     time.Now(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	result := conn(r.db, tx).WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", orderID, from).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *orderRepoImpl) TransitionStatus(ctx context.Context, tx *gorm.DB, orderID uint, from []model.OrderStatus, to model.OrderStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	result := conn(r.db, tx).WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *orderRepoImpl) CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error) {
	var rows []struct {
		Status model.OrderStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	counts := make(map[model.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *orderRepoImpl) SumPaidRevenue(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var totals []decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("payment_status = ? AND paid_at >= ?", model.PaymentStatusPaid, since).
		Pluck("total", &totals).Error

	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t)
	}
	return sum, nil
}
