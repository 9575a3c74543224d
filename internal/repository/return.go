package repository

import (
	"context"
	"time"

	"binwahab-store/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReturnRepository interface {
	// Create inserts the return with its items and refund.
	Create(ctx context.Context, tx *gorm.DB, ret *model.Return) error
	FindByID(ctx context.Context, tx *gorm.DB, returnID uint) (*model.Return, error)
	List(ctx context.Context, userID string, status model.ReturnStatus) ([]*model.Return, error)
	// ReturnedQuantities sums requested quantities per order item over non-rejected returns.
	ReturnedQuantities(ctx context.Context, tx *gorm.DB, orderID uint) (map[uint]int, error)
	// SumRefunded totals refunds of approved returns on the order that are not cancelled or failed.
	SumRefunded(ctx context.Context, tx *gorm.DB, orderID uint) (decimal.Decimal, error)
	TransitionStatus(ctx context.Context, tx *gorm.DB, returnID uint, from, to model.ReturnStatus, fields map[string]interface{}) (bool, error)
	UpsertRefund(ctx context.Context, tx *gorm.DB, refund *model.Refund) error
	UpdateRefund(ctx context.Context, refundID uint, fields map[string]interface{}) error
	CountPending(ctx context.Context) (int64, error)
}

type returnRepoImpl struct {
	db *gorm.DB
}

func NewReturnRepository(db *gorm.DB) ReturnRepository {
	return &returnRepoImpl{
		db: db,
	}
}

func (r *returnRepoImpl) Create(ctx context.Context, tx *gorm.DB, ret *model.Return) error {
	return conn(r.db, tx).WithContext(ctx).Create(ret).Error
}

func (r *returnRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, returnID uint) (*model.Return, error) {
	var ret model.Return
	err := conn(r.db, tx).WithContext(ctx).
		Preload("Items.OrderItem").
		Preload("Refund").
		Where("id = ?", returnID).
		First(&ret).Error

	if err != nil {
		return nil, err
	}

	return &ret, nil
}

func (r *returnRepoImpl) List(ctx context.Context, userID string, status model.ReturnStatus) ([]*model.Return, error) {
	var returns []*model.Return

	q := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Refund").
		Order("id DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	if err := q.Find(&returns).Error; err != nil {
		return nil, err
	}

	return returns, nil
}

func (r *returnRepoImpl) ReturnedQuantities(ctx context.Context, tx *gorm.DB, orderID uint) (map[uint]int, error) {
	var rows []struct {
		OrderItemID uint
		Quantity    int
	}
	err := conn(r.db, tx).WithContext(ctx).
		Table("return_items").
		Select("return_items.order_item_id AS order_item_id, SUM(return_items.quantity) AS quantity").
		Joins("JOIN returns ON returns.id = return_items.return_id").
		Where("returns.order_id = ? AND returns.status <> ?", orderID, model.ReturnStatusRejected).
		Group("return_items.order_item_id").
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	quantities := make(map[uint]int, len(rows))
	for _, row := range rows {
		quantities[row.OrderItemID] = row.Quantity
	}
	return quantities, nil
}

func (r *returnRepoImpl) SumRefunded(ctx context.Context, tx *gorm.DB, orderID uint) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := conn(r.db, tx).WithContext(ctx).
		Model(&model.Refund{}).
		Joins("JOIN returns ON returns.id = refunds.return_id").
		Where("returns.order_id = ? AND returns.status = ?", orderID, model.ReturnStatusApproved).
		Where("refunds.status NOT IN ?", []model.RefundStatus{model.RefundStatusCancelled, model.RefundStatusFailed}).
		Pluck("refunds.amount", &amounts).Error

	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}
	return sum, nil
}

func (r *returnRepoImpl) TransitionStatus(ctx context.Context, tx *gorm.DB, returnID uint, from, to model.ReturnStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	result := conn(r.db, tx).WithContext(ctx).
		Model(&model.Return{}).
		Where("id = ? AND status = ?", returnID, from).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *returnRepoImpl) UpsertRefund(ctx context.Context, tx *gorm.DB, refund *model.Refund) error {
	return conn(r.db, tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "return_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":     refund.Amount,
			"method":     refund.Method,
			"status":     refund.Status,
			"updated_at": time.Now(),
		}),
	}).Create(refund).Error
}

func (r *returnRepoImpl) UpdateRefund(ctx context.Context, refundID uint, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.WithContext(ctx).
		Model(&model.Refund{}).
		Where("id = ?", refundID).
		Updates(fields).Error
}

func (r *returnRepoImpl) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Return{}).
		Where("status = ?", model.ReturnStatusPending).
		Count(&count).Error

	return count, err
}
