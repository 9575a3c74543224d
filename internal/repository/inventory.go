package repository

import (
	"context"

	"binwahab-store/internal/model"

	"gorm.io/gorm"
)

// StockLine addresses one SKU: the variant row when VariantID is set, else the product row.
type StockLine struct {
	ProductID uint
	VariantID *uint
	Quantity  int
}

type InventoryRepository interface {
	// Reserve holds stock for a pending order: reserved_stock += q while stock - reserved_stock >= q.
	Reserve(ctx context.Context, tx *gorm.DB, line StockLine) error
	// Release drops a reservation: reserved_stock -= q while reserved_stock >= q.
	Release(ctx context.Context, tx *gorm.DB, line StockLine) error
	// Commit turns a reservation into a sale: stock -= q and reserved_stock -= q while stock >= q.
	Commit(ctx context.Context, tx *gorm.DB, line StockLine) error
	// Restock puts units back on hand.
	Restock(ctx context.Context, tx *gorm.DB, line StockLine) error
	// Adjust applies a signed delta while stock + delta >= reserved_stock.
	Adjust(ctx context.Context, tx *gorm.DB, line StockLine) error

	Record(ctx context.Context, tx *gorm.DB, entries []*model.InventoryTransaction) error
	ListTransactions(ctx context.Context, productID uint, limit int) ([]*model.InventoryTransaction, error)
}

type inventoryRepoImpl struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepoImpl{
		db: db,
	}
}

func (r *inventoryRepoImpl) target(ctx context.Context, tx *gorm.DB, line StockLine) *gorm.DB {
	q := conn(r.db, tx).WithContext(ctx)
	if line.VariantID != nil {
		return q.Model(&model.ProductVariant{}).Where("id = ? AND product_id = ?", *line.VariantID, line.ProductID)
	}
	return q.Model(&model.Product{}).Where("id = ?", line.ProductID)
}

func guarded(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGuardRejected
	}
	return nil
}

func (r *inventoryRepoImpl) Reserve(ctx context.Context, tx *gorm.DB, line StockLine) error {
	return guarded(r.target(ctx, tx, line).
		Where("stock - reserved_stock >= ?", line.Quantity).
		UpdateColumn("reserved_stock", gorm.Expr("reserved_stock + ?", line.Quantity)))
}

func (r *inventoryRepoImpl) Release(ctx context.Context, tx *gorm.DB, line StockLine) error {
	return guarded(r.target(ctx, tx, line).
		Where("reserved_stock >= ?", line.Quantity).
		UpdateColumn("reserved_stock", gorm.Expr("reserved_stock - ?", line.Quantity)))
}

func (r *inventoryRepoImpl) Commit(ctx context.Context, tx *gorm.DB, line StockLine) error {
	return guarded(r.target(ctx, tx, line).
		Where("stock >= ? AND reserved_stock >= ?", line.Quantity, line.Quantity).
		UpdateColumns(map[string]interface{}{
			"stock":          gorm.Expr("stock - ?", line.Quantity),
			"reserved_stock": gorm.Expr("reserved_stock - ?", line.Quantity),
		}))
}

func (r *inventoryRepoImpl) Restock(ctx context.Context, tx *gorm.DB, line StockLine) error {
	return guarded(r.target(ctx, tx, line).
		UpdateColumn("stock", gorm.Expr("stock + ?", line.Quantity)))
}

func (r *inventoryRepoImpl) Adjust(ctx context.Context, tx *gorm.DB, line StockLine) error {
	return guarded(r.target(ctx, tx, line).
		Where("stock + ? >= reserved_stock", line.Quantity).
		UpdateColumn("stock", gorm.Expr("stock + ?", line.Quantity)))
}

func (r *inventoryRepoImpl) Record(ctx context.Context, tx *gorm.DB, entries []*model.InventoryTransaction) error {
	if len(entries) == 0 {
		return nil
	}
	return conn(r.db, tx).WithContext(ctx).Create(&entries).Error
}

func (r *inventoryRepoImpl) ListTransactions(ctx context.Context, productID uint, limit int) ([]*model.InventoryTransaction, error) {
	var entries []*model.InventoryTransaction

	q := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if productID != 0 {
		q = q.Where("product_id = ?", productID)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
