package service

import (
	"context"
	"fmt"

	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"

	"gorm.io/gorm"
)

func stockLine(item *model.OrderItem) repository.StockLine {
	return repository.StockLine{
		ProductID: item.ProductID,
		VariantID: item.VariantID,
		Quantity:  item.Quantity,
	}
}

// ledger builds one inventory entry per tracked order line. sign is applied to the line
// quantity so entries leaving stock are negative.
func ledger(order *model.Order, kind model.InventoryTransactionType, sign int, createdBy, reason string) []*model.InventoryTransaction {
	orderID := order.ID
	entries := make([]*model.InventoryTransaction, 0, len(order.Items))
	for _, item := range order.Items {
		if !item.StockReserved {
			continue
		}
		entries = append(entries, &model.InventoryTransaction{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			OrderID:   &orderID,
			Type:      kind,
			Quantity:  sign * item.Quantity,
			Reason:    reason,
			CreatedBy: createdBy,
		})
	}
	return entries
}

func releaseReservations(ctx context.Context, tx *gorm.DB, inventoryRepo repository.InventoryRepository, order *model.Order, createdBy, reason string) error {
	for i := range order.Items {
		item := &order.Items[i]
		if !item.StockReserved {
			continue
		}
		if err := inventoryRepo.Release(ctx, tx, stockLine(item)); err != nil {
			return fmt.Errorf("release stock for %s: %w", item.SKU, err)
		}
	}
	return inventoryRepo.Record(ctx, tx, ledger(order, model.InventoryReleased, 1, createdBy, reason))
}

func commitReservations(ctx context.Context, tx *gorm.DB, inventoryRepo repository.InventoryRepository, order *model.Order, createdBy string) error {
	for i := range order.Items {
		item := &order.Items[i]
		if !item.StockReserved {
			continue
		}
		if err := inventoryRepo.Commit(ctx, tx, stockLine(item)); err != nil {
			return fmt.Errorf("commit stock for %s: %w", item.SKU, err)
		}
	}
	return inventoryRepo.Record(ctx, tx, ledger(order, model.InventorySale, -1, createdBy, "payment confirmed"))
}

// restockOrder puts the sold units of a paid order back on hand.
func restockOrder(ctx context.Context, tx *gorm.DB, inventoryRepo repository.InventoryRepository, order *model.Order, createdBy string) error {
	for i := range order.Items {
		item := &order.Items[i]
		if !item.StockReserved {
			continue
		}
		if err := inventoryRepo.Restock(ctx, tx, stockLine(item)); err != nil {
			return fmt.Errorf("restock %s: %w", item.SKU, err)
		}
	}
	return inventoryRepo.Record(ctx, tx, ledger(order, model.InventoryReturn, 1, createdBy, "paid order cancelled"))
}
