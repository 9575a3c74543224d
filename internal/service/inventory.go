package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"

	"gorm.io/gorm"
)

type AdjustStockInput struct {
	Actor     model.Actor
	ProductID uint
	VariantID *uint
	// Quantity is a signed delta; positive adds stock.
	Quantity int
	Reason   string
}

type InventoryService interface {
	Adjust(ctx context.Context, in AdjustStockInput) (*model.InventoryTransaction, error)
	ListTransactions(ctx context.Context, productID uint, limit int) ([]*model.InventoryTransaction, error)
}

type inventoryServiceImpl struct {
	db            *gorm.DB
	log           *slog.Logger
	productRepo   repository.ProductRepository
	inventoryRepo repository.InventoryRepository
}

func NewInventoryService(
	db *gorm.DB,
	log *slog.Logger,
	productRepo repository.ProductRepository,
	inventoryRepo repository.InventoryRepository,
) InventoryService {
	return &inventoryServiceImpl{
		db:            db,
		log:           log,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
	}
}

func (s *inventoryServiceImpl) Adjust(ctx context.Context, in AdjustStockInput) (*model.InventoryTransaction, error) {
	if in.Quantity == 0 {
		return nil, apperror.Validation("quantity must not be zero",
			apperror.FieldError{Field: "quantity", Reason: "non-zero signed delta"})
	}

	kind := model.InventoryAdjustment
	if in.Quantity > 0 && strings.EqualFold(strings.TrimSpace(in.Reason), "restock") {
		kind = model.InventoryPurchase
	}

	entry := &model.InventoryTransaction{
		ProductID: in.ProductID,
		VariantID: in.VariantID,
		Type:      kind,
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		CreatedBy: in.Actor.UserID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.productRepo.FindByID(ctx, tx, in.ProductID); err != nil {
			return lookupErr(err, "product")
		}
		if in.VariantID != nil {
			if _, err := s.productRepo.FindVariant(ctx, tx, in.ProductID, *in.VariantID); err != nil {
				return lookupErr(err, "variant")
			}
		}

		err := s.inventoryRepo.Adjust(ctx, tx, repository.StockLine{
			ProductID: in.ProductID,
			VariantID: in.VariantID,
			Quantity:  in.Quantity,
		})
		if errors.Is(err, repository.ErrGuardRejected) {
			return apperror.New(apperror.CodeInsufficientStock, "adjustment would leave less stock than is reserved")
		}
		if err != nil {
			return fmt.Errorf("adjust stock: %w", err)
		}

		return s.inventoryRepo.Record(ctx, tx, []*model.InventoryTransaction{entry})
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "stock adjusted", "product_id", in.ProductID, "quantity", in.Quantity, "by", in.Actor.UserID)
	return entry, nil
}

func (s *inventoryServiceImpl) ListTransactions(ctx context.Context, productID uint, limit int) ([]*model.InventoryTransaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err := s.inventoryRepo.ListTransactions(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list inventory transactions: %w", err)
	}
	return entries, nil
}
