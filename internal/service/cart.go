package service

import (
	"context"
	"errors"
	"fmt"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"

	"gorm.io/gorm"
)

type CartService interface {
	Get(ctx context.Context, userID string) (*model.Cart, error)
	AddItem(ctx context.Context, userID string, productID uint, variantID *uint, quantity int) (*model.Cart, error)
	UpdateItem(ctx context.Context, userID string, itemID uint, quantity int) (*model.Cart, error)
	RemoveItem(ctx context.Context, userID string, itemID uint) (*model.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type cartServiceImpl struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
) CartService {
	return &cartServiceImpl{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartServiceImpl) Get(ctx context.Context, userID string) (*model.Cart, error) {
	cart, err := s.cartRepo.GetWithItems(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *cartServiceImpl) AddItem(ctx context.Context, userID string, productID uint, variantID *uint, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1",
			apperror.FieldError{Field: "quantity", Reason: "min 1"})
	}

	product, err := s.productRepo.FindByID(ctx, nil, productID)
	if err != nil {
		return nil, lookupErr(err, "product")
	}
	if !product.Active {
		return nil, apperror.New(apperror.CodeValidation, "product is not available")
	}
	if variantID != nil {
		if _, err := s.productRepo.FindVariant(ctx, nil, productID, *variantID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.Validation("variant does not belong to product",
					apperror.FieldError{Field: "variant_id", Reason: "unknown for this product"})
			}
			return nil, fmt.Errorf("get variant: %w", err)
		}
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	line, err := s.cartRepo.FindLine(ctx, cart.ID, productID, variantID)
	switch {
	case err == nil:
		if err := s.cartRepo.UpdateItemQuantity(ctx, cart.ID, line.ID, line.Quantity+quantity); err != nil {
			return nil, fmt.Errorf("update cart item: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = s.cartRepo.AddItem(ctx, &model.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
		})
		if err != nil {
			return nil, fmt.Errorf("add cart item: %w", err)
		}
	default:
		return nil, fmt.Errorf("find cart line: %w", err)
	}

	return s.Get(ctx, userID)
}

func (s *cartServiceImpl) UpdateItem(ctx context.Context, userID string, itemID uint, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1",
			apperror.FieldError{Field: "quantity", Reason: "min 1"})
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	if err := s.cartRepo.UpdateItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
		return nil, lookupErr(err, "cart item")
	}

	return s.Get(ctx, userID)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID string, itemID uint) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	if err := s.cartRepo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		return nil, lookupErr(err, "cart item")
	}

	return s.Get(ctx, userID)
}

func (s *cartServiceImpl) Clear(ctx context.Context, userID string) error {
	cart, err := s.cartRepo.GetWithItems(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if cart.ID == 0 {
		return nil
	}
	return s.cartRepo.Clear(ctx, nil, cart.ID)
}
