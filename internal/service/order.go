package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"binwahab-store/internal/apperror"
	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateOrderInput struct {
	Actor model.Actor
	// Exactly one of AddressID and Address is used; AddressID wins when both are set.
	AddressID     *uint
	Address       *AddressInput
	PaymentMethod string
}

type Quote struct {
	Zone  model.ZoneCode
	Items []*model.CartItem
	Totals
}

type OrderService interface {
	Quote(ctx context.Context, userID string, addressID *uint, state string) (*Quote, error)
	CreateOrder(ctx context.Context, in CreateOrderInput) (*model.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*model.Order, error)
	GetOrder(ctx context.Context, actor model.Actor, orderID uint) (*model.Order, error)
	CancelOrder(ctx context.Context, actor model.Actor, orderID uint) (*model.Order, error)
	// UpdateStatus applies an admin fulfilment move: PROCESSING -> SHIPPED -> DELIVERED, or CANCELLED.
	UpdateStatus(ctx context.Context, actor model.Actor, orderID uint, status model.OrderStatus) (*model.Order, error)
}

type orderServiceImpl struct {
	db            *gorm.DB
	log           *slog.Logger
	taxRate       decimal.Decimal
	currency      string
	cartRepo      repository.CartRepository
	addressRepo   repository.AddressRepository
	shippingRepo  repository.ShippingRepository
	orderRepo     repository.OrderRepository
	inventoryRepo repository.InventoryRepository
	userRepo      repository.UserRepository
	notifier      Notifier
}

func NewOrderService(
	db *gorm.DB,
	log *slog.Logger,
	taxRate decimal.Decimal,
	currency string,
	cartRepo repository.CartRepository,
	addressRepo repository.AddressRepository,
	shippingRepo repository.ShippingRepository,
	orderRepo repository.OrderRepository,
	inventoryRepo repository.InventoryRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
) OrderService {
	return &orderServiceImpl{
		db:            db,
		log:           log,
		taxRate:       taxRate,
		currency:      currency,
		cartRepo:      cartRepo,
		addressRepo:   addressRepo,
		shippingRepo:  shippingRepo,
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		userRepo:      userRepo,
		notifier:      notifier,
	}
}

// findZone returns nil when the zone is not configured; pricing then charges no shipping.
func (s *orderServiceImpl) findZone(ctx context.Context, tx *gorm.DB, state string) (*model.ShippingZone, error) {
	zone, err := s.shippingRepo.FindZone(ctx, tx, ResolveZone(state))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shipping zone: %w", err)
	}
	return zone, nil
}

// priceLines prices every cart line at the current server-side price.
func priceLines(cart *model.Cart) ([]PriceLine, error) {
	lines := make([]PriceLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		if item.Product == nil || !item.Product.Active {
			return nil, apperror.New(apperror.CodeValidation, "a product in the cart is no longer available")
		}
		if item.VariantID != nil && item.Variant == nil {
			return nil, apperror.New(apperror.CodeValidation, "a product variant in the cart is no longer available")
		}
		lines = append(lines, PriceLine{UnitPrice: UnitPrice(item.Product, item.Variant), Quantity: item.Quantity})
	}
	return lines, nil
}

func (s *orderServiceImpl) Quote(ctx context.Context, userID string, addressID *uint, state string) (*Quote, error) {
	if addressID != nil {
		address, err := s.addressRepo.FindForUser(ctx, nil, *addressID, userID)
		if err != nil {
			return nil, lookupErr(err, "address")
		}
		state = address.State
	}

	cart, err := s.cartRepo.GetWithItems(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	lines, err := priceLines(cart)
	if err != nil {
		return nil, err
	}

	zone, err := s.findZone(ctx, nil, state)
	if err != nil {
		return nil, err
	}

	items := make([]*model.CartItem, len(cart.Items))
	for i := range cart.Items {
		items[i] = &cart.Items[i]
	}

	return &Quote{
		Zone:   ResolveZone(state),
		Items:  items,
		Totals: Calculate(lines, zone, s.taxRate),
	}, nil
}

func (s *orderServiceImpl) resolveAddress(ctx context.Context, tx *gorm.DB, in CreateOrderInput) (*model.ShippingAddress, error) {
	var address *model.Address
	switch {
	case in.AddressID != nil:
		found, err := s.addressRepo.FindForUser(ctx, tx, *in.AddressID, in.Actor.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Validation("address not found",
				apperror.FieldError{Field: "address_id", Reason: "unknown address"})
		}
		if err != nil {
			return nil, fmt.Errorf("get address: %w", err)
		}
		address = found
	case in.Address != nil:
		address = in.Address.toModel(in.Actor.UserID)
		if err := s.addressRepo.Create(ctx, tx, address); err != nil {
			return nil, fmt.Errorf("create address: %w", err)
		}
	default:
		return nil, apperror.Validation("a shipping address is required",
			apperror.FieldError{Field: "address_id", Reason: "required when address is absent"})
	}

	snapshot := snapshotOf(address)
	if err := s.addressRepo.CreateSnapshot(ctx, tx, snapshot); err != nil {
		return nil, fmt.Errorf("store shipping address: %w", err)
	}
	return snapshot, nil
}

func (s *orderServiceImpl) CreateOrder(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	err := s.userRepo.Upsert(ctx, &model.User{ID: in.Actor.UserID, Email: in.Actor.Email, Role: roleOrCustomer(in.Actor.Role)})
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	var order *model.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := s.cartRepo.GetWithItems(ctx, tx, in.Actor.UserID)
		if err != nil {
			return fmt.Errorf("get cart: %w", err)
		}
		if len(cart.Items) == 0 {
			return apperror.New(apperror.CodeEmptyCart, "cart is empty")
		}

		snapshot, err := s.resolveAddress(ctx, tx, in)
		if err != nil {
			return err
		}

		lines, err := priceLines(cart)
		if err != nil {
			return err
		}

		zone, err := s.findZone(ctx, tx, snapshot.State)
		if err != nil {
			return err
		}
		totals := Calculate(lines, zone, s.taxRate)

		items := make([]model.OrderItem, len(cart.Items))
		for i, cartItem := range cart.Items {
			sku, name := cartItem.Product.SKU, cartItem.Product.Name
			if cartItem.Variant != nil {
				sku = cartItem.Variant.SKU
				name = cartItem.Product.Name + " - " + cartItem.Variant.Name
			}

			tracked := cartItem.Product.TrackInventory
			if tracked {
				err := s.inventoryRepo.Reserve(ctx, tx, repository.StockLine{
					ProductID: cartItem.ProductID,
					VariantID: cartItem.VariantID,
					Quantity:  cartItem.Quantity,
				})
				if errors.Is(err, repository.ErrGuardRejected) {
					return apperror.Newf(apperror.CodeInsufficientStock, "insufficient stock for %s", sku)
				}
				if err != nil {
					return fmt.Errorf("reserve stock: %w", err)
				}
			}

			items[i] = model.OrderItem{
				ProductID:     cartItem.ProductID,
				VariantID:     cartItem.VariantID,
				SKU:           sku,
				Name:          name,
				Quantity:      cartItem.Quantity,
				Price:         lines[i].UnitPrice,
				StockReserved: tracked,
			}
		}

		order = &model.Order{
			OrderNumber:       newReference("BW"),
			UserID:            in.Actor.UserID,
			Status:            model.OrderStatusPending,
			PaymentStatus:     model.PaymentStatusPending,
			PaymentMethod:     in.PaymentMethod,
			Subtotal:          totals.Subtotal,
			Tax:               totals.Tax,
			Shipping:          totals.Shipping,
			Total:             totals.Total,
			Currency:          s.currency,
			ShippingAddressID: snapshot.ID,
			Items:             items,
		}
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}

		if err := s.inventoryRepo.Record(ctx, tx, ledger(order, model.InventoryReserved, -1, in.Actor.UserID, "order placed")); err != nil {
			return fmt.Errorf("record reservations: %w", err)
		}

		if err := s.cartRepo.Clear(ctx, tx, cart.ID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		order.ShippingAddress = snapshot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "order placed", "order_id", order.ID, "order_number", order.OrderNumber, "total", order.Total.StringFixed(2))
	s.notifier.OrderPlaced(ctx, order)
	return order, nil
}

func roleOrCustomer(role model.Role) model.Role {
	if role == "" {
		return model.RoleCustomer
	}
	return role
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*model.Order, error) {
	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, actor model.Actor, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	if !actor.CanAccess(order.UserID) {
		return nil, apperror.New(apperror.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *orderServiceImpl) CancelOrder(ctx context.Context, actor model.Actor, orderID uint) (*model.Order, error) {
	if _, err := s.GetOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}

	from := []model.OrderStatus{model.OrderStatusPending}
	if actor.IsAdmin() {
		from = append(from, model.OrderStatusProcessing, model.OrderStatusShipped)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.orderRepo.TransitionStatus(ctx, tx, orderID, from, model.OrderStatusCancelled, map[string]interface{}{
			"cancelled_at": time.Now(),
		})
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		if !ok {
			return apperror.New(apperror.CodeConflict, "order can no longer be cancelled")
		}

		// read after the update so the payment status is current
		order, err := s.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("get order: %w", err)
		}

		switch order.PaymentStatus {
		case model.PaymentStatusPending:
			return releaseReservations(ctx, tx, s.inventoryRepo, order, actor.UserID, "order cancelled")
		case model.PaymentStatusPaid:
			return restockOrder(ctx, tx, s.inventoryRepo, order, actor.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "order cancelled", "order_id", orderID, "by", actor.UserID)
	return s.orderRepo.FindByID(ctx, nil, orderID)
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, actor model.Actor, orderID uint, status model.OrderStatus) (*model.Order, error) {
	var (
		from   model.OrderStatus
		fields map[string]interface{}
	)
	switch status {
	case model.OrderStatusCancelled:
		return s.CancelOrder(ctx, actor, orderID)
	case model.OrderStatusShipped:
		from = model.OrderStatusProcessing
	case model.OrderStatusDelivered:
		from = model.OrderStatusShipped
		fields = map[string]interface{}{"delivered_at": time.Now()}
	default:
		return nil, apperror.Validation("unsupported status change",
			apperror.FieldError{Field: "status", Reason: "must be SHIPPED, DELIVERED or CANCELLED"})
	}

	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		return nil, lookupErr(err, "order")
	}

	ok, err := s.orderRepo.TransitionStatus(ctx, nil, orderID, []model.OrderStatus{from}, status, fields)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !ok {
		return nil, apperror.Newf(apperror.CodeConflict, "order is %s, expected %s", order.Status, from)
	}

	s.log.InfoContext(ctx, "order status updated", "order_id", orderID, "status", status, "by", actor.UserID)
	return s.orderRepo.FindByID(ctx, nil, orderID)
}
