package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

type User struct {
	ID        string `gorm:"primaryKey;size:64;not null"` // subject of the auth token
	Email     string `gorm:"size:255;index"`
	Name      string `gorm:"size:255"`
	Role      Role   `gorm:"size:16;not null;default:CUSTOMER"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Address struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        string `gorm:"size:64;index;not null"`
	RecipientName string `gorm:"size:255;not null"`
	Phone         string `gorm:"size:32;not null"`
	Line1         string `gorm:"size:255;not null"`
	Line2         string `gorm:"size:255"`
	City          string `gorm:"size:128;not null"`
	State         string `gorm:"size:128;not null"`
	Postcode      string `gorm:"size:16;not null"`
	Country       string `gorm:"size:2;not null;default:MY"`
	IsDefault     bool   `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ShippingAddress is the copy of an address taken when an order is placed. It is never
// updated afterwards.
type ShippingAddress struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        string `gorm:"size:64;index;not null"`
	RecipientName string `gorm:"size:255;not null"`
	Phone         string `gorm:"size:32;not null"`
	Line1         string `gorm:"size:255;not null"`
	Line2         string `gorm:"size:255"`
	City          string `gorm:"size:128;not null"`
	State         string `gorm:"size:128;not null"`
	Postcode      string `gorm:"size:16;not null"`
	Country       string `gorm:"size:2;not null"`
	CreatedAt     time.Time
}

type Product struct {
	ID             uint            `gorm:"primaryKey"`
	SKU            string          `gorm:"size:64;uniqueIndex;not null"`
	Name           string          `gorm:"size:255;not null"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock          int             `gorm:"not null;default:0"`
	ReservedStock  int             `gorm:"not null;default:0"`
	TrackInventory bool            `gorm:"not null"`
	Active         bool            `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

type ProductVariant struct {
	ID            uint             `gorm:"primaryKey"`
	ProductID     uint             `gorm:"index;not null"`
	SKU           string           `gorm:"size:64;uniqueIndex;not null"`
	Name          string           `gorm:"size:255;not null"`
	Price         *decimal.Decimal `gorm:"type:decimal(12,2)"` // nil: product price applies
	Stock         int              `gorm:"not null;default:0"`
	ReservedStock int              `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Cart struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []CartItem `gorm:"foreignKey:CartID"`
}

type CartItem struct {
	ID        uint  `gorm:"primaryKey"`
	CartID    uint  `gorm:"uniqueIndex:idx_cart_line;not null"`
	ProductID uint  `gorm:"uniqueIndex:idx_cart_line;not null"`
	VariantID *uint `gorm:"uniqueIndex:idx_cart_line"`
	Quantity  int   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Product *Product        `gorm:"foreignKey:ProductID"`
	Variant *ProductVariant `gorm:"foreignKey:VariantID"`
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type Gateway string

const (
	GatewayPaypal    Gateway = "PAYPAL"
	GatewayCurlec    Gateway = "CURLEC"
	GatewayBraintree Gateway = "BRAINTREE"
)

type Order struct {
	ID                   uint            `gorm:"primaryKey"`
	OrderNumber          string          `gorm:"size:32;uniqueIndex;not null"`
	UserID               string          `gorm:"size:64;index;not null"`
	Status               OrderStatus     `gorm:"size:16;index;not null"`
	PaymentStatus        PaymentStatus   `gorm:"size:16;index;not null"`
	PaymentMethod        string          `gorm:"size:32"`
	PaymentGateway       Gateway         `gorm:"size:16;uniqueIndex:idx_order_gateway_session"`
	GatewaySessionID     *string         `gorm:"size:128;uniqueIndex:idx_order_gateway_session"`
	PaymentTransactionID string          `gorm:"size:128;index"`
	Subtotal             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tax                  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Shipping             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total                decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency             string          `gorm:"size:8;not null"`
	ShippingAddressID    uint            `gorm:"not null"`
	PaidAt               *time.Time
	DeliveredAt          *time.Time
	CancelledAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Items           []OrderItem      `gorm:"foreignKey:OrderID"`
	ShippingAddress *ShippingAddress `gorm:"foreignKey:ShippingAddressID"`
}

// GatewaySession records every checkout opened at a gateway for an order. The order row only
// holds the latest one; events for earlier sessions are still matched through this table.
type GatewaySession struct {
	ID          uint    `gorm:"primaryKey"`
	OrderID     uint    `gorm:"index;not null"`
	Gateway     Gateway `gorm:"size:16;not null;uniqueIndex:idx_gateway_session"`
	SessionID   string  `gorm:"size:128;not null;uniqueIndex:idx_gateway_session"`
	ApprovalURL string  `gorm:"size:512"`
	AmountSen   int64
	CreatedAt   time.Time
}

// OrderItem rows are written once with the price captured at checkout.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"index;not null"`
	ProductID uint            `gorm:"index;not null"`
	VariantID *uint           `gorm:"index"`
	SKU       string          `gorm:"size:64;not null"`
	Name      string          `gorm:"size:255;not null"`
	Quantity  int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// StockReserved marks lines whose quantity is held in reserved_stock until payment.
	StockReserved bool `gorm:"not null"`
	CreatedAt     time.Time
}

type ZoneCode string

const (
	ZoneWestMalaysia ZoneCode = "WEST_MALAYSIA"
	ZoneEastMalaysia ZoneCode = "EAST_MALAYSIA"
)

type ShippingZone struct {
	ID        uint     `gorm:"primaryKey"`
	Code      ZoneCode `gorm:"size:32;uniqueIndex;not null"`
	Name      string   `gorm:"size:128;not null"`
	Active    bool     `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Rates []ShippingRate `gorm:"foreignKey:ZoneID"`
}

type ShippingRate struct {
	ID            uint             `gorm:"primaryKey"`
	ZoneID        uint             `gorm:"index;not null"`
	Name          string           `gorm:"size:128;not null"`
	Price         decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MinOrderValue decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MaxOrderValue *decimal.Decimal `gorm:"type:decimal(12,2)"` // nil: no upper bound
	Active        bool             `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "PENDING"
	ReturnStatusApproved ReturnStatus = "APPROVED"
	ReturnStatusRejected ReturnStatus = "REJECTED"
)

type Return struct {
	ID           uint         `gorm:"primaryKey"`
	ReturnNumber string       `gorm:"size:32;uniqueIndex;not null"`
	OrderID      uint         `gorm:"index;not null"`
	UserID       string       `gorm:"size:64;index;not null"`
	Status       ReturnStatus `gorm:"size:16;index;not null"`
	Reason       string       `gorm:"size:1024"`
	AdminNotes   string       `gorm:"size:1024"`
	ReviewedBy   string       `gorm:"size:64"`
	ReviewedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items  []ReturnItem `gorm:"foreignKey:ReturnID"`
	Refund *Refund      `gorm:"foreignKey:ReturnID"`
}

type ReturnItem struct {
	ID          uint   `gorm:"primaryKey"`
	ReturnID    uint   `gorm:"index;not null"`
	OrderItemID uint   `gorm:"index;not null"`
	Quantity    int    `gorm:"not null"`
	Reason      string `gorm:"size:1024;not null"`
	CreatedAt   time.Time

	OrderItem *OrderItem `gorm:"foreignKey:OrderItemID"`
}

type RefundMethod string

const (
	RefundMethodOriginalPayment RefundMethod = "ORIGINAL_PAYMENT"
	RefundMethodStoreCredit     RefundMethod = "STORE_CREDIT"
	RefundMethodBankTransfer    RefundMethod = "BANK_TRANSFER"
)

type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "PENDING"
	RefundStatusProcessing RefundStatus = "PROCESSING"
	RefundStatusCompleted  RefundStatus = "COMPLETED"
	RefundStatusFailed     RefundStatus = "FAILED"
	RefundStatusCancelled  RefundStatus = "CANCELLED"
)

type Refund struct {
	ID              uint            `gorm:"primaryKey"`
	ReturnID        uint            `gorm:"uniqueIndex;not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method          RefundMethod    `gorm:"size:32"`
	Status          RefundStatus    `gorm:"size:16;not null"`
	GatewayRefundID string          `gorm:"size:128"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type InventoryTransactionType string

const (
	InventoryPurchase   InventoryTransactionType = "PURCHASE"
	InventorySale       InventoryTransactionType = "SALE"
	InventoryReturn     InventoryTransactionType = "RETURN"
	InventoryAdjustment InventoryTransactionType = "ADJUSTMENT"
	InventoryReserved   InventoryTransactionType = "RESERVED"
	InventoryReleased   InventoryTransactionType = "RELEASED"
)

// InventoryTransaction is append-only. Quantity is signed: negative values leave stock.
type InventoryTransaction struct {
	ID        uint                     `gorm:"primaryKey"`
	ProductID uint                     `gorm:"index;not null"`
	VariantID *uint                    `gorm:"index"`
	OrderID   *uint                    `gorm:"index"`
	ReturnID  *uint                    `gorm:"index"`
	Type      InventoryTransactionType `gorm:"size:16;index;not null"`
	Quantity  int                      `gorm:"not null"`
	Reason    string                   `gorm:"size:255"`
	CreatedBy string                   `gorm:"size:64"`
	CreatedAt time.Time
}

type WebhookEvent struct {
	Gateway     Gateway `gorm:"primaryKey;size:16;not null"`
	EventID     string  `gorm:"primaryKey;size:128;not null"`
	EventType   string  `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

// AllModels lists every table managed by AutoMigrate.
func AllModels() []any {
	return []any{
		&User{},
		&Address{},
		&ShippingAddress{},
		&Product{},
		&ProductVariant{},
		&Cart{},
		&CartItem{},
		&Order{},
		&GatewaySession{},
		&OrderItem{},
		&ShippingZone{},
		&ShippingRate{},
		&Return{},
		&ReturnItem{},
		&Refund{},
		&InventoryTransaction{},
		&WebhookEvent{},
	}
}
