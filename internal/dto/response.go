package dto

import (
	"time"

	"binwahab-store/internal/model"
	"binwahab-store/internal/service"

	"github.com/shopspring/decimal"
)

// Money amounts are rendered as fixed two-decimal strings.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type CartItemResponse struct {
	ID          uint   `json:"id"`
	ProductID   uint   `json:"product_id"`
	VariantID   *uint  `json:"variant_id,omitempty"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
	InStock     bool   `json:"in_stock"`
	StockStatus string `json:"stock_status"`
}

type CartResponse struct {
	ID       uint                `json:"id"`
	Items    []*CartItemResponse `json:"items"`
	Subtotal string              `json:"subtotal"`
}

func cartItem(item *model.CartItem) *CartItemResponse {
	resp := &CartItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		VariantID: item.VariantID,
		Quantity:  item.Quantity,
		InStock:   true,
	}
	if item.Product == nil {
		return resp
	}

	unit := service.UnitPrice(item.Product, item.Variant)
	resp.SKU = item.Product.SKU
	resp.Name = item.Product.Name
	resp.UnitPrice = money(unit)
	resp.LineTotal = money(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))

	available := item.Product.Stock - item.Product.ReservedStock
	if item.Variant != nil {
		resp.SKU = item.Variant.SKU
		resp.Name = item.Product.Name + " - " + item.Variant.Name
		available = item.Variant.Stock - item.Variant.ReservedStock
	}
	if item.Product.TrackInventory {
		resp.InStock = available >= item.Quantity
	}
	resp.StockStatus = "in_stock"
	if !resp.InStock {
		resp.StockStatus = "insufficient"
	}
	return resp
}

func NewCartResponse(cart *model.Cart) *CartResponse {
	resp := &CartResponse{ID: cart.ID, Items: make([]*CartItemResponse, 0, len(cart.Items))}
	subtotal := decimal.Zero
	for i := range cart.Items {
		item := cartItem(&cart.Items[i])
		resp.Items = append(resp.Items, item)
		if item.LineTotal != "" {
			subtotal = subtotal.Add(decimal.RequireFromString(item.LineTotal))
		}
	}
	resp.Subtotal = money(subtotal)
	return resp
}

type QuoteResponse struct {
	Zone         model.ZoneCode      `json:"zone"`
	Items        []*CartItemResponse `json:"items"`
	Subtotal     string              `json:"subtotal"`
	Tax          string              `json:"tax"`
	Shipping     string              `json:"shipping"`
	ShippingRate string              `json:"shipping_rate,omitempty"`
	Total        string              `json:"total"`
}

func NewQuoteResponse(q *service.Quote) *QuoteResponse {
	resp := &QuoteResponse{
		Zone:         q.Zone,
		Items:        make([]*CartItemResponse, 0, len(q.Items)),
		Subtotal:     money(q.Subtotal),
		Tax:          money(q.Tax),
		Shipping:     money(q.Shipping),
		ShippingRate: q.ShippingRate,
		Total:        money(q.Total),
	}
	for _, item := range q.Items {
		resp.Items = append(resp.Items, cartItem(item))
	}
	return resp
}

type AddressResponse struct {
	ID            uint   `json:"id"`
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	Postcode      string `json:"postcode"`
	Country       string `json:"country"`
	IsDefault     bool   `json:"is_default,omitempty"`
}

func NewAddressResponse(a *model.Address) *AddressResponse {
	return &AddressResponse{
		ID:            a.ID,
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		Line1:         a.Line1,
		Line2:         a.Line2,
		City:          a.City,
		State:         a.State,
		Postcode:      a.Postcode,
		Country:       a.Country,
		IsDefault:     a.IsDefault,
	}
}

func NewAddressList(addresses []*model.Address) []*AddressResponse {
	out := make([]*AddressResponse, len(addresses))
	for i, a := range addresses {
		out[i] = NewAddressResponse(a)
	}
	return out
}

type OrderItemResponse struct {
	ID        uint   `json:"id"`
	ProductID uint   `json:"product_id"`
	VariantID *uint  `json:"variant_id,omitempty"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type OrderResponse struct {
	ID              uint                 `json:"id"`
	OrderNumber     string               `json:"order_number"`
	UserID          string               `json:"user_id"`
	Status          model.OrderStatus    `json:"status"`
	PaymentStatus   model.PaymentStatus  `json:"payment_status"`
	PaymentMethod   string               `json:"payment_method,omitempty"`
	PaymentGateway  model.Gateway        `json:"payment_gateway,omitempty"`
	Subtotal        string               `json:"subtotal"`
	Tax             string               `json:"tax"`
	Shipping        string               `json:"shipping"`
	Total           string               `json:"total"`
	Currency        string               `json:"currency"`
	Items           []*OrderItemResponse `json:"items,omitempty"`
	ShippingAddress *AddressResponse     `json:"shipping_address,omitempty"`
	PaidAt          *time.Time           `json:"paid_at,omitempty"`
	DeliveredAt     *time.Time           `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

func NewOrderResponse(o *model.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		PaymentMethod:  o.PaymentMethod,
		PaymentGateway: o.PaymentGateway,
		Subtotal:       money(o.Subtotal),
		Tax:            money(o.Tax),
		Shipping:       money(o.Shipping),
		Total:          money(o.Total),
		Currency:       o.Currency,
		PaidAt:         o.PaidAt,
		DeliveredAt:    o.DeliveredAt,
		CancelledAt:    o.CancelledAt,
		CreatedAt:      o.CreatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, &OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			SKU:       item.SKU,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     money(item.Price),
		})
	}
	if a := o.ShippingAddress; a != nil {
		resp.ShippingAddress = &AddressResponse{
			ID:            a.ID,
			RecipientName: a.RecipientName,
			Phone:         a.Phone,
			Line1:         a.Line1,
			Line2:         a.Line2,
			City:          a.City,
			State:         a.State,
			Postcode:      a.Postcode,
			Country:       a.Country,
		}
	}
	return resp
}

func NewOrderList(orders []*model.Order) []*OrderResponse {
	out := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = NewOrderResponse(o)
	}
	return out
}

type PaymentSessionResponse struct {
	Gateway     model.Gateway `json:"gateway"`
	OrderID     uint          `json:"order_id"`
	OrderNumber string        `json:"order_number"`
	SessionID   string        `json:"session_id"`
	Amount      string        `json:"amount"`
	Currency    string        `json:"currency"`

	ApprovalURL string `json:"approval_url,omitempty"`

	CurlecKeyID string `json:"key_id,omitempty"`
	AmountSen   int64  `json:"amount_sen,omitempty"`

	Outcome service.Outcome `json:"outcome,omitempty"`
}

func NewPaymentSessionResponse(s *service.PaymentSession) *PaymentSessionResponse {
	resp := &PaymentSessionResponse{
		Gateway:     s.Gateway,
		OrderID:     s.OrderID,
		OrderNumber: s.OrderNumber,
		SessionID:   s.SessionID,
		Amount:      money(s.Amount),
		Currency:    s.Currency,
		ApprovalURL: s.ApprovalURL,
		CurlecKeyID: s.CurlecKeyID,
		AmountSen:   s.AmountSen,
	}
	if s.Result != nil {
		resp.Outcome = s.Result.Outcome
	}
	return resp
}

type ReconcileResponse struct {
	Outcome     service.Outcome `json:"outcome"`
	Gateway     model.Gateway   `json:"gateway"`
	EventID     string          `json:"event_id,omitempty"`
	EventType   string          `json:"event_type,omitempty"`
	OrderID     uint            `json:"order_id,omitempty"`
	OrderNumber string          `json:"order_number,omitempty"`
}

func NewReconcileResponse(r *service.ReconcileResult) *ReconcileResponse {
	return &ReconcileResponse{
		Outcome:     r.Outcome,
		Gateway:     r.Gateway,
		EventID:     r.EventID,
		EventType:   r.EventType,
		OrderID:     r.OrderID,
		OrderNumber: r.OrderNumber,
	}
}

type ReturnItemResponse struct {
	ID          uint   `json:"id"`
	OrderItemID uint   `json:"order_item_id"`
	SKU         string `json:"sku,omitempty"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason,omitempty"`
}

type RefundResponse struct {
	Amount          string             `json:"amount"`
	Method          model.RefundMethod `json:"method,omitempty"`
	Status          model.RefundStatus `json:"status"`
	GatewayRefundID string             `json:"gateway_refund_id,omitempty"`
}

type ReturnResponse struct {
	ID           uint                  `json:"id"`
	ReturnNumber string                `json:"return_number"`
	OrderID      uint                  `json:"order_id"`
	Status       model.ReturnStatus    `json:"status"`
	Reason       string                `json:"reason"`
	AdminNotes   string                `json:"admin_notes,omitempty"`
	ReviewedAt   *time.Time            `json:"reviewed_at,omitempty"`
	Items        []*ReturnItemResponse `json:"items"`
	Refund       *RefundResponse       `json:"refund,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

func NewReturnResponse(r *model.Return) *ReturnResponse {
	resp := &ReturnResponse{
		ID:           r.ID,
		ReturnNumber: r.ReturnNumber,
		OrderID:      r.OrderID,
		Status:       r.Status,
		Reason:       r.Reason,
		AdminNotes:   r.AdminNotes,
		ReviewedAt:   r.ReviewedAt,
		Items:        make([]*ReturnItemResponse, 0, len(r.Items)),
		CreatedAt:    r.CreatedAt,
	}
	for _, item := range r.Items {
		ri := &ReturnItemResponse{ID: item.ID, OrderItemID: item.OrderItemID, Quantity: item.Quantity, Reason: item.Reason}
		if item.OrderItem != nil {
			ri.SKU = item.OrderItem.SKU
		}
		resp.Items = append(resp.Items, ri)
	}
	if r.Refund != nil {
		resp.Refund = &RefundResponse{
			Amount:          money(r.Refund.Amount),
			Method:          r.Refund.Method,
			Status:          r.Refund.Status,
			GatewayRefundID: r.Refund.GatewayRefundID,
		}
	}
	return resp
}

func NewReturnList(returns []*model.Return) []*ReturnResponse {
	out := make([]*ReturnResponse, len(returns))
	for i, r := range returns {
		out[i] = NewReturnResponse(r)
	}
	return out
}

type InventoryTransactionResponse struct {
	ID        uint                           `json:"id"`
	ProductID uint                           `json:"product_id"`
	VariantID *uint                          `json:"variant_id,omitempty"`
	OrderID   *uint                          `json:"order_id,omitempty"`
	ReturnID  *uint                          `json:"return_id,omitempty"`
	Type      model.InventoryTransactionType `json:"type"`
	Quantity  int                            `json:"quantity"`
	Reason    string                         `json:"reason,omitempty"`
	CreatedBy string                         `json:"created_by,omitempty"`
	CreatedAt time.Time                      `json:"created_at"`
}

func NewInventoryTransactionResponse(t *model.InventoryTransaction) *InventoryTransactionResponse {
	return &InventoryTransactionResponse{
		ID:        t.ID,
		ProductID: t.ProductID,
		VariantID: t.VariantID,
		OrderID:   t.OrderID,
		ReturnID:  t.ReturnID,
		Type:      t.Type,
		Quantity:  t.Quantity,
		Reason:    t.Reason,
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
	}
}

func NewInventoryTransactionList(entries []*model.InventoryTransaction) []*InventoryTransactionResponse {
	out := make([]*InventoryTransactionResponse, len(entries))
	for i, e := range entries {
		out[i] = NewInventoryTransactionResponse(e)
	}
	return out
}

type DashboardResponse struct {
	OrdersByStatus   map[model.OrderStatus]int64 `json:"orders_by_status"`
	Revenue30Days    string                      `json:"revenue_30_days"`
	PendingReturns   int64                       `json:"pending_returns"`
	LowStockProducts int64                       `json:"low_stock_products"`
	GeneratedAt      time.Time                   `json:"generated_at"`
	Error            string                      `json:"error,omitempty"`
}

func NewDashboardResponse(s *service.DashboardSummary) *DashboardResponse {
	return &DashboardResponse{
		OrdersByStatus:   s.OrdersByStatus,
		Revenue30Days:    money(s.Revenue30Days),
		PendingReturns:   s.PendingReturns,
		LowStockProducts: s.LowStockProducts,
		GeneratedAt:      s.GeneratedAt,
		Error:            s.Error,
	}
}

type UserResponse struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name,omitempty"`
	Role  model.Role `json:"role"`
}

func NewUserResponse(u *model.User) *UserResponse {
	return &UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}
