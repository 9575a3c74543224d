package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"binwahab-store/internal/client"
	"binwahab-store/internal/model"
	"binwahab-store/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fakes ---

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) record(kind, ref string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, kind+":"+ref)
}

func (n *fakeNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func (n *fakeNotifier) OrderPlaced(_ context.Context, o *model.Order)      { n.record("placed", o.OrderNumber) }
func (n *fakeNotifier) PaymentConfirmed(_ context.Context, o *model.Order) { n.record("paid", o.OrderNumber) }
func (n *fakeNotifier) PaymentFailed(_ context.Context, o *model.Order)    { n.record("failed", o.OrderNumber) }
func (n *fakeNotifier) ReturnApproved(_ context.Context, r *model.Return)  { n.record("approved", r.ReturnNumber) }
func (n *fakeNotifier) ReturnRejected(_ context.Context, r *model.Return)  { n.record("rejected", r.ReturnNumber) }

type fakePaypal struct {
	verifyErr   error
	createCalls int
	refunds     []string
}

func (f *fakePaypal) CreateOrder(_ context.Context, req *client.PaypalOrderRequest) (*client.CreateOrderResponse, error) {
	f.createCalls++
	id := fmt.Sprintf("PP-%s-%d", req.ReferenceID, f.createCalls)
	return &client.CreateOrderResponse{OrderID: id, ApproveURL: "https://paypal.test/approve?token=" + id}, nil
}

func (f *fakePaypal) CaptureOrder(_ context.Context, orderID string) (*client.CaptureOrderResponse, error) {
	return &client.CaptureOrderResponse{OrderID: orderID, Status: "COMPLETED", CaptureID: "CAP-" + orderID}, nil
}

func (f *fakePaypal) RefundCapture(_ context.Context, captureID string, amount decimal.Decimal, _ string) (string, error) {
	f.refunds = append(f.refunds, captureID+"="+amount.StringFixed(2))
	return "RF-" + captureID, nil
}

func (f *fakePaypal) VerifyWebhookSignature(context.Context, http.Header, []byte) error {
	return f.verifyErr
}

type fakeCurlec struct {
	refundErr error
	refunds   []string
}

func (f *fakeCurlec) CreateOrder(_ context.Context, receipt string, amount decimal.Decimal, currency string) (*client.CurlecOrderResponse, error) {
	return &client.CurlecOrderResponse{ID: "order_" + receipt, Amount: client.ToSen(amount), Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func (f *fakeCurlec) RefundPayment(_ context.Context, paymentID string, amount decimal.Decimal) (string, error) {
	if f.refundErr != nil {
		return "", f.refundErr
	}
	f.refunds = append(f.refunds, paymentID+"="+amount.StringFixed(2))
	return "rfnd_" + paymentID, nil
}

func (f *fakeCurlec) VerifyWebhookSignature(body []byte, signature string) error {
	if signature != client.SignHMACSHA256(testCurlecSecret, body) {
		return client.ErrInvalidWebhookSignature
	}
	return nil
}

func (f *fakeCurlec) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	if signature != client.SignHMACSHA256(testCurlecSecret, []byte(orderID+"|"+paymentID)) {
		return client.ErrInvalidWebhookSignature
	}
	return nil
}

func (f *fakeCurlec) KeyID() string { return "rzp_test_key" }

const testCurlecSecret = "curlec-test-secret"

type fakeBraintree struct {
	approve      bool
	chargeErr    error
	charges      int
	notification *client.BraintreeNotification
	refunds      []string
}

func (f *fakeBraintree) Charge(_ context.Context, nonce string, _ decimal.Decimal, orderNumber string) (*client.BraintreeCharge, error) {
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	f.charges++
	charge := &client.BraintreeCharge{TransactionID: "bt-" + orderNumber, OrderNumber: orderNumber, Approved: f.approve, PaymentMethod: "credit_card"}
	if !f.approve {
		charge.Status = "processor_declined"
		charge.Reason = "Do Not Honor"
	}
	return charge, nil
}

func (f *fakeBraintree) Refund(_ context.Context, transactionID string, amount decimal.Decimal) (string, error) {
	f.refunds = append(f.refunds, transactionID+"="+amount.StringFixed(2))
	return "bt-refund-" + transactionID, nil
}

func (f *fakeBraintree) ParseWebhook(_ context.Context, signature, _ string) (*client.BraintreeNotification, error) {
	if signature != "valid" || f.notification == nil {
		return nil, client.ErrInvalidWebhookSignature
	}
	return f.notification, nil
}

// --- fixture ---

type fixture struct {
	t  *testing.T
	db *gorm.DB

	notifier  *fakeNotifier
	paypal    *fakePaypal
	curlec    *fakeCurlec
	braintree *fakeBraintree

	productRepo   repository.ProductRepository
	orderRepo     repository.OrderRepository
	returnRepo    repository.ReturnRepository
	inventoryRepo repository.InventoryRepository

	carts     CartService
	addresses AddressService
	orders    OrderService
	reconcile ReconcileService
	payments  PaymentService
	returns   *returnServiceImpl
	inventory InventoryService
	dashboard DashboardService
}

var customer = model.Actor{UserID: "user-1", Email: "aminah@example.com", Role: model.RoleCustomer}
var admin = model.Actor{UserID: "admin-1", Email: "ops@binwahab.com", Role: model.RoleAdmin}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	log := discardLogger()

	f := &fixture{
		t:         t,
		db:        db,
		notifier:  &fakeNotifier{},
		paypal:    &fakePaypal{},
		curlec:    &fakeCurlec{},
		braintree: &fakeBraintree{approve: true},
	}

	f.productRepo = repository.NewProductRepository(db)
	f.orderRepo = repository.NewOrderRepository(db)
	f.returnRepo = repository.NewReturnRepository(db)
	f.inventoryRepo = repository.NewInventoryRepository(db)
	cartRepo := repository.NewCartRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	shippingRepo := repository.NewShippingRepository(db)
	userRepo := repository.NewUserRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	f.carts = NewCartService(cartRepo, f.productRepo)
	f.addresses = NewAddressService(addressRepo)
	f.orders = NewOrderService(db, log, decimal.RequireFromString("0.06"), "MYR",
		cartRepo, addressRepo, shippingRepo, f.orderRepo, f.inventoryRepo, userRepo, f.notifier)
	f.reconcile = NewReconcileService(db, log, f.orderRepo, f.inventoryRepo, webhookEventRepo, f.notifier)
	f.payments = NewPaymentService(log, f.paypal, f.curlec, f.braintree,
		"http://api.test", "http://shop.test", f.orderRepo, f.reconcile)
	f.returns = NewReturnService(db, log, 14, f.orderRepo, f.returnRepo, f.inventoryRepo,
		f.paypal, f.curlec, f.braintree, f.notifier).(*returnServiceImpl)
	f.inventory = NewInventoryService(db, log, f.productRepo, f.inventoryRepo)
	f.dashboard = NewDashboardService(log, f.orderRepo, f.returnRepo, f.productRepo)

	return f
}

func (f *fixture) ctx() context.Context {
	return context.Background()
}

func (f *fixture) product(sku, price string, stock int, tracked bool) *model.Product {
	f.t.Helper()
	p := &model.Product{SKU: sku, Name: sku, Price: dec(price), Stock: stock, TrackInventory: tracked, Active: true}
	require.NoError(f.t, f.db.Create(p).Error)
	return p
}

func (f *fixture) variant(productID uint, sku string, price *decimal.Decimal, stock int) *model.ProductVariant {
	f.t.Helper()
	v := &model.ProductVariant{ProductID: productID, SKU: sku, Name: sku, Price: price, Stock: stock}
	require.NoError(f.t, f.db.Create(v).Error)
	return v
}

// seedZones installs West Malaysia (RM8 below RM150, free above) and East Malaysia (RM15
// below RM200, free above).
func (f *fixture) seedZones() {
	f.t.Helper()
	zones := []model.ShippingZone{
		{Code: model.ZoneWestMalaysia, Name: "West Malaysia", Active: true, Rates: []model.ShippingRate{
			{Name: "Standard", Price: dec("8.00"), MinOrderValue: dec("0"), MaxOrderValue: decPtr("149.99"), Active: true},
			{Name: "Free shipping", Price: dec("0"), MinOrderValue: dec("150.00"), Active: true},
		}},
		{Code: model.ZoneEastMalaysia, Name: "East Malaysia", Active: true, Rates: []model.ShippingRate{
			{Name: "Standard", Price: dec("15.00"), MinOrderValue: dec("0"), MaxOrderValue: decPtr("199.99"), Active: true},
			{Name: "Free shipping", Price: dec("0"), MinOrderValue: dec("200.00"), Active: true},
		}},
	}
	require.NoError(f.t, f.db.Create(&zones).Error)
}

func (f *fixture) addToCart(actor model.Actor, productID uint, variantID *uint, qty int) {
	f.t.Helper()
	_, err := f.carts.AddItem(f.ctx(), actor.UserID, productID, variantID, qty)
	require.NoError(f.t, err)
}

func (f *fixture) address(state string) *AddressInput {
	return &AddressInput{
		RecipientName: "Aminah Binti Ali",
		Phone:         "+60123456789",
		Line1:         "12 Jalan Bukit Bintang",
		City:          "Kuala Lumpur",
		State:         state,
		Postcode:      "55100",
	}
}

func (f *fixture) placeOrder(actor model.Actor, state string) *model.Order {
	f.t.Helper()
	order, err := f.orders.CreateOrder(f.ctx(), CreateOrderInput{Actor: actor, Address: f.address(state), PaymentMethod: "PAYPAL"})
	require.NoError(f.t, err)
	return order
}

func (f *fixture) reload(orderID uint) *model.Order {
	f.t.Helper()
	order, err := f.orderRepo.FindByID(f.ctx(), nil, orderID)
	require.NoError(f.t, err)
	return order
}

func (f *fixture) stockOf(productID uint) (stock, reserved int) {
	f.t.Helper()
	var p model.Product
	require.NoError(f.t, f.db.First(&p, productID).Error)
	return p.Stock, p.ReservedStock
}

func (f *fixture) variantStockOf(variantID uint) (stock, reserved int) {
	f.t.Helper()
	var v model.ProductVariant
	require.NoError(f.t, f.db.First(&v, variantID).Error)
	return v.Stock, v.ReservedStock
}

func (f *fixture) ledgerTypes(productID uint) []model.InventoryTransactionType {
	f.t.Helper()
	var entries []model.InventoryTransaction
	require.NoError(f.t, f.db.Where("product_id = ?", productID).Order("id ASC").Find(&entries).Error)
	out := make([]model.InventoryTransactionType, len(entries))
	for i, e := range entries {
		out[i] = e.Type
	}
	return out
}

// startPaypal attaches a PayPal session to the order and returns the session id.
func (f *fixture) startPaypal(actor model.Actor, orderID uint) string {
	f.t.Helper()
	session, err := f.payments.StartPayment(f.ctx(), StartPaymentInput{Actor: actor, OrderID: orderID, Gateway: model.GatewayPaypal})
	require.NoError(f.t, err)
	return session.SessionID
}

func paypalSucceeded(eventID, sessionID string) model.PaymentSucceeded {
	return model.PaymentSucceeded{
		EventRef: model.EventRef{
			Gateway:       model.GatewayPaypal,
			EventID:       eventID,
			EventType:     model.PaypalEventCaptureCompleted,
			SessionID:     sessionID,
			TransactionID: "CAP-" + sessionID,
		},
		Method: "paypal",
	}
}
