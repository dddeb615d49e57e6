package order_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/domain/order/ordertest"
	"github.com/your-org/storefront-api/internal/domain/pricing"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/promo"
	"github.com/your-org/storefront-api/internal/domain/shipping"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/logger"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store   *ordertest.Store
	svc     *order.Service
	clock   *clock
	user    user.User
	address user.Address
	mug     product.Product
	tee     product.Product
	retired product.Product
}

func checkoutConfig(strict bool) config.CheckoutConfig {
	return config.CheckoutConfig{
		Currency:          "USD",
		DefaultTaxRate:    decimal.Zero,
		TaxRates:          map[string]decimal.Decimal{"US": decimal.NewFromInt(10)},
		StrictTransitions: strict,
		PaymentMethods:    []string{"card", "cod"},
	}
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()
	f := &fixture{
		store: ordertest.New(),
		clock: &clock{now: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)},
	}

	f.user = f.store.AddUser(user.User{Email: "ada@example.com", FirstName: "Ada", IsActive: true})
	f.address = f.store.AddAddress(user.Address{
		UserID: f.user.ID, Type: "shipping", FirstName: "Ada", LastName: "Lovelace",
		AddressLine1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
	})
	f.store.AddShippingMethod(shipping.Method{Code: "standard", Name: "Standard Shipping", Cost: decimal.RequireFromString("9.99"), Carrier: "USPS", IsActive: true})
	f.store.AddShippingMethod(shipping.Method{Code: "freight", Name: "Freight", Cost: decimal.NewFromInt(80), IsActive: false})

	f.mug = f.store.AddProduct(product.Product{SKU: "MUG", Name: "Mug", Price: decimal.NewFromInt(20), StockQuantity: 10, IsActive: true})
	f.tee = f.store.AddProduct(product.Product{SKU: "TEE", Name: "Tee", Price: decimal.NewFromInt(30),
		SalePrice: decimal.NewNullDecimal(decimal.NewFromInt(25)), StockQuantity: 1, IsActive: true})
	f.retired = f.store.AddProduct(product.Product{SKU: "OLD", Name: "Retired", Price: decimal.NewFromInt(5), StockQuantity: 3, IsActive: false})

	limit := 1
	expired := f.clock.Now().Add(-time.Hour)
	f.store.AddPromo(promo.PromoCode{Code: "SAVE10", DiscountType: pricing.DiscountPercentage, DiscountValue: decimal.NewFromInt(10), IsActive: true})
	f.store.AddPromo(promo.PromoCode{Code: "ONCE", DiscountType: pricing.DiscountFixed, DiscountValue: decimal.NewFromInt(5), IsActive: true, UsageLimit: &limit, UsageCount: 1})
	f.store.AddPromo(promo.PromoCode{Code: "OLDNEWS", DiscountType: pricing.DiscountFixed, DiscountValue: decimal.NewFromInt(5), IsActive: true, ExpiresAt: &expired})

	f.svc = order.NewService(f.store, checkoutConfig(strict), logger.Discard(), f.clock.Now)
	return f
}

func (f *fixture) identity() order.Identity {
	id := f.user.ID
	return order.Identity{UserID: &id}
}

func (f *fixture) request(lines ...order.OrderLine) *order.CreateOrderRequest {
	addressID := f.address.ID
	return &order.CreateOrderRequest{
		Lines:             lines,
		ShippingAddressID: &addressID,
		ShippingMethod:    "standard",
		PaymentMethod:     "card",
	}
}

func (f *fixture) placeOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := f.svc.CreateOrder(context.Background(), f.identity(), f.request(order.OrderLine{ProductID: f.mug.ID, Quantity: 1}))
	require.NoError(t, err)
	return o
}

func TestCreateOrder_PersistsSnapshotStockPromoAndHistory(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	req := f.request(order.OrderLine{ProductID: f.mug.ID, Quantity: 2})
	req.PromoCode = "save10"
	o, err := f.svc.CreateOrder(ctx, f.identity(), req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(o.OrderNumber, "ORD-20261019-"))
	assert.Equal(t, order.OrderStatusPending, o.Status)
	assert.Equal(t, order.PaymentStatusPending, o.PaymentStatus)
	assert.Equal(t, "ada@example.com", o.Email)
	assert.Equal(t, "40.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "4.00", o.DiscountAmount.StringFixed(2))
	assert.Equal(t, "3.60", o.TaxAmount.StringFixed(2))
	assert.Equal(t, "9.99", o.ShippingCost.StringFixed(2))
	assert.Equal(t, "49.59", o.TotalAmount.StringFixed(2))
	assert.Equal(t, "SAVE10", o.PromoCode)
	assert.Equal(t, "USPS", o.ShippingCarrier)
	assert.Equal(t, "Springfield", o.ShippingAddress.City)
	assert.Equal(t, o.ShippingAddress, o.BillingAddress)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "MUG", o.Items[0].SKU)
	assert.Equal(t, "40.00", o.Items[0].LineTotal.StringFixed(2))

	assert.Equal(t, 8, f.store.Product(f.mug.ID).StockQuantity)
	assert.Equal(t, 1, f.store.Promo("SAVE10").UsageCount)

	adjustments := f.store.Adjustments()
	require.Len(t, adjustments, 1)
	assert.Equal(t, product.AdjustmentSale, adjustments[0].Type)
	assert.Equal(t, -2, adjustments[0].QuantityChange)
	assert.Equal(t, 10, adjustments[0].OldQuantity)
	assert.Equal(t, 8, adjustments[0].NewQuantity)
	require.NotNil(t, adjustments[0].OrderID)
	assert.Equal(t, o.ID, *adjustments[0].OrderID)

	history, err := f.svc.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, order.OrderStatus(""), history[0].OldStatus)
	assert.Equal(t, order.OrderStatusPending, history[0].NewStatus)
	assert.Equal(t, "Order created", history[0].Notes)
}

func TestCreateOrder_GuestWithInlineAddress(t *testing.T) {
	f := newFixture(t, false)

	o, err := f.svc.CreateOrder(context.Background(), order.Identity{SessionID: "sess-9"}, &order.CreateOrderRequest{
		Lines: []order.OrderLine{{ProductID: f.tee.ID, Quantity: 1}},
		ShippingAddress: &user.CreateAddressRequest{
			FirstName: "Grace", LastName: "Hopper", AddressLine1: "2 Side St",
			City: "Arlington", PostalCode: "22201", Country: "ca",
		},
		Email:          "grace@example.com",
		ShippingMethod: "STANDARD",
		PaymentMethod:  "COD",
	})
	require.NoError(t, err)

	assert.Nil(t, o.UserID)
	assert.Equal(t, "sess-9", o.SessionID)
	assert.Equal(t, "grace@example.com", o.Email)
	assert.Equal(t, "CA", o.ShippingAddress.Country)
	assert.Equal(t, "cod", o.PaymentMethod)
	// sale price, default tax rate of zero outside the US
	assert.Equal(t, "25.00", o.Subtotal.StringFixed(2))
	assert.True(t, o.TaxAmount.IsZero())
	assert.Equal(t, "34.99", o.TotalAmount.StringFixed(2))
	assert.Equal(t, 0, f.store.Product(f.tee.ID).StockQuantity)
}

func TestCreateOrder_Rejections(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	missingAddress := uint(999)
	wrongTotal := decimal.NewFromInt(1)

	tests := []struct {
		name    string
		ident   order.Identity
		mutate  func(r *order.CreateOrderRequest)
		wantErr error
	}{
		{"no lines", f.identity(), func(r *order.CreateOrderRequest) { r.Lines = nil }, apperror.ErrCartEmpty},
		{"zero quantity", f.identity(), func(r *order.CreateOrderRequest) { r.Lines[0].Quantity = 0 }, apperror.ErrInvalidQuantity},
		{"unsupported payment", f.identity(), func(r *order.CreateOrderRequest) { r.PaymentMethod = "barter" }, apperror.ErrValidation},
		{"missing shipping method", f.identity(), func(r *order.CreateOrderRequest) { r.ShippingMethod = "" }, apperror.ErrValidation},
		{"unknown address", f.identity(), func(r *order.CreateOrderRequest) { r.ShippingAddressID = &missingAddress }, apperror.ErrAddressNotFound},
		{"inactive shipping", f.identity(), func(r *order.CreateOrderRequest) { r.ShippingMethod = "freight" }, apperror.ErrShippingMethodInactive},
		{"unknown shipping", f.identity(), func(r *order.CreateOrderRequest) { r.ShippingMethod = "teleport" }, apperror.ErrShippingMethodInactive},
		{"inactive product", f.identity(), func(r *order.CreateOrderRequest) { r.Lines[0].ProductID = f.retired.ID }, apperror.ErrProductUnavailable},
		{"not enough stock", f.identity(), func(r *order.CreateOrderRequest) { r.Lines[0].Quantity = 11 }, apperror.ErrInsufficientStock},
		{"unknown promo", f.identity(), func(r *order.CreateOrderRequest) { r.PromoCode = "NOPE" }, apperror.ErrPromoIneligible},
		{"exhausted promo", f.identity(), func(r *order.CreateOrderRequest) { r.PromoCode = "ONCE" }, apperror.ErrPromoIneligible},
		{"expired promo", f.identity(), func(r *order.CreateOrderRequest) { r.PromoCode = "OLDNEWS" }, apperror.ErrPromoExpired},
		{"total moved", f.identity(), func(r *order.CreateOrderRequest) { r.ExpectedTotal = &wrongTotal }, apperror.ErrConflict},
		{"no identity", order.Identity{}, func(r *order.CreateOrderRequest) {}, apperror.ErrValidation},
		{"guest without email", order.Identity{SessionID: "s"}, func(r *order.CreateOrderRequest) {
			r.ShippingAddressID = nil
			r.ShippingAddress = &user.CreateAddressRequest{FirstName: "A", LastName: "B", AddressLine1: "x", City: "y", PostalCode: "1", Country: "US"}
		}, apperror.ErrValidation},
		{"guest with saved address", order.Identity{SessionID: "s"}, func(r *order.CreateOrderRequest) { r.Email = "g@example.com" }, apperror.ErrAddressNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request(order.OrderLine{ProductID: f.mug.ID, Quantity: 1})
			tt.mutate(req)

			_, err := f.svc.CreateOrder(ctx, tt.ident, req)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	assert.Equal(t, 0, f.store.OrderCount())
	assert.Equal(t, 10, f.store.Product(f.mug.ID).StockQuantity)
	assert.Equal(t, 1, f.store.Promo("ONCE").UsageCount)
	assert.Empty(t, f.store.Adjustments())
}

func TestCreateOrder_ExpectedTotalMatches(t *testing.T) {
	f := newFixture(t, false)
	req := f.request(order.OrderLine{ProductID: f.mug.ID, Quantity: 1})
	// 20 + 9.99 shipping + 2.00 tax
	expected := decimal.RequireFromString("31.99")
	req.ExpectedTotal = &expected

	o, err := f.svc.CreateOrder(context.Background(), f.identity(), req)
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(expected))
}

func TestCreateOrder_ConcurrentCheckoutsForLastUnit(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateOrder(ctx, f.identity(), f.request(order.OrderLine{ProductID: f.tee.ID, Quantity: 1}))
		}(i)
	}
	wg.Wait()

	var succeeded, outOfStock int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperror.ErrInsufficientStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, outOfStock)
	assert.Equal(t, 0, f.store.Product(f.tee.ID).StockQuantity)
	assert.Equal(t, 1, f.store.OrderCount())
}

type failingHistoryStore struct {
	*ordertest.Store
}

func (s failingHistoryStore) Do(ctx context.Context, fn func(tx order.Tx) error) error {
	return s.Store.Do(ctx, func(tx order.Tx) error {
		return fn(failingHistoryTx{tx})
	})
}

type failingHistoryTx struct {
	order.Tx
}

func (failingHistoryTx) AppendHistory(*order.OrderStatusHistory) error {
	return errors.New("disk full")
}

func TestCreateOrder_RollsBackEverythingOnLateFailure(t *testing.T) {
	f := newFixture(t, false)
	svc := order.NewService(failingHistoryStore{f.store}, checkoutConfig(false), logger.Discard(), f.clock.Now)

	req := f.request(order.OrderLine{ProductID: f.mug.ID, Quantity: 3})
	req.PromoCode = "SAVE10"
	_, err := svc.CreateOrder(context.Background(), f.identity(), req)
	require.EqualError(t, err, "disk full")

	assert.Equal(t, 0, f.store.OrderCount())
	assert.Equal(t, 10, f.store.Product(f.mug.ID).StockQuantity)
	assert.Equal(t, 0, f.store.Promo("SAVE10").UsageCount)
	assert.Empty(t, f.store.Adjustments())
}

func TestUpdateStatus_AppendsOneHistoryRowPerCall(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	o := f.placeOrder(t)

	_, err := f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "processing", AdminID: 1})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	shippedAt := f.clock.Now()
	tracking := "1Z999"
	updated, err := f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "shipped", AdminID: 1, TrackingNumber: &tracking})
	require.NoError(t, err)
	assert.Equal(t, "1Z999", updated.TrackingNumber)

	history, err := f.svc.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	last := history[2]
	assert.Equal(t, order.OrderStatusProcessing, last.OldStatus)
	assert.Equal(t, order.OrderStatusShipped, last.NewStatus)
	require.NotNil(t, last.ChangedBy)
	assert.Equal(t, uint(1), *last.ChangedBy)

	// repeating a transition is recorded again, timestamps keep the first write
	f.clock.Advance(time.Hour)
	updated, err = f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "shipped", AdminID: 1})
	require.NoError(t, err)
	history, err = f.svc.History(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, history, 4)
	require.NotNil(t, updated.ShippedAt)
	assert.True(t, updated.ShippedAt.Equal(shippedAt))
	assert.NotNil(t, updated.ProcessedAt)
}

func TestUpdateStatus_PaymentStatusAndRejections(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	o := f.placeOrder(t)

	paid := "paid"
	updated, err := f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "processing", PaymentStatus: &paid, AdminID: 1})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusPaid, updated.PaymentStatus)

	history, err := f.svc.History(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusPending, history[1].OldPaymentStatus)
	assert.Equal(t, order.PaymentStatusPaid, history[1].NewPaymentStatus)

	_, err = f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "teleported", AdminID: 1})
	assert.True(t, errors.Is(err, apperror.ErrInvalidStatusValue))

	bogus := "maybe"
	_, err = f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "shipped", PaymentStatus: &bogus, AdminID: 1})
	assert.True(t, errors.Is(err, apperror.ErrInvalidStatusValue))

	_, err = f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: 4242, Status: "shipped", AdminID: 1})
	assert.True(t, errors.Is(err, apperror.ErrOrderNotFound))

	// permissive by default
	_, err = f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "pending", AdminID: 1})
	assert.NoError(t, err)
}

func TestUpdateStatus_StrictTransitions(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	o := f.placeOrder(t)

	_, err := f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "delivered", AdminID: 1})
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))

	history, err := f.svc.History(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "cancelled", AdminID: 1})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "processing", AdminID: 1})
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))
}

func TestCancel_RestocksAndRecords(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, f.identity(), f.request(
		order.OrderLine{ProductID: f.mug.ID, Quantity: 2},
		order.OrderLine{ProductID: f.mug.ID, Quantity: 1},
	))
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 7, f.store.Product(f.mug.ID).StockQuantity)

	otherID := f.user.ID + 100
	_, err = f.svc.Cancel(ctx, o.ID, order.Identity{UserID: &otherID}, "")
	assert.True(t, errors.Is(err, apperror.ErrOrderNotFound))

	cancelled, err := f.svc.Cancel(ctx, o.ID, f.identity(), "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 10, f.store.Product(f.mug.ID).StockQuantity)

	adjustments := f.store.Adjustments()
	require.Len(t, adjustments, 2)
	assert.Equal(t, product.AdjustmentCancellation, adjustments[1].Type)
	assert.Equal(t, 3, adjustments[1].QuantityChange)

	history, err := f.svc.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Order cancelled: changed my mind", history[1].Notes)

	_, err = f.svc.Cancel(ctx, o.ID, order.Identity{IsAdmin: true}, "")
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))
}

func TestUpdateStatus_CancellingRestocksLikeCancel(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	o := f.placeOrder(t)
	require.Equal(t, 9, f.store.Product(f.mug.ID).StockQuantity)

	updated, err := f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "cancelled", AdminID: 1})
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusCancelled, updated.Status)
	assert.Equal(t, 10, f.store.Product(f.mug.ID).StockQuantity)

	adjustments := f.store.Adjustments()
	require.Len(t, adjustments, 2)
	assert.Equal(t, product.AdjustmentCancellation, adjustments[1].Type)
	assert.Equal(t, 1, adjustments[1].QuantityChange)

	// repeating the status does not restock twice
	_, err = f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "cancelled", AdminID: 1})
	require.NoError(t, err)
	assert.Equal(t, 10, f.store.Product(f.mug.ID).StockQuantity)
	assert.Len(t, f.store.Adjustments(), 2)
}

func TestUpdateStatus_LeavingCancelledTakesStockAgain(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	o := f.placeOrder(t)

	_, err := f.svc.Cancel(ctx, o.ID, f.identity(), "")
	require.NoError(t, err)
	require.Equal(t, 10, f.store.Product(f.mug.ID).StockQuantity)

	updated, err := f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "shipped", AdminID: 1})
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusShipped, updated.Status)
	assert.Equal(t, 9, f.store.Product(f.mug.ID).StockQuantity)

	adjustments := f.store.Adjustments()
	require.Len(t, adjustments, 3)
	assert.Equal(t, product.AdjustmentSale, adjustments[2].Type)
	assert.Equal(t, -1, adjustments[2].QuantityChange)
}

func TestUpdateStatus_ReinstatingNeedsStock(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	o, err := f.svc.CreateOrder(ctx, f.identity(), f.request(order.OrderLine{ProductID: f.tee.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, o.ID, f.identity(), "")
	require.NoError(t, err)

	// someone else buys the returned unit
	_, err = f.svc.CreateOrder(ctx, f.identity(), f.request(order.OrderLine{ProductID: f.tee.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, &order.UpdateStatusRequest{OrderID: o.ID, Status: "processing", AdminID: 1})
	assert.True(t, errors.Is(err, apperror.ErrInsufficientStock))

	got, err := f.svc.Get(ctx, o.ID, order.Identity{IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusCancelled, got.Status)
	assert.Equal(t, 0, f.store.Product(f.tee.ID).StockQuantity)
}

func TestCancel_RestocksSoftDeletedProducts(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	o := f.placeOrder(t)

	f.store.DeleteProduct(f.mug.ID)
	_, err := f.svc.Cancel(ctx, o.ID, f.identity(), "")
	require.NoError(t, err)
	assert.Equal(t, 10, f.store.Product(f.mug.ID).StockQuantity)
}

func TestRecordPayment(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	o := f.placeOrder(t)

	_, err := f.svc.RecordPayment(ctx, &order.PaymentEvent{OrderID: o.ID, Status: "refunded", AdminID: 1})
	assert.True(t, errors.Is(err, apperror.ErrInvalidTransition))

	_, err = f.svc.RecordPayment(ctx, &order.PaymentEvent{OrderID: o.ID, Status: "pending", AdminID: 1})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	paid, err := f.svc.RecordPayment(ctx, &order.PaymentEvent{OrderID: o.ID, Status: "paid", Reference: "ch_123", AdminID: 1})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, "ch_123", paid.PaymentReference)
	assert.Equal(t, order.OrderStatusPending, paid.Status)

	refunded, err := f.svc.RecordPayment(ctx, &order.PaymentEvent{OrderID: o.ID, Status: "refunded", AdminID: 1})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusRefunded, refunded.PaymentStatus)

	history, err := f.svc.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "Payment paid", history[1].Notes)
	assert.Equal(t, history[1].OldStatus, history[1].NewStatus)
}

func TestReads_RespectOwnership(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	mine := f.placeOrder(t)

	guestOrder, err := f.svc.CreateOrder(ctx, order.Identity{SessionID: "sess-g"}, &order.CreateOrderRequest{
		Lines: []order.OrderLine{{ProductID: f.mug.ID, Quantity: 1}},
		ShippingAddress: &user.CreateAddressRequest{
			FirstName: "G", LastName: "H", AddressLine1: "x", City: "y", PostalCode: "1", Country: "US",
		},
		Email:          "g@example.com",
		ShippingMethod: "standard",
		PaymentMethod:  "card",
	})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, mine.ID, f.identity())
	require.NoError(t, err)
	assert.Equal(t, mine.OrderNumber, got.OrderNumber)

	_, err = f.svc.Get(ctx, guestOrder.ID, f.identity())
	assert.True(t, errors.Is(err, apperror.ErrOrderNotFound))

	got, err = f.svc.GetByNumber(ctx, strings.ToLower(guestOrder.OrderNumber), order.Identity{SessionID: "sess-g"})
	require.NoError(t, err)
	assert.Equal(t, guestOrder.ID, got.ID)

	own, err := f.svc.List(ctx, &order.ListRequest{}, f.identity())
	require.NoError(t, err)
	require.Len(t, own.Orders, 1)
	assert.Equal(t, int64(1), own.Pagination.Total)

	all, err := f.svc.List(ctx, &order.ListRequest{Status: "pending", DateFrom: "2026-10-19", DateTo: "2026-10-19"}, order.Identity{IsAdmin: true})
	require.NoError(t, err)
	assert.Len(t, all.Orders, 2)

	_, err = f.svc.List(ctx, &order.ListRequest{Status: "lost"}, order.Identity{IsAdmin: true})
	assert.True(t, errors.Is(err, apperror.ErrInvalidStatusValue))

	_, err = f.svc.List(ctx, &order.ListRequest{DateFrom: "yesterday"}, order.Identity{IsAdmin: true})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = f.svc.History(ctx, 4242)
	assert.True(t, errors.Is(err, apperror.ErrOrderNotFound))
}
