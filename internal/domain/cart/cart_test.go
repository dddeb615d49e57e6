package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/domain/pricing"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/promo"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/logger"
)

type memStore struct {
	mu    sync.Mutex
	lines map[string]map[uint]int
}

func newMemStore() *memStore {
	return &memStore{lines: map[string]map[uint]int{}}
}

func (m *memStore) Items(_ context.Context, owner Owner) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []Item
	for id, qty := range m.lines[owner.Key()] {
		items = append(items, Item{ProductID: id, Quantity: qty})
	}
	return items, nil
}

func (m *memStore) SetQuantity(_ context.Context, owner Owner, productID uint, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lines[owner.Key()] == nil {
		m.lines[owner.Key()] = map[uint]int{}
	}
	if quantity == 0 {
		delete(m.lines[owner.Key()], productID)
		return nil
	}
	m.lines[owner.Key()][productID] = quantity
	return nil
}

func (m *memStore) Clear(_ context.Context, owner Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines, owner.Key())
	return nil
}

type stubCatalog map[uint]product.Product

func (c stubCatalog) FindByIDs(_ context.Context, ids []uint) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := c[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubPromos map[string]*promo.PromoCode

func (s stubPromos) Lookup(_ context.Context, code string, subtotal decimal.Decimal) (*promo.PromoCode, error) {
	p, ok := s[promo.NormalizeCode(code)]
	if !ok {
		return nil, apperror.New(apperror.KindPromoIneligible, "promo code %s is not valid", code)
	}
	if err := p.Validate(subtotal, time.Now()); err != nil {
		return nil, err
	}
	return p, nil
}

type fixture struct {
	svc    *Service
	users  *memStore
	guests *RedisStore
	promos *RedisPromoStore
	mr     *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	catalog := stubCatalog{
		1: {ID: 1, SKU: "MUG", Name: "Mug", Price: decimal.RequireFromString("12.50"), StockQuantity: 5, IsActive: true},
		2: {ID: 2, SKU: "TEE", Name: "Tee", Price: decimal.NewFromInt(30), SalePrice: decimal.NewNullDecimal(decimal.NewFromInt(20)), StockQuantity: 2, IsActive: true},
		3: {ID: 3, SKU: "OLD", Name: "Retired", Price: decimal.NewFromInt(9), StockQuantity: 9, IsActive: false},
	}
	promos := stubPromos{
		"SAVE10": {Code: "SAVE10", DiscountType: pricing.DiscountPercentage, DiscountValue: decimal.NewFromInt(10), IsActive: true},
		"BIGSPEND": {Code: "BIGSPEND", DiscountType: pricing.DiscountFixed, DiscountValue: decimal.NewFromInt(5), IsActive: true,
			MinimumOrderAmount: decimal.NewNullDecimal(decimal.NewFromInt(40))},
	}

	f := &fixture{
		users:  newMemStore(),
		guests: NewRedisStore(client, time.Hour),
		promos: NewRedisPromoStore(client, time.Hour),
		mr:     mr,
	}
	f.svc = NewService(f.users, f.guests, f.promos, catalog, promos, logger.Discard())
	return f
}

func uintPtr(v uint) *uint { return &v }

func TestGuestCart_AddAndPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	guest := Owner{SessionID: "sess-1"}

	_, err := f.svc.AddToCart(ctx, guest, &AddToCartRequest{ProductID: 1, Quantity: 2})
	require.NoError(t, err)
	cart, err := f.svc.AddToCart(ctx, guest, &AddToCartRequest{ProductID: 2, Quantity: 1})
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "45", cart.Totals.Subtotal.String())
	assert.Equal(t, 3, cart.Totals.TotalQuantity)
	assert.True(t, f.mr.Exists("cart:session:sess-1"))
	assert.True(t, f.mr.TTL("cart:session:sess-1") > 0)
}

func TestAddToCart_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	guest := Owner{SessionID: "sess-2"}

	_, err := f.svc.AddToCart(ctx, guest, &AddToCartRequest{ProductID: 1, Quantity: 0})
	assert.True(t, errors.Is(err, apperror.ErrInvalidQuantity))

	_, err = f.svc.AddToCart(ctx, guest, &AddToCartRequest{ProductID: 99, Quantity: 1})
	assert.True(t, errors.Is(err, apperror.ErrProductNotFound))

	_, err = f.svc.AddToCart(ctx, guest, &AddToCartRequest{ProductID: 3, Quantity: 1})
	assert.True(t, errors.Is(err, apperror.ErrProductUnavailable))

	_, err = f.svc.AddToCart(ctx, guest, &AddToCartRequest{ProductID: 2, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, guest, &AddToCartRequest{ProductID: 2, Quantity: 1})
	assert.True(t, errors.Is(err, apperror.ErrInsufficientStock))

	_, err = f.svc.GetCart(ctx, Owner{})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestUpdateCartItem_ZeroRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := Owner{UserID: uintPtr(7)}

	_, err := f.svc.AddToCart(ctx, user, &AddToCartRequest{ProductID: 1, Quantity: 1})
	require.NoError(t, err)

	cart, err := f.svc.UpdateCartItem(ctx, user, 1, &UpdateCartItemRequest{Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	cart, err = f.svc.UpdateCartItem(ctx, user, 1, &UpdateCartItemRequest{Quantity: 0})
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Totals.TotalAmount.IsZero())

	_, err = f.svc.RemoveFromCart(ctx, user, 1)
	assert.True(t, errors.Is(err, apperror.ErrProductNotFound))
}

func TestApplyPromo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	guest := Owner{SessionID: "sess-3"}

	_, err := f.svc.ApplyPromo(ctx, guest, &ApplyPromoRequest{Code: "SAVE10"})
	assert.True(t, errors.Is(err, apperror.ErrCartEmpty))

	_, err = f.svc.AddToCart(ctx, guest, &AddToCartRequest{ProductID: 1, Quantity: 2})
	require.NoError(t, err)

	_, err = f.svc.ApplyPromo(ctx, guest, &ApplyPromoRequest{Code: "BIGSPEND"})
	assert.True(t, errors.Is(err, apperror.ErrPromoIneligible))

	cart, err := f.svc.ApplyPromo(ctx, guest, &ApplyPromoRequest{Code: "save10"})
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", cart.PromoCode)
	assert.Equal(t, "2.5", cart.Totals.DiscountAmount.String())
	assert.Equal(t, "22.5", cart.Totals.TotalAmount.String())

	cart, err = f.svc.RemovePromo(ctx, guest)
	require.NoError(t, err)
	assert.Empty(t, cart.PromoCode)
	assert.Equal(t, "25", cart.Totals.TotalAmount.String())
}

func TestGetCart_WarnsOnStalePromoAndProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	guest := Owner{SessionID: "sess-4"}

	require.NoError(t, f.guests.SetQuantity(ctx, guest, 1, 1))
	require.NoError(t, f.guests.SetQuantity(ctx, guest, 3, 1))
	require.NoError(t, f.promos.SetAppliedCode(ctx, guest, "BIGSPEND"))

	cart, err := f.svc.GetCart(ctx, guest)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Len(t, cart.Warnings, 2)
	assert.True(t, cart.Totals.DiscountAmount.IsZero())
	assert.Equal(t, "BIGSPEND", cart.PromoCode)
}

func TestMergeGuestCartToUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	guest := Owner{SessionID: "sess-5"}
	user := Owner{UserID: uintPtr(11)}

	require.NoError(t, f.guests.SetQuantity(ctx, guest, 1, 2))
	require.NoError(t, f.guests.SetQuantity(ctx, guest, 2, 2))
	require.NoError(t, f.users.SetQuantity(ctx, user, 2, 1))
	require.NoError(t, f.promos.SetAppliedCode(ctx, guest, "SAVE10"))

	require.NoError(t, f.svc.MergeGuestCartToUser(ctx, 11, "sess-5"))

	cart, err := f.svc.GetCart(ctx, user)
	require.NoError(t, err)
	quantities := map[uint]int{}
	for _, item := range cart.Items {
		quantities[item.ProductID] = item.Quantity
	}
	// product 2 has only 2 in stock
	assert.Equal(t, map[uint]int{1: 2, 2: 2}, quantities)
	assert.Equal(t, "SAVE10", cart.PromoCode)
	assert.False(t, f.mr.Exists("cart:session:sess-5"))
	assert.False(t, f.mr.Exists("applied_promo:session:sess-5"))
}

func TestRedisStore_ExpiresWithTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	guest := Owner{SessionID: "sess-6"}

	require.NoError(t, f.guests.SetQuantity(ctx, guest, 1, 1))
	f.mr.FastForward(2 * time.Hour)

	items, err := f.guests.Items(ctx, guest)
	require.NoError(t, err)
	assert.Empty(t, items)
}
