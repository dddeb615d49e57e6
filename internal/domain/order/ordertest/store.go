// Package ordertest provides an in-memory order store for tests. Units of
// work are serialized by a single mutex and run against a copy of the data
// that is only kept when the unit of work succeeds.
package ordertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/promo"
	"github.com/your-org/storefront-api/internal/domain/shipping"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Store implements order.Store in memory
type Store struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	nextID      uint
	users       map[uint]user.User
	addresses   map[uint]user.Address
	methods     map[string]shipping.Method
	products    map[uint]product.Product
	promos      map[string]promo.PromoCode
	orders      map[uint]order.Order
	history     []order.OrderStatusHistory
	adjustments []product.InventoryAdjustment
}

var _ order.Store = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{state: &state{
		users:     map[uint]user.User{},
		addresses: map[uint]user.Address{},
		methods:   map[string]shipping.Method{},
		products:  map[uint]product.Product{},
		promos:    map[string]promo.PromoCode{},
		orders:    map[uint]order.Order{},
	}}
}

func (s *state) id() uint {
	s.nextID++
	return s.nextID
}

func (s *state) clone() *state {
	c := &state{
		nextID:      s.nextID,
		users:       make(map[uint]user.User, len(s.users)),
		addresses:   make(map[uint]user.Address, len(s.addresses)),
		methods:     make(map[string]shipping.Method, len(s.methods)),
		products:    make(map[uint]product.Product, len(s.products)),
		promos:      make(map[string]promo.PromoCode, len(s.promos)),
		orders:      make(map[uint]order.Order, len(s.orders)),
		history:     append([]order.OrderStatusHistory(nil), s.history...),
		adjustments: append([]product.InventoryAdjustment(nil), s.adjustments...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.addresses {
		c.addresses[k] = v
	}
	for k, v := range s.methods {
		c.methods[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.promos {
		c.promos[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = copyOrder(v)
	}
	return c
}

func copyOrder(o order.Order) order.Order {
	o.Items = append([]order.OrderItem(nil), o.Items...)
	return o
}

// Seeding helpers. Each assigns an id when the value has none.

// AddUser stores a user
func (s *Store) AddUser(u user.User) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.state.id()
	}
	s.state.users[u.ID] = u
	return u
}

// AddAddress stores an address
func (s *Store) AddAddress(a user.Address) user.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.state.id()
	}
	s.state.addresses[a.ID] = a
	return a
}

// AddShippingMethod stores a shipping method
func (s *Store) AddShippingMethod(m shipping.Method) shipping.Method {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		m.ID = s.state.id()
	}
	m.Code = shipping.NormalizeCode(m.Code)
	s.state.methods[m.Code] = m
	return m
}

// AddProduct stores a product
func (s *Store) AddProduct(p product.Product) product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.state.id()
	}
	s.state.products[p.ID] = p
	return p
}

// AddPromo stores a promo code
func (s *Store) AddPromo(p promo.PromoCode) promo.PromoCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.state.id()
	}
	p.Code = promo.NormalizeCode(p.Code)
	s.state.promos[p.Code] = p
	return p
}

// DeleteProduct soft-deletes a product
func (s *Store) DeleteProduct(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.state.products[id]
	p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	s.state.products[id] = p
}

// Product returns the committed state of a product
func (s *Store) Product(id uint) product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.products[id]
}

// Promo returns the committed state of a promo code
func (s *Store) Promo(code string) promo.PromoCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.promos[promo.NormalizeCode(code)]
}

// Adjustments returns every committed inventory adjustment
func (s *Store) Adjustments() []product.InventoryAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]product.InventoryAdjustment(nil), s.state.adjustments...)
}

// OrderCount returns the number of committed orders
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.orders)
}

// Do implements order.UnitOfWork
func (s *Store) Do(ctx context.Context, fn func(tx order.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.state.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// FindByID implements order.Reader
func (s *Store) FindByID(_ context.Context, id uint) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.state.orders[id]
	if !ok {
		return nil, apperror.New(apperror.KindOrderNotFound, "order %d not found", id)
	}
	o = copyOrder(o)
	return &o, nil
}

// FindByNumber implements order.Reader
func (s *Store) FindByNumber(_ context.Context, number string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.state.orders {
		if o.OrderNumber == number {
			o = copyOrder(o)
			return &o, nil
		}
	}
	return nil, apperror.New(apperror.KindOrderNotFound, "order %s not found", number)
}

// List implements order.Reader. Results are newest first; sort options other
// than the direction are ignored.
func (s *Store) List(_ context.Context, f order.ListFilter) ([]order.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []order.Order
	for _, o := range s.state.orders {
		switch {
		case f.Status != nil && o.Status != *f.Status:
		case f.PaymentStatus != nil && o.PaymentStatus != *f.PaymentStatus:
		case f.UserID != nil && (o.UserID == nil || *o.UserID != *f.UserID):
		case f.From != nil && o.CreatedAt.Before(*f.From):
		case f.To != nil && o.CreatedAt.After(*f.To):
		default:
			matched = append(matched, copyOrder(o))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if f.SortOrder == "asc" {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []order.Order{}, total, nil
	}
	end := len(matched)
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

// History implements order.Reader
func (s *Store) History(_ context.Context, orderID uint) ([]order.OrderStatusHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []order.OrderStatusHistory
	for _, h := range s.state.history {
		if h.OrderID == orderID {
			rows = append(rows, h)
		}
	}
	return rows, nil
}

type tx struct {
	st *state
}

func (t *tx) FindUser(userID uint) (*user.User, error) {
	u, ok := t.st.users[userID]
	if !ok {
		return nil, apperror.New(apperror.KindValidation, "user %d not found", userID)
	}
	return &u, nil
}

func (t *tx) FindAddress(userID, addressID uint) (*user.Address, error) {
	a, ok := t.st.addresses[addressID]
	if !ok || a.UserID != userID {
		return nil, apperror.New(apperror.KindAddressNotFound, "address %d not found", addressID)
	}
	return &a, nil
}

func (t *tx) FindShippingMethod(code string) (*shipping.Method, error) {
	m, ok := t.st.methods[shipping.NormalizeCode(code)]
	if !ok || !m.IsActive {
		return nil, apperror.New(apperror.KindShippingMethodInactive, "shipping method %q is not available", code)
	}
	return &m, nil
}

func (t *tx) LockProducts(ids []uint) ([]product.Product, error) {
	return t.lockProducts(ids, false), nil
}

func (t *tx) LockProductsUnscoped(ids []uint) ([]product.Product, error) {
	return t.lockProducts(ids, true), nil
}

func (t *tx) lockProducts(ids []uint, withDeleted bool) []product.Product {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var products []product.Product
	for _, id := range sorted {
		p, ok := t.st.products[id]
		if !ok || (p.DeletedAt.Valid && !withDeleted) {
			continue
		}
		products = append(products, p)
	}
	return products
}

func (t *tx) SetStock(productID uint, expected, newQty int) error {
	p, ok := t.st.products[productID]
	if !ok || p.StockQuantity != expected {
		return apperror.New(apperror.KindInsufficientStock, "stock for product %d changed concurrently", productID)
	}
	p.StockQuantity = newQty
	t.st.products[productID] = p
	return nil
}

func (t *tx) AddAdjustments(adjustments []product.InventoryAdjustment) error {
	for _, adj := range adjustments {
		adj.ID = t.st.id()
		t.st.adjustments = append(t.st.adjustments, adj)
	}
	return nil
}

func (t *tx) LockPromo(code string) (*promo.PromoCode, error) {
	p, ok := t.st.promos[promo.NormalizeCode(code)]
	if !ok {
		return nil, apperror.New(apperror.KindPromoNotFound, "promo code %s not found", promo.NormalizeCode(code))
	}
	return &p, nil
}

func (t *tx) IncrementPromoUsage(promoID uint) error {
	for code, p := range t.st.promos {
		if p.ID != promoID {
			continue
		}
		if p.Exhausted() {
			return apperror.New(apperror.KindPromoIneligible, "promo code has reached its usage limit")
		}
		p.UsageCount++
		t.st.promos[code] = p
		return nil
	}
	return apperror.New(apperror.KindPromoNotFound, "promo code %d not found", promoID)
}

func (t *tx) CreateOrder(o *order.Order) error {
	o.ID = t.st.id()
	for i := range o.Items {
		o.Items[i].ID = t.st.id()
		o.Items[i].OrderID = o.ID
	}
	t.st.orders[o.ID] = copyOrder(*o)
	return nil
}

func (t *tx) LockOrder(orderID uint) (*order.Order, error) {
	o, ok := t.st.orders[orderID]
	if !ok {
		return nil, apperror.New(apperror.KindOrderNotFound, "order %d not found", orderID)
	}
	o = copyOrder(o)
	return &o, nil
}

func (t *tx) SaveOrderState(o *order.Order) error {
	stored, ok := t.st.orders[o.ID]
	if !ok {
		return apperror.New(apperror.KindOrderNotFound, "order %d not found", o.ID)
	}
	stored.Status = o.Status
	stored.PaymentStatus = o.PaymentStatus
	stored.PaymentReference = o.PaymentReference
	stored.TrackingNumber = o.TrackingNumber
	stored.ShippingCarrier = o.ShippingCarrier
	stored.ProcessedAt = o.ProcessedAt
	stored.ShippedAt = o.ShippedAt
	stored.DeliveredAt = o.DeliveredAt
	stored.CancelledAt = o.CancelledAt
	t.st.orders[o.ID] = stored
	return nil
}

func (t *tx) AppendHistory(h *order.OrderStatusHistory) error {
	h.ID = t.st.id()
	t.st.history = append(t.st.history, *h)
	return nil
}
