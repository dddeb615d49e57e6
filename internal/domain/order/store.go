// internal/domain/order/store.go
package order

import (
	"context"
	"time"

	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/promo"
	"github.com/your-org/storefront-api/internal/domain/shipping"
	"github.com/your-org/storefront-api/internal/domain/user"
)

// Tx is the set of reads and writes available inside one unit of work. Every
// lock taken through it is held until the unit of work ends.
type Tx interface {
	FindUser(userID uint) (*user.User, error)
	FindAddress(userID, addressID uint) (*user.Address, error)
	FindShippingMethod(code string) (*shipping.Method, error)

	// LockProducts returns the products found among ids, locked, in id order
	LockProducts(ids []uint) ([]product.Product, error)
	// LockProductsUnscoped also returns soft-deleted products
	LockProductsUnscoped(ids []uint) ([]product.Product, error)
	// SetStock moves stock from expected to newQty, failing with
	// InsufficientStock if the row no longer holds expected
	SetStock(productID uint, expected, newQty int) error
	AddAdjustments(adjustments []product.InventoryAdjustment) error

	// LockPromo fails with PromoNotFound for an unknown code
	LockPromo(code string) (*promo.PromoCode, error)
	IncrementPromoUsage(promoID uint) error

	CreateOrder(o *Order) error
	// LockOrder loads the order with its items and fails with OrderNotFound
	LockOrder(orderID uint) (*Order, error)
	SaveOrderState(o *Order) error
	AppendHistory(h *OrderStatusHistory) error
}

// UnitOfWork runs fn atomically: either every write made through the Tx is
// committed or none is
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Tx) error) error
}

// ListFilter narrows an order listing
type ListFilter struct {
	Status        *OrderStatus
	PaymentStatus *PaymentStatus
	UserID        *uint
	From          *time.Time
	To            *time.Time
	SortBy        string
	SortOrder     string
	Offset        int
	Limit         int
}

// Reader serves order reads outside any unit of work
type Reader interface {
	FindByID(ctx context.Context, id uint) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int64, error)
	History(ctx context.Context, orderID uint) ([]OrderStatusHistory, error)
}

// Store is everything the order service persists through
type Store interface {
	UnitOfWork
	Reader
}
