// internal/domain/cart/entity.go
package cart

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-api/internal/domain/pricing"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
)

// CartItem represents a cart item stored in database for authenticated users
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product;index" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// SessionCart represents a cart session for guest users (stored in Redis)
type SessionCart struct {
	SessionID string            `json:"session_id"`
	Items     []SessionCartItem `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SessionCartItem represents a cart item for guest users
type SessionCartItem struct {
	ProductID uint      `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// Owner identifies a cart: a signed-in user or a guest session
type Owner struct {
	UserID    *uint
	SessionID string
}

// IsGuest reports whether the cart belongs to a guest session
func (o Owner) IsGuest() bool {
	return o.UserID == nil
}

// Key is a stable string form used in cache keys
func (o Owner) Key() string {
	if o.UserID != nil {
		return fmt.Sprintf("user:%d", *o.UserID)
	}
	return "session:" + o.SessionID
}

// Validate rejects an owner with neither user nor session
func (o Owner) Validate() error {
	if o.UserID == nil && o.SessionID == "" {
		return apperror.New(apperror.KindValidation, "a user or guest session is required")
	}
	return nil
}

// Item is a stored cart line before pricing
type Item struct {
	ProductID uint
	Quantity  int
	AddedAt   time.Time
}

// LineItem is a cart line priced at live catalog prices
type LineItem struct {
	ProductID      uint             `json:"product_id"`
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	Brand          string           `json:"brand"`
	ImageURL       string           `json:"image_url"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	SalePrice      *decimal.Decimal `json:"sale_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	Quantity       int              `json:"quantity"`
	LineTotal      decimal.Decimal  `json:"line_total"`
	Available      int              `json:"available"`
	AddedAt        time.Time        `json:"added_at"`
}

// Cart represents a shopping cart with items and totals
type Cart struct {
	UserID    *uint          `json:"user_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Items     []LineItem     `json:"items"`
	PromoCode string         `json:"promo_code,omitempty"`
	Totals    pricing.Totals `json:"totals"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// PricingLines converts the cart into calculator input
func (c *Cart) PricingLines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, pricing.Line{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			SalePrice: item.SalePrice,
		})
	}
	return lines
}

// IsEmpty reports whether the cart has no purchasable lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
