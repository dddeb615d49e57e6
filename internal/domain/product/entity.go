// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-api/internal/domain/pricing"
	"gorm.io/gorm"
)

// Product represents the product entity
type Product struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	SKU           string              `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name          string              `gorm:"not null;size:255" json:"name"`
	Slug          string              `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Brand         string              `gorm:"size:100;index" json:"brand"`
	Description   string              `gorm:"type:text" json:"description"`
	ImageURL      string              `gorm:"size:500" json:"image_url"`
	Price         decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"price"`
	SalePrice     decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"sale_price"`
	StockQuantity int                 `gorm:"not null;default:0" json:"stock_quantity"`
	IsActive      bool                `gorm:"not null;index" json:"is_active"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	DeletedAt     gorm.DeletedAt      `gorm:"index" json:"-"`
}

// AdjustmentType is why a stock level changed
type AdjustmentType string

const (
	AdjustmentSale         AdjustmentType = "sale"
	AdjustmentCancellation AdjustmentType = "cancellation"
	AdjustmentRestock      AdjustmentType = "restock"
	AdjustmentCorrection   AdjustmentType = "correction"
)

// InventoryAdjustment is an append-only record of a stock change
type InventoryAdjustment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ProductID      uint           `gorm:"not null;index" json:"product_id"`
	OrderID        *uint          `gorm:"index" json:"order_id,omitempty"`
	Type           AdjustmentType `gorm:"not null;size:20" json:"type"`
	QuantityChange int            `gorm:"not null" json:"quantity_change"`
	OldQuantity    int            `gorm:"not null" json:"old_quantity"`
	NewQuantity    int            `gorm:"not null" json:"new_quantity"`
	CreatedBy      *uint          `json:"created_by,omitempty"`
	Notes          string         `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time      `json:"created_at"`
}

// TableName overrides
func (Product) TableName() string             { return "products" }
func (InventoryAdjustment) TableName() string { return "inventory_adjustments" }

// IsInStock reports whether at least one unit can be sold
func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0
}

// EffectivePrice is the sale price when set, otherwise the list price
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// PricingLine builds a calculator line for quantity units at live prices
func (p *Product) PricingLine(quantity int) pricing.Line {
	line := pricing.Line{
		ProductID: p.ID,
		Quantity:  quantity,
		UnitPrice: p.Price,
	}
	if p.SalePrice.Valid {
		sale := p.SalePrice.Decimal
		line.SalePrice = &sale
	}
	return line
}

// GetDiscountPercentage returns how far the sale price is below list, in whole percent
func (p *Product) GetDiscountPercentage() int {
	if !p.SalePrice.Valid || !p.Price.IsPositive() || !p.SalePrice.Decimal.LessThan(p.Price) {
		return 0
	}
	return int(p.Price.Sub(p.SalePrice.Decimal).Mul(decimal.NewFromInt(100)).Div(p.Price).IntPart())
}
