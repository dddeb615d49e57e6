// internal/domain/promo/entity.go
package promo

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-api/internal/domain/pricing"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
)

// PromoCode represents a discount rule applied at checkout
type PromoCode struct {
	ID                    uint                 `gorm:"primaryKey" json:"id"`
	Code                  string               `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Description           string               `gorm:"size:255" json:"description"`
	DiscountType          pricing.DiscountType `gorm:"not null;size:20" json:"discount_type"`
	DiscountValue         decimal.Decimal      `gorm:"type:numeric(12,2);not null" json:"discount_value"`
	MinimumOrderAmount    decimal.NullDecimal  `gorm:"type:numeric(12,2)" json:"minimum_order_amount"`
	MaximumDiscountAmount decimal.NullDecimal  `gorm:"type:numeric(12,2)" json:"maximum_discount_amount"`
	UsageLimit            *int                 `json:"usage_limit"`
	UsageCount            int                  `gorm:"not null;default:0" json:"usage_count"`
	StartsAt              *time.Time           `json:"starts_at"`
	ExpiresAt             *time.Time           `json:"expires_at"`
	IsActive              bool                 `gorm:"not null" json:"is_active"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

// TableName overrides the table name
func (PromoCode) TableName() string { return "promo_codes" }

// NormalizeCode canonicalizes user input before lookup
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Exhausted reports whether the usage budget is spent
func (p *PromoCode) Exhausted() bool {
	return p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit
}

// Validate checks whether the promo can be applied to a subtotal at time now.
// It never consumes usage.
func (p *PromoCode) Validate(subtotal decimal.Decimal, now time.Time) error {
	if !p.IsActive {
		return apperror.New(apperror.KindPromoIneligible, "promo code %s is not active", p.Code)
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return apperror.New(apperror.KindPromoIneligible, "promo code %s is not valid yet", p.Code)
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return apperror.New(apperror.KindPromoExpired, "promo code %s has expired", p.Code)
	}
	if p.Exhausted() {
		return apperror.New(apperror.KindPromoIneligible, "promo code %s has reached its usage limit", p.Code)
	}
	if p.MinimumOrderAmount.Valid && subtotal.LessThan(p.MinimumOrderAmount.Decimal) {
		return apperror.New(apperror.KindPromoIneligible, "promo code %s requires a minimum order of %s",
			p.Code, p.MinimumOrderAmount.Decimal.StringFixed(pricing.CurrencyPlaces))
	}
	return nil
}

// Discount converts the promo into calculator input
func (p *PromoCode) Discount() *pricing.Discount {
	discount := &pricing.Discount{
		Code:  p.Code,
		Type:  p.DiscountType,
		Value: p.DiscountValue,
	}
	if p.MaximumDiscountAmount.Valid {
		maxAmount := p.MaximumDiscountAmount.Decimal
		discount.MaxAmount = &maxAmount
	}
	return discount
}
