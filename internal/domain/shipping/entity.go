// internal/domain/shipping/entity.go
package shipping

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Method represents a shipping option
type Method struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Code          string          `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name          string          `gorm:"not null;size:100" json:"name"`
	Description   string          `gorm:"size:255" json:"description"`
	Cost          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"cost"`
	EstimatedDays string          `gorm:"size:50" json:"estimated_days"`
	Carrier       string          `gorm:"size:100" json:"carrier"`
	IsActive      bool            `gorm:"not null" json:"is_active"`
	SortOrder     int             `gorm:"default:0" json:"sort_order"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName overrides the table name
func (Method) TableName() string { return "shipping_methods" }

// NormalizeCode canonicalizes a method code
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// DefaultMethods is the development seed set
func DefaultMethods() []Method {
	return []Method{
		{
			Code:          "standard",
			Name:          "Standard Shipping",
			Description:   "Regular delivery in 5-7 business days",
			Cost:          decimal.RequireFromString("9.99"),
			EstimatedDays: "5-7 business days",
			Carrier:       "USPS",
			IsActive:      true,
			SortOrder:     1,
		},
		{
			Code:          "express",
			Name:          "Express Shipping",
			Description:   "Fast delivery in 2-3 business days",
			Cost:          decimal.RequireFromString("19.99"),
			EstimatedDays: "2-3 business days",
			Carrier:       "UPS",
			IsActive:      true,
			SortOrder:     2,
		},
		{
			Code:          "overnight",
			Name:          "Overnight",
			Description:   "Next business day delivery",
			Cost:          decimal.RequireFromString("29.99"),
			EstimatedDays: "1 business day",
			Carrier:       "FedEx",
			IsActive:      true,
			SortOrder:     3,
		},
	}
}
