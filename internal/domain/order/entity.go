// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-api/internal/domain/user"
)

// Order represents the order entity. Amounts are a snapshot taken at
// checkout; only status, payment status, tracking and the lifecycle
// timestamps change afterward. Orders are never deleted.
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID        *uint         `gorm:"index" json:"user_id"` // Nullable for guest orders
	SessionID     string        `gorm:"size:64;index" json:"-"`
	Email         string        `gorm:"not null;size:255" json:"email"`
	Status        OrderStatus   `gorm:"not null;size:20;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;size:20;index" json:"payment_status"`

	// Financial Information
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	ShippingCost   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_cost"`
	TaxRate        decimal.Decimal `gorm:"type:numeric(6,3);not null" json:"tax_rate"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Currency       string          `gorm:"size:3;not null" json:"currency"`

	// Addresses
	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddress  Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`

	// Additional Information
	PromoCode        string `gorm:"size:50" json:"promo_code,omitempty"`
	PaymentMethod    string `gorm:"size:50;not null" json:"payment_method"`
	PaymentReference string `gorm:"size:255" json:"payment_reference,omitempty"`
	Notes            string `gorm:"type:text" json:"notes"`

	// Shipping Information
	ShippingMethod     string `gorm:"size:50;not null" json:"shipping_method"`
	ShippingMethodName string `gorm:"size:100" json:"shipping_method_name"`
	TrackingNumber     string `gorm:"size:100" json:"tracking_number"`
	ShippingCarrier    string `gorm:"size:50" json:"shipping_carrier"`

	// Timestamps
	ProcessedAt *time.Time `json:"processed_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"items"`
}

// OrderItem is a denormalized, immutable copy of a purchased product
type OrderItem struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	OrderID        uint                `gorm:"not null;index" json:"order_id"`
	ProductID      uint                `gorm:"not null;index" json:"product_id"`
	SKU            string              `gorm:"not null;size:100" json:"sku"`
	Name           string              `gorm:"not null;size:255" json:"name"`
	Brand          string              `gorm:"size:100" json:"brand"`
	ImageURL       string              `gorm:"size:500" json:"image_url"`
	UnitPrice      decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	SalePrice      decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"sale_price"`
	EffectivePrice decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"effective_price"`
	Quantity       int                 `gorm:"not null" json:"quantity"`
	LineTotal      decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"line_total"`
	CreatedAt      time.Time           `json:"created_at"`
}

// OrderStatusHistory is an append-only record of one lifecycle call
type OrderStatusHistory struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	OrderID          uint          `gorm:"not null;index" json:"order_id"`
	OldStatus        OrderStatus   `gorm:"size:20" json:"old_status"`
	NewStatus        OrderStatus   `gorm:"not null;size:20" json:"new_status"`
	OldPaymentStatus PaymentStatus `gorm:"size:20" json:"old_payment_status"`
	NewPaymentStatus PaymentStatus `gorm:"not null;size:20" json:"new_payment_status"`
	ChangedBy        *uint         `gorm:"index" json:"changed_by"`
	Notes            string        `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Address represents shipping/billing address (embedded in Order)
type Address struct {
	FirstName    string `gorm:"size:100" json:"first_name"`
	LastName     string `gorm:"size:100" json:"last_name"`
	Company      string `gorm:"size:100" json:"company"`
	AddressLine1 string `gorm:"size:255" json:"address_line1"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city"`
	State        string `gorm:"size:100" json:"state"`
	PostalCode   string `gorm:"size:20" json:"postal_code"`
	Country      string `gorm:"size:2" json:"country"`
	Phone        string `gorm:"size:20" json:"phone"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// AddressFrom copies a saved address into an order snapshot
func AddressFrom(a user.Address) Address {
	return Address{
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Company:      a.Company,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
		Phone:        a.Phone,
	}
}

// FullName returns the addressee's name
func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// GenerateOrderNumber returns ORD-YYYYMMDD-XXXXXXXX with a random suffix, so
// numbers can be assigned before the row exists
func GenerateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}

// CanBeCancelled checks if order can be cancelled by the customer
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// IsOwnedBy reports whether identity placed the order
func (o *Order) IsOwnedBy(id Identity) bool {
	if id.UserID != nil {
		return o.UserID != nil && *o.UserID == *id.UserID
	}
	return o.UserID == nil && id.SessionID != "" && o.SessionID == id.SessionID
}
