// internal/domain/pricing/calculator.go
package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
)

// CurrencyPlaces is the number of decimal places every reported amount carries
const CurrencyPlaces = 2

var hundred = decimal.NewFromInt(100)

// DiscountType is how a promo reduces the order total
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
	DiscountShipping   DiscountType = "shipping"
)

// Valid reports whether t is a known discount type
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercentage, DiscountFixed, DiscountShipping:
		return true
	}
	return false
}

// Line is one product and quantity priced for the calculator
type Line struct {
	ProductID uint
	Quantity  int
	UnitPrice decimal.Decimal
	SalePrice *decimal.Decimal
}

// EffectivePrice is the sale price when present, otherwise the unit price
func (l Line) EffectivePrice() decimal.Decimal {
	if l.SalePrice != nil {
		return *l.SalePrice
	}
	return l.UnitPrice
}

// LineTotal is the effective price times quantity, unrounded
func (l Line) LineTotal() decimal.Decimal {
	return l.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Discount is an already-validated promo ready to be applied
type Discount struct {
	Code      string
	Type      DiscountType
	Value     decimal.Decimal
	MaxAmount *decimal.Decimal
}

// Tax is either a percentage rate applied to the discounted merchandise, or a
// precomputed amount. Amount wins when both are set.
type Tax struct {
	Rate   *decimal.Decimal
	Amount *decimal.Decimal
}

// Input is everything the calculator needs
type Input struct {
	Lines        []Line
	ShippingCost decimal.Decimal
	Tax          Tax
	Discount     *Discount
}

// Totals is the priced breakdown of a cart or order
type Totals struct {
	ItemCount      int             `json:"item_count"`
	TotalQuantity  int             `json:"total_quantity"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// Subtotal sums effective price times quantity over all lines at full precision
func Subtotal(lines []Line) (decimal.Decimal, error) {
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			return decimal.Zero, apperror.New(apperror.KindInvalidQuantity,
				"quantity for product %d must be positive, got %d", line.ProductID, line.Quantity)
		}
		if line.EffectivePrice().IsNegative() {
			return decimal.Zero, apperror.New(apperror.KindValidation,
				"price for product %d cannot be negative", line.ProductID)
		}
		subtotal = subtotal.Add(line.LineTotal())
	}
	return subtotal, nil
}

// Calculate derives subtotal, shipping, tax, discount and total.
// Intermediate amounts keep full precision; the total is rounded half-up to
// cents once, and the reported components are rounded to cents for display.
func Calculate(in Input) (Totals, error) {
	subtotal, err := Subtotal(in.Lines)
	if err != nil {
		return Totals{}, err
	}
	if in.ShippingCost.IsNegative() {
		return Totals{}, apperror.New(apperror.KindValidation, "shipping cost cannot be negative")
	}

	merchDiscount, shippingDiscount, err := discountAmounts(in.Discount, subtotal, in.ShippingCost)
	if err != nil {
		return Totals{}, err
	}
	discount := merchDiscount.Add(shippingDiscount)

	tax, err := taxAmount(in.Tax, subtotal.Sub(merchDiscount))
	if err != nil {
		return Totals{}, err
	}

	total := subtotal.Add(in.ShippingCost).Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	totals := Totals{
		ItemCount:      len(in.Lines),
		Subtotal:       RoundCurrency(subtotal),
		ShippingCost:   RoundCurrency(in.ShippingCost),
		TaxAmount:      RoundCurrency(tax),
		DiscountAmount: RoundCurrency(discount),
		TotalAmount:    RoundCurrency(total),
	}
	for _, line := range in.Lines {
		totals.TotalQuantity += line.Quantity
	}
	return totals, nil
}

// RoundCurrency rounds half away from zero to cents, which is half-up for the
// non-negative amounts the calculator produces
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

func discountAmounts(d *Discount, subtotal, shipping decimal.Decimal) (merch, ship decimal.Decimal, err error) {
	if d == nil {
		return decimal.Zero, decimal.Zero, nil
	}
	if d.Value.IsNegative() {
		return decimal.Zero, decimal.Zero, apperror.New(apperror.KindValidation, "discount value cannot be negative")
	}

	switch d.Type {
	case DiscountPercentage:
		if d.Value.GreaterThan(hundred) {
			return decimal.Zero, decimal.Zero, apperror.New(apperror.KindValidation, "percentage discount cannot exceed 100")
		}
		merch = subtotal.Mul(d.Value).Div(hundred)
		if d.MaxAmount != nil && merch.GreaterThan(*d.MaxAmount) {
			merch = *d.MaxAmount
		}
		return decimal.Min(merch, subtotal), decimal.Zero, nil
	case DiscountFixed:
		return decimal.Min(d.Value, subtotal), decimal.Zero, nil
	case DiscountShipping:
		// a zero value means free shipping
		if d.Value.IsZero() {
			return decimal.Zero, shipping, nil
		}
		return decimal.Zero, decimal.Min(d.Value, shipping), nil
	default:
		return decimal.Zero, decimal.Zero, apperror.New(apperror.KindValidation, "unknown discount type %q", d.Type)
	}
}

func taxAmount(t Tax, taxable decimal.Decimal) (decimal.Decimal, error) {
	if t.Amount != nil {
		if t.Amount.IsNegative() {
			return decimal.Zero, apperror.New(apperror.KindValidation, "tax amount cannot be negative")
		}
		return *t.Amount, nil
	}
	if t.Rate == nil {
		return decimal.Zero, nil
	}
	if t.Rate.IsNegative() {
		return decimal.Zero, apperror.New(apperror.KindValidation, "tax rate cannot be negative")
	}
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	return taxable.Mul(*t.Rate).Div(hundred), nil
}
