// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/domain/pricing"
	"github.com/your-org/storefront-api/internal/domain/promo"
	"github.com/your-org/storefront-api/internal/domain/shipping"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
)

// Carts is the cart access checkout needs
type Carts interface {
	GetCart(ctx context.Context, owner cart.Owner) (*cart.Cart, error)
	ClearCart(ctx context.Context, owner cart.Owner) error
}

// Addresses looks up saved addresses
type Addresses interface {
	GetAddress(ctx context.Context, userID, addressID uint) (*user.Address, error)
}

// PromoValidator checks a promo code against a subtotal
type PromoValidator interface {
	Lookup(ctx context.Context, code string, subtotal decimal.Decimal) (*promo.PromoCode, error)
}

// Orders places orders
type Orders interface {
	CreateOrder(ctx context.Context, identity order.Identity, req *order.CreateOrderRequest) (*order.Order, error)
}

// Service handles checkout business logic
type Service struct {
	carts     Carts
	addresses Addresses
	shipping  shipping.Repository
	promos    PromoValidator
	orders    Orders
	checkout  config.CheckoutConfig
	logger    *logrus.Logger
}

// NewService creates a new checkout service
func NewService(carts Carts, addresses Addresses, methods shipping.Repository, promos PromoValidator,
	orders Orders, checkout config.CheckoutConfig, logger *logrus.Logger) *Service {
	return &Service{
		carts:     carts,
		addresses: addresses,
		shipping:  methods,
		promos:    promos,
		orders:    orders,
		checkout:  checkout,
		logger:    logger,
	}
}

// CheckoutRequest represents the checkout form. Signed-in users may reference
// saved addresses; guests send them inline with an email.
type CheckoutRequest struct {
	ShippingAddressID *uint                      `json:"shipping_address_id"`
	BillingAddressID  *uint                      `json:"billing_address_id"`
	ShippingAddress   *user.CreateAddressRequest `json:"shipping_address"`
	BillingAddress    *user.CreateAddressRequest `json:"billing_address"`
	Email             string                     `json:"email"`
	ShippingMethod    string                     `json:"shipping_method" binding:"required"`
	PaymentMethod     string                     `json:"payment_method"`
	PromoCode         string                     `json:"promo_code"` // Overrides the promo applied to the cart
	Notes             string                     `json:"notes" binding:"max=1000"`
	ExpectedTotal     *decimal.Decimal           `json:"expected_total"`
}

// Summary is a priced snapshot of what placing the order would produce
type Summary struct {
	Items           []cart.LineItem `json:"items"`
	ShippingAddress *order.Address  `json:"shipping_address"`
	BillingAddress  *order.Address  `json:"billing_address"`
	ShippingMethod  shipping.Method `json:"shipping_method"`
	PromoCode       string          `json:"promo_code,omitempty"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	Totals          pricing.Totals  `json:"totals"`
	Currency        string          `json:"currency"`
	PaymentMethods  []string        `json:"payment_methods"`
	Warnings        []string        `json:"warnings,omitempty"`
	CanPlaceOrder   bool            `json:"can_place_order"`
}

// Review prices the cart for the chosen address, shipping method and promo
// without changing anything. An explicitly entered promo that does not apply
// is an error; a previously applied one is only reported as a warning.
func (s *Service) Review(ctx context.Context, identity order.Identity, req *CheckoutRequest) (*Summary, error) {
	owner := ownerFor(identity)
	c, err := s.carts.GetCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, apperror.New(apperror.KindCartEmpty, "cart is empty")
	}

	if req.PaymentMethod != "" && !s.acceptsPayment(req.PaymentMethod) {
		return nil, apperror.New(apperror.KindValidation, "unsupported payment method %q", req.PaymentMethod)
	}

	shippingAddress, err := s.resolveAddress(ctx, identity, req.ShippingAddressID, req.ShippingAddress)
	if err != nil {
		return nil, err
	}
	billingAddress := shippingAddress
	if req.BillingAddressID != nil || req.BillingAddress != nil {
		if billingAddress, err = s.resolveAddress(ctx, identity, req.BillingAddressID, req.BillingAddress); err != nil {
			return nil, err
		}
	}

	method, err := s.shipping.FindActiveByCode(ctx, req.ShippingMethod)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Items:           c.Items,
		ShippingAddress: shippingAddress,
		BillingAddress:  billingAddress,
		ShippingMethod:  *method,
		Currency:        s.checkout.Currency,
		PaymentMethods:  s.checkout.PaymentMethods,
		Warnings:        append([]string(nil), c.Warnings...),
		CanPlaceOrder:   true,
	}

	lines := c.PricingLines()
	subtotal, err := pricing.Subtotal(lines)
	if err != nil {
		return nil, err
	}

	var discount *pricing.Discount
	p, warning, err := s.resolvePromo(ctx, req, c, subtotal)
	if err != nil {
		return nil, err
	}
	if p != nil {
		discount = p.Discount()
		summary.PromoCode = p.Code
	}
	if warning != "" {
		summary.Warnings = append(summary.Warnings, warning)
	}

	summary.TaxRate = s.checkout.TaxRateFor(shippingAddress.Country)
	summary.Totals, err = pricing.Calculate(pricing.Input{
		Lines:        lines,
		ShippingCost: method.Cost,
		Tax:          pricing.Tax{Rate: &summary.TaxRate},
		Discount:     discount,
	})
	if err != nil {
		return nil, err
	}

	for _, item := range c.Items {
		if item.Available < item.Quantity {
			summary.CanPlaceOrder = false
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("Only %d of %s available, %d requested", item.Available, item.Name, item.Quantity))
		}
	}

	return summary, nil
}

// Place turns the owner's cart into an order and empties the cart. Stock,
// prices and the promo are checked again when the order is created.
func (s *Service) Place(ctx context.Context, identity order.Identity, req *CheckoutRequest) (*order.Order, error) {
	owner := ownerFor(identity)
	c, err := s.carts.GetCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, apperror.New(apperror.KindCartEmpty, "cart is empty")
	}

	lines := make([]order.OrderLine, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, order.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	subtotal, err := pricing.Subtotal(c.PricingLines())
	if err != nil {
		return nil, err
	}
	// A stale promo left on the cart is dropped, as Review priced it
	var code string
	p, warning, err := s.resolvePromo(ctx, req, c, subtotal)
	if err != nil {
		return nil, err
	}
	if p != nil {
		code = p.Code
	}
	if warning != "" {
		s.logger.WithField("promo_code", c.PromoCode).Info("Dropping promo code that no longer applies")
	}

	created, err := s.orders.CreateOrder(ctx, identity, &order.CreateOrderRequest{
		Lines:             lines,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		ShippingAddress:   req.ShippingAddress,
		BillingAddress:    req.BillingAddress,
		Email:             req.Email,
		ShippingMethod:    req.ShippingMethod,
		PaymentMethod:     req.PaymentMethod,
		PromoCode:         code,
		Notes:             req.Notes,
		ExpectedTotal:     req.ExpectedTotal,
	})
	if err != nil {
		return nil, err
	}

	// The order is committed; a stale cart is only an inconvenience
	if err := s.carts.ClearCart(ctx, owner); err != nil {
		s.logger.WithError(err).WithField("order_id", created.ID).Warn("Failed to clear cart after checkout")
	}

	return created, nil
}

func (s *Service) resolveAddress(ctx context.Context, identity order.Identity, id *uint, inline *user.CreateAddressRequest) (*order.Address, error) {
	switch {
	case id != nil:
		if identity.UserID == nil {
			return nil, apperror.New(apperror.KindAddressNotFound, "address %d not found", *id)
		}
		a, err := s.addresses.GetAddress(ctx, *identity.UserID, *id)
		if err != nil {
			return nil, err
		}
		address := order.AddressFrom(*a)
		return &address, nil
	case inline != nil:
		if err := inline.Validate(); err != nil {
			return nil, err
		}
		address := order.AddressFrom(inline.ToAddress(0))
		return &address, nil
	default:
		return nil, apperror.New(apperror.KindValidation, "shipping address is required")
	}
}

func (s *Service) acceptsPayment(method string) bool {
	method = strings.ToLower(strings.TrimSpace(method))
	for _, m := range s.checkout.PaymentMethods {
		if strings.ToLower(strings.TrimSpace(m)) == method {
			return true
		}
	}
	return false
}

// resolvePromo looks up the promo for the checkout. An explicitly entered
// code that does not apply is an error; the cart's applied code is reported
// as a warning and ignored.
func (s *Service) resolvePromo(ctx context.Context, req *CheckoutRequest, c *cart.Cart, subtotal decimal.Decimal) (*promo.PromoCode, string, error) {
	code, explicit := promoCodeFor(req, c)
	if code == "" {
		return nil, "", nil
	}
	p, err := s.promos.Lookup(ctx, code, subtotal)
	switch {
	case err == nil:
		return p, "", nil
	case errors.Is(err, apperror.ErrPromoIneligible) && !explicit:
		return nil, err.Error(), nil
	default:
		return nil, "", err
	}
}

func promoCodeFor(req *CheckoutRequest, c *cart.Cart) (code string, explicit bool) {
	if strings.TrimSpace(req.PromoCode) != "" {
		return req.PromoCode, true
	}
	return c.PromoCode, false
}

func ownerFor(identity order.Identity) cart.Owner {
	if identity.UserID != nil {
		return cart.Owner{UserID: identity.UserID}
	}
	return cart.Owner{SessionID: identity.SessionID}
}
