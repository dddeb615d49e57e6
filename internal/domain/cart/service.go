// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/pricing"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/promo"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
)

// Catalog supplies live product data
type Catalog interface {
	FindByIDs(ctx context.Context, ids []uint) ([]product.Product, error)
}

// PromoValidator checks a promo code against a subtotal
type PromoValidator interface {
	Lookup(ctx context.Context, code string, subtotal decimal.Decimal) (*promo.PromoCode, error)
}

// Service handles cart business logic
type Service struct {
	users   Store
	guests  Store
	promos  PromoStore
	catalog Catalog
	lookup  PromoValidator
	logger  *logrus.Logger
}

// NewService creates a new cart service
func NewService(users, guests Store, promos PromoStore, catalog Catalog, lookup PromoValidator, logger *logrus.Logger) *Service {
	return &Service{
		users:   users,
		guests:  guests,
		promos:  promos,
		catalog: catalog,
		lookup:  lookup,
		logger:  logger,
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// ApplyPromoRequest represents a promo code entered on the cart
type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

// GetCart retrieves the owner's cart priced at live catalog prices. Lines whose
// product disappeared or was deactivated are left out with a warning; an
// applied promo that no longer qualifies is reported but not removed.
func (s *Service) GetCart(ctx context.Context, owner Owner) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	items, err := s.storeFor(owner).Items(ctx, owner)
	if err != nil {
		return nil, err
	}

	cart := &Cart{UserID: owner.UserID, SessionID: owner.SessionID, Items: []LineItem{}}
	if owner.UserID != nil {
		cart.SessionID = ""
	}

	products, err := s.productsFor(ctx, items)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok || !p.IsActive {
			cart.Warnings = append(cart.Warnings, fmt.Sprintf("product %d is no longer available", item.ProductID))
			continue
		}
		line := p.PricingLine(item.Quantity)
		cart.Items = append(cart.Items, LineItem{
			ProductID:      p.ID,
			SKU:            p.SKU,
			Name:           p.Name,
			Brand:          p.Brand,
			ImageURL:       p.ImageURL,
			UnitPrice:      p.Price,
			SalePrice:      line.SalePrice,
			EffectivePrice: line.EffectivePrice(),
			Quantity:       item.Quantity,
			LineTotal:      pricing.RoundCurrency(line.LineTotal()),
			Available:      p.StockQuantity,
			AddedAt:        item.AddedAt,
		})
		if p.StockQuantity < item.Quantity {
			cart.Warnings = append(cart.Warnings,
				fmt.Sprintf("Limited stock for %s. Available: %d", p.Name, p.StockQuantity))
		}
	}

	in := pricing.Input{Lines: cart.PricingLines()}
	subtotal, err := pricing.Subtotal(in.Lines)
	if err != nil {
		return nil, err
	}

	code, err := s.promos.AppliedCode(ctx, owner)
	if err != nil {
		return nil, err
	}
	if code != "" {
		cart.PromoCode = code
		p, err := s.lookup.Lookup(ctx, code, subtotal)
		switch {
		case err == nil:
			in.Discount = p.Discount()
		case errors.Is(err, apperror.ErrPromoIneligible):
			cart.Warnings = append(cart.Warnings, err.Error())
		default:
			return nil, err
		}
	}

	cart.Totals, err = pricing.Calculate(in)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddToCart adds quantity units of a product, merging with an existing line
func (s *Service) AddToCart(ctx context.Context, owner Owner, req *AddToCartRequest) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apperror.New(apperror.KindInvalidQuantity, "quantity must be positive, got %d", req.Quantity)
	}

	p, err := s.purchasable(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	store := s.storeFor(owner)
	current, err := s.currentQuantity(ctx, store, owner, req.ProductID)
	if err != nil {
		return nil, err
	}

	newQuantity := current + req.Quantity
	if p.StockQuantity < newQuantity {
		return nil, apperror.New(apperror.KindInsufficientStock,
			"insufficient inventory for %s. Available: %d", p.Name, p.StockQuantity)
	}

	if err := store.SetQuantity(ctx, owner, req.ProductID, newQuantity); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, owner)
}

// UpdateCartItem sets the quantity of a line already in the cart; zero removes it
func (s *Service) UpdateCartItem(ctx context.Context, owner Owner, productID uint, req *UpdateCartItemRequest) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, apperror.New(apperror.KindInvalidQuantity, "quantity cannot be negative")
	}

	store := s.storeFor(owner)
	current, err := s.currentQuantity(ctx, store, owner, productID)
	if err != nil {
		return nil, err
	}
	if current == 0 {
		return nil, apperror.New(apperror.KindProductNotFound, "product %d is not in the cart", productID)
	}

	if req.Quantity > 0 {
		p, err := s.purchasable(ctx, productID)
		if err != nil {
			return nil, err
		}
		if p.StockQuantity < req.Quantity {
			return nil, apperror.New(apperror.KindInsufficientStock,
				"insufficient inventory for %s. Available: %d", p.Name, p.StockQuantity)
		}
	}

	if err := store.SetQuantity(ctx, owner, productID, req.Quantity); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, owner)
}

// RemoveFromCart removes an item from the cart
func (s *Service) RemoveFromCart(ctx context.Context, owner Owner, productID uint) (*Cart, error) {
	return s.UpdateCartItem(ctx, owner, productID, &UpdateCartItemRequest{Quantity: 0})
}

// ClearCart removes all items and any applied promo
func (s *Service) ClearCart(ctx context.Context, owner Owner) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	if err := s.storeFor(owner).Clear(ctx, owner); err != nil {
		return err
	}
	return s.promos.ClearAppliedCode(ctx, owner)
}

// ApplyPromo validates a promo against the current subtotal and remembers it.
// Validation does not consume a use; usage is counted when an order is placed.
func (s *Service) ApplyPromo(ctx context.Context, owner Owner, req *ApplyPromoRequest) (*Cart, error) {
	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, apperror.New(apperror.KindCartEmpty, "cart is empty")
	}

	subtotal, err := pricing.Subtotal(cart.PricingLines())
	if err != nil {
		return nil, err
	}
	p, err := s.lookup.Lookup(ctx, req.Code, subtotal)
	if err != nil {
		return nil, err
	}

	if err := s.promos.SetAppliedCode(ctx, owner, p.Code); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, owner)
}

// RemovePromo forgets the applied promo code
func (s *Service) RemovePromo(ctx context.Context, owner Owner) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := s.promos.ClearAppliedCode(ctx, owner); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, owner)
}

// MergeGuestCartToUser merges guest cart to user cart when user logs in.
// Merged quantities are capped at available stock.
func (s *Service) MergeGuestCartToUser(ctx context.Context, userID uint, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	guest := Owner{SessionID: sessionID}
	user := Owner{UserID: &userID}

	guestItems, err := s.guests.Items(ctx, guest)
	if err != nil {
		return err
	}
	if len(guestItems) == 0 {
		return nil
	}

	userItems, err := s.users.Items(ctx, user)
	if err != nil {
		return err
	}
	existing := make(map[uint]int, len(userItems))
	for _, item := range userItems {
		existing[item.ProductID] = item.Quantity
	}

	products, err := s.productsFor(ctx, guestItems)
	if err != nil {
		return err
	}

	for _, item := range guestItems {
		p, ok := products[item.ProductID]
		if !ok || !p.IsActive {
			continue
		}
		quantity := existing[item.ProductID] + item.Quantity
		if quantity > p.StockQuantity {
			quantity = p.StockQuantity
		}
		if quantity <= 0 {
			continue
		}
		if err := s.users.SetQuantity(ctx, user, item.ProductID, quantity); err != nil {
			return err
		}
	}

	code, err := s.promos.AppliedCode(ctx, guest)
	if err != nil {
		return err
	}
	if code != "" {
		current, err := s.promos.AppliedCode(ctx, user)
		if err != nil {
			return err
		}
		if current == "" {
			if err := s.promos.SetAppliedCode(ctx, user, code); err != nil {
				return err
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"items":   len(guestItems),
	}).Info("Merged guest cart")

	return s.ClearCart(ctx, guest)
}

func (s *Service) storeFor(owner Owner) Store {
	if owner.IsGuest() {
		return s.guests
	}
	return s.users
}

func (s *Service) currentQuantity(ctx context.Context, store Store, owner Owner, productID uint) (int, error) {
	items, err := store.Items(ctx, owner)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		if item.ProductID == productID {
			return item.Quantity, nil
		}
	}
	return 0, nil
}

func (s *Service) purchasable(ctx context.Context, productID uint) (*product.Product, error) {
	found, err := s.catalog.FindByIDs(ctx, []uint{productID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperror.New(apperror.KindProductNotFound, "product %d not found", productID)
	}
	p := found[0]
	if !p.IsActive {
		return nil, apperror.New(apperror.KindProductUnavailable, "product %d is not available", productID)
	}
	return &p, nil
}

func (s *Service) productsFor(ctx context.Context, items []Item) (map[uint]product.Product, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	found, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]product.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	return byID, nil
}
