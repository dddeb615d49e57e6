// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/pricing"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/pagination"
)

// Service handles order business logic
type Service struct {
	store    Store
	checkout config.CheckoutConfig
	policy   TransitionPolicy
	logger   *logrus.Logger
	now      func() time.Time
}

// NewService creates a new order service
func NewService(store Store, checkout config.CheckoutConfig, logger *logrus.Logger, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:    store,
		checkout: checkout,
		policy:   PolicyFor(checkout.StrictTransitions),
		logger:   logger,
		now:      clock,
	}
}

// OrderLine is one product and quantity to purchase
type OrderLine struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// CreateOrderRequest represents order creation data. Saved addresses are
// referenced by id; guests send addresses inline.
type CreateOrderRequest struct {
	Lines             []OrderLine
	ShippingAddressID *uint
	BillingAddressID  *uint
	ShippingAddress   *user.CreateAddressRequest
	BillingAddress    *user.CreateAddressRequest
	Email             string
	ShippingMethod    string
	PaymentMethod     string
	PromoCode         string
	Notes             string
	// ExpectedTotal is the total the customer was shown; a different
	// recomputed total aborts with Conflict
	ExpectedTotal *decimal.Decimal
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	OrderID         uint
	Status          string
	PaymentStatus   *string
	AdminID         uint
	Notes           string
	TrackingNumber  *string
	ShippingCarrier *string
}

// PaymentEvent records the outcome of a payment attempt
type PaymentEvent struct {
	OrderID   uint
	Status    string
	Reference string
	Notes     string
	AdminID   uint
}

// ListRequest represents order list filters
type ListRequest struct {
	Page          int    `form:"page,default=1"`
	Limit         int    `form:"limit,default=20"`
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
	UserID        uint   `form:"user_id"`
	DateFrom      string `form:"date_from"`
	DateTo        string `form:"date_to"`
	SortBy        string `form:"sort_by,default=created_at"`
	SortOrder     string `form:"sort_order,default=desc"`
}

// OrderResponse represents orders with pagination
type OrderResponse struct {
	Orders     []Order               `json:"orders"`
	Pagination pagination.Pagination `json:"pagination"`
}

// CreateOrder re-validates stock, prices, shipping and promo against locked
// rows and persists the order, its items, stock decrements, inventory
// adjustments, promo usage and the first history row as one unit of work.
func (s *Service) CreateOrder(ctx context.Context, identity Identity, req *CreateOrderRequest) (*Order, error) {
	lines, err := s.validateCreate(identity, req)
	if err != nil {
		return nil, err
	}

	var created *Order
	err = s.store.Do(ctx, func(tx Tx) error {
		now := s.now().UTC()

		email := strings.TrimSpace(req.Email)
		if identity.UserID != nil {
			u, err := tx.FindUser(*identity.UserID)
			if err != nil {
				return err
			}
			if email == "" {
				email = u.Email
			}
		}

		shippingAddress, err := resolveAddress(tx, identity, req.ShippingAddressID, req.ShippingAddress)
		if err != nil {
			return err
		}
		billingAddress := shippingAddress
		if req.BillingAddressID != nil || req.BillingAddress != nil {
			if billingAddress, err = resolveAddress(tx, identity, req.BillingAddressID, req.BillingAddress); err != nil {
				return err
			}
		}

		method, err := tx.FindShippingMethod(req.ShippingMethod)
		if err != nil {
			return err
		}

		ids := make([]uint, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ProductID)
		}
		locked, err := tx.LockProducts(ids)
		if err != nil {
			return err
		}
		products := make(map[uint]product.Product, len(locked))
		for _, p := range locked {
			products[p.ID] = p
		}

		pricingLines := make([]pricing.Line, 0, len(lines))
		items := make([]OrderItem, 0, len(lines))
		for _, line := range lines {
			p, ok := products[line.ProductID]
			if !ok || !p.IsActive {
				return apperror.New(apperror.KindProductUnavailable, "product %d is not available", line.ProductID)
			}
			if p.StockQuantity < line.Quantity {
				return apperror.New(apperror.KindInsufficientStock,
					"insufficient stock for %s. Available: %d, requested: %d", p.Name, p.StockQuantity, line.Quantity)
			}
			pl := p.PricingLine(line.Quantity)
			pricingLines = append(pricingLines, pl)
			items = append(items, OrderItem{
				ProductID:      p.ID,
				SKU:            p.SKU,
				Name:           p.Name,
				Brand:          p.Brand,
				ImageURL:       p.ImageURL,
				UnitPrice:      p.Price,
				SalePrice:      p.SalePrice,
				EffectivePrice: pl.EffectivePrice(),
				Quantity:       line.Quantity,
				LineTotal:      pricing.RoundCurrency(pl.LineTotal()),
			})
		}

		subtotal, err := pricing.Subtotal(pricingLines)
		if err != nil {
			return err
		}

		var (
			discount  *pricing.Discount
			promoID   uint
			promoCode string
		)
		if strings.TrimSpace(req.PromoCode) != "" {
			p, err := tx.LockPromo(req.PromoCode)
			if errors.Is(err, apperror.ErrPromoNotFound) {
				return apperror.New(apperror.KindPromoIneligible, "promo code %s is not valid", strings.ToUpper(strings.TrimSpace(req.PromoCode)))
			}
			if err != nil {
				return err
			}
			if err := p.Validate(subtotal, now); err != nil {
				return err
			}
			discount = p.Discount()
			promoID = p.ID
			promoCode = p.Code
		}

		taxRate := s.checkout.TaxRateFor(shippingAddress.Country)
		totals, err := pricing.Calculate(pricing.Input{
			Lines:        pricingLines,
			ShippingCost: method.Cost,
			Tax:          pricing.Tax{Rate: &taxRate},
			Discount:     discount,
		})
		if err != nil {
			return err
		}

		if req.ExpectedTotal != nil && !totals.TotalAmount.Equal(pricing.RoundCurrency(*req.ExpectedTotal)) {
			return apperror.New(apperror.KindConflict, "order total changed from %s to %s",
				req.ExpectedTotal.StringFixed(pricing.CurrencyPlaces), totals.TotalAmount.StringFixed(pricing.CurrencyPlaces))
		}

		order := &Order{
			OrderNumber:        GenerateOrderNumber(now),
			UserID:             identity.UserID,
			Email:              email,
			Status:             OrderStatusPending,
			PaymentStatus:      PaymentStatusPending,
			Subtotal:           totals.Subtotal,
			ShippingCost:       totals.ShippingCost,
			TaxRate:            taxRate,
			TaxAmount:          totals.TaxAmount,
			DiscountAmount:     totals.DiscountAmount,
			TotalAmount:        totals.TotalAmount,
			Currency:           s.checkout.Currency,
			ShippingAddress:    shippingAddress,
			BillingAddress:     billingAddress,
			PromoCode:          promoCode,
			PaymentMethod:      strings.ToLower(strings.TrimSpace(req.PaymentMethod)),
			Notes:              req.Notes,
			ShippingMethod:     method.Code,
			ShippingMethodName: method.Name,
			ShippingCarrier:    method.Carrier,
			CreatedAt:          now,
			UpdatedAt:          now,
			Items:              items,
		}
		if identity.UserID == nil {
			order.SessionID = identity.SessionID
		}
		if err := tx.CreateOrder(order); err != nil {
			return err
		}

		adjustments := make([]product.InventoryAdjustment, 0, len(lines))
		for _, line := range lines {
			p := products[line.ProductID]
			newQty := p.StockQuantity - line.Quantity
			if err := tx.SetStock(p.ID, p.StockQuantity, newQty); err != nil {
				return err
			}
			orderID := order.ID
			adjustments = append(adjustments, product.InventoryAdjustment{
				ProductID:      p.ID,
				OrderID:        &orderID,
				Type:           product.AdjustmentSale,
				QuantityChange: -line.Quantity,
				OldQuantity:    p.StockQuantity,
				NewQuantity:    newQty,
				CreatedBy:      identity.UserID,
				Notes:          "Order " + order.OrderNumber,
				CreatedAt:      now,
			})
		}
		if err := tx.AddAdjustments(adjustments); err != nil {
			return err
		}

		if promoID != 0 {
			if err := tx.IncrementPromoUsage(promoID); err != nil {
				return err
			}
		}

		if err := tx.AppendHistory(&OrderStatusHistory{
			OrderID:          order.ID,
			NewStatus:        OrderStatusPending,
			NewPaymentStatus: PaymentStatusPending,
			ChangedBy:        identity.UserID,
			Notes:            "Order created",
			CreatedAt:        now,
		}); err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"total":        created.TotalAmount.StringFixed(pricing.CurrencyPlaces),
		"items":        len(created.Items),
		"guest":        identity.UserID == nil,
	}).Info("Order created")

	return created, nil
}

// UpdateStatus applies an admin status change. Every call appends exactly one
// history row, including repeats of the current status.
func (s *Service) UpdateStatus(ctx context.Context, req *UpdateStatusRequest) (*Order, error) {
	status, err := ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	var paymentStatus *PaymentStatus
	if req.PaymentStatus != nil {
		ps, err := ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			return nil, err
		}
		paymentStatus = &ps
	}

	var updated *Order
	err = s.store.Do(ctx, func(tx Tx) error {
		order, err := tx.LockOrder(req.OrderID)
		if err != nil {
			return err
		}
		if err := s.policy.Allow(order.Status, status); err != nil {
			return err
		}

		now := s.now()
		adminID := req.AdminID
		oldStatus, oldPayment := order.Status, order.PaymentStatus
		switch {
		case status == OrderStatusCancelled && oldStatus != OrderStatusCancelled:
			if err := s.restock(tx, order, &adminID, now); err != nil {
				return err
			}
		case status != OrderStatusCancelled && oldStatus == OrderStatusCancelled:
			if err := s.reserve(tx, order, &adminID, now); err != nil {
				return err
			}
		}
		applyStatus(order, status, now)
		if paymentStatus != nil {
			order.PaymentStatus = *paymentStatus
		}
		if req.TrackingNumber != nil {
			order.TrackingNumber = strings.TrimSpace(*req.TrackingNumber)
		}
		if req.ShippingCarrier != nil {
			order.ShippingCarrier = strings.TrimSpace(*req.ShippingCarrier)
		}

		if err := tx.SaveOrderState(order); err != nil {
			return err
		}
		if err := tx.AppendHistory(&OrderStatusHistory{
			OrderID:          order.ID,
			OldStatus:        oldStatus,
			NewStatus:        order.Status,
			OldPaymentStatus: oldPayment,
			NewPaymentStatus: order.PaymentStatus,
			ChangedBy:        &adminID,
			Notes:            req.Notes,
			CreatedAt:        now.UTC(),
		}); err != nil {
			return err
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":       updated.ID,
		"status":         updated.Status,
		"payment_status": updated.PaymentStatus,
		"admin_id":       req.AdminID,
	}).Info("Order status updated")

	return updated, nil
}

// Cancel cancels a pending or processing order and returns its items to stock.
// Customers may only cancel their own orders; admins may cancel any.
func (s *Service) Cancel(ctx context.Context, orderID uint, actor Identity, reason string) (*Order, error) {
	var cancelled *Order
	err := s.store.Do(ctx, func(tx Tx) error {
		order, err := tx.LockOrder(orderID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin && !order.IsOwnedBy(actor) {
			return apperror.New(apperror.KindOrderNotFound, "order %d not found", orderID)
		}
		if !order.CanBeCancelled() {
			return apperror.New(apperror.KindInvalidTransition,
				"order cannot be cancelled in current status: %s", order.Status)
		}

		now := s.now()
		if err := s.restock(tx, order, actor.ActorID(), now); err != nil {
			return err
		}

		oldStatus := order.Status
		applyStatus(order, OrderStatusCancelled, now)
		if err := tx.SaveOrderState(order); err != nil {
			return err
		}

		notes := "Order cancelled"
		if reason = strings.TrimSpace(reason); reason != "" {
			notes = fmt.Sprintf("Order cancelled: %s", reason)
		}
		if err := tx.AppendHistory(&OrderStatusHistory{
			OrderID:          order.ID,
			OldStatus:        oldStatus,
			NewStatus:        OrderStatusCancelled,
			OldPaymentStatus: order.PaymentStatus,
			NewPaymentStatus: order.PaymentStatus,
			ChangedBy:        actor.ActorID(),
			Notes:            notes,
			CreatedAt:        now.UTC(),
		}); err != nil {
			return err
		}

		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": cancelled.ID,
		"admin":    actor.IsAdmin,
	}).Info("Order cancelled")

	return cancelled, nil
}

// itemQuantities sums the order's quantities per product, ids in first-seen order
func itemQuantities(o *Order) ([]uint, map[uint]int) {
	ids := make([]uint, 0, len(o.Items))
	quantities := make(map[uint]int, len(o.Items))
	for _, item := range o.Items {
		if _, seen := quantities[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}
	return ids, quantities
}

// restock returns the order's items to stock. Soft-deleted products are
// restocked too; products that no longer exist are skipped with a warning.
func (s *Service) restock(tx Tx, o *Order, actorID *uint, now time.Time) error {
	ids, quantities := itemQuantities(o)
	locked, err := tx.LockProductsUnscoped(ids)
	if err != nil {
		return err
	}
	return s.moveStock(tx, o, locked, quantities, 1, product.AdjustmentCancellation,
		"Order "+o.OrderNumber+" cancelled", actorID, now)
}

// reserve takes the items of a cancelled order out of stock again
func (s *Service) reserve(tx Tx, o *Order, actorID *uint, now time.Time) error {
	ids, quantities := itemQuantities(o)
	locked, err := tx.LockProductsUnscoped(ids)
	if err != nil {
		return err
	}
	for _, p := range locked {
		if p.StockQuantity < quantities[p.ID] {
			return apperror.New(apperror.KindInsufficientStock,
				"insufficient stock to reinstate order: %s has %d, order needs %d", p.Name, p.StockQuantity, quantities[p.ID])
		}
	}
	return s.moveStock(tx, o, locked, quantities, -1, product.AdjustmentSale,
		"Order "+o.OrderNumber+" reinstated", actorID, now)
}

func (s *Service) moveStock(tx Tx, o *Order, locked []product.Product, quantities map[uint]int, sign int,
	kind product.AdjustmentType, notes string, actorID *uint, now time.Time) error {
	found := make(map[uint]bool, len(locked))
	adjustments := make([]product.InventoryAdjustment, 0, len(locked))
	for _, p := range locked {
		found[p.ID] = true
		change := sign * quantities[p.ID]
		if err := tx.SetStock(p.ID, p.StockQuantity, p.StockQuantity+change); err != nil {
			return err
		}
		oid := o.ID
		adjustments = append(adjustments, product.InventoryAdjustment{
			ProductID:      p.ID,
			OrderID:        &oid,
			Type:           kind,
			QuantityChange: change,
			OldQuantity:    p.StockQuantity,
			NewQuantity:    p.StockQuantity + change,
			CreatedBy:      actorID,
			Notes:          notes,
			CreatedAt:      now.UTC(),
		})
	}
	for id, qty := range quantities {
		if !found[id] {
			s.logger.WithFields(logrus.Fields{
				"order_id":   o.ID,
				"product_id": id,
				"quantity":   qty,
			}).Warn("Product no longer exists, stock not adjusted")
		}
	}
	return tx.AddAdjustments(adjustments)
}

// RecordPayment moves the payment status after a payment outcome arrives
func (s *Service) RecordPayment(ctx context.Context, event *PaymentEvent) (*Order, error) {
	status, err := ParsePaymentStatus(event.Status)
	if err != nil {
		return nil, err
	}
	if status == PaymentStatusPending {
		return nil, apperror.New(apperror.KindValidation, "payment events must be paid, failed or refunded")
	}

	var updated *Order
	err = s.store.Do(ctx, func(tx Tx) error {
		order, err := tx.LockOrder(event.OrderID)
		if err != nil {
			return err
		}
		if status == PaymentStatusRefunded && order.PaymentStatus != PaymentStatusPaid && order.PaymentStatus != PaymentStatusRefunded {
			return apperror.New(apperror.KindInvalidTransition,
				"cannot refund an order whose payment is %s", order.PaymentStatus)
		}

		oldPayment := order.PaymentStatus
		order.PaymentStatus = status
		if ref := strings.TrimSpace(event.Reference); ref != "" {
			order.PaymentReference = ref
		}
		if err := tx.SaveOrderState(order); err != nil {
			return err
		}

		notes := event.Notes
		if notes == "" {
			notes = fmt.Sprintf("Payment %s", status)
		}
		adminID := event.AdminID
		if err := tx.AppendHistory(&OrderStatusHistory{
			OrderID:          order.ID,
			OldStatus:        order.Status,
			NewStatus:        order.Status,
			OldPaymentStatus: oldPayment,
			NewPaymentStatus: status,
			ChangedBy:        &adminID,
			Notes:            notes,
			CreatedAt:        s.now().UTC(),
		}); err != nil {
			return err
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":       updated.ID,
		"payment_status": updated.PaymentStatus,
	}).Info("Payment recorded")

	return updated, nil
}

// Get retrieves an order visible to identity. Other customers' orders are
// reported as not found.
func (s *Service) Get(ctx context.Context, id uint, identity Identity) (*Order, error) {
	order, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return visibleTo(order, identity)
}

// GetByNumber retrieves an order by its order number
func (s *Service) GetByNumber(ctx context.Context, number string, identity Identity) (*Order, error) {
	order, err := s.store.FindByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		return nil, err
	}
	return visibleTo(order, identity)
}

// List retrieves orders with filtering and pagination. Non-admins only see
// their own orders whatever user filter they pass.
func (s *Service) List(ctx context.Context, req *ListRequest, identity Identity) (*OrderResponse, error) {
	page, limit := pagination.Normalize(req.Page, req.Limit)
	filter := ListFilter{
		SortBy:    req.SortBy,
		SortOrder: strings.ToLower(req.SortOrder),
		Offset:    pagination.Offset(page, limit),
		Limit:     limit,
	}

	if req.Status != "" {
		status, err := ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}
	if req.PaymentStatus != "" {
		status, err := ParsePaymentStatus(req.PaymentStatus)
		if err != nil {
			return nil, err
		}
		filter.PaymentStatus = &status
	}

	switch {
	case !identity.IsAdmin && identity.UserID == nil:
		return nil, apperror.New(apperror.KindValidation, "sign in to list orders")
	case !identity.IsAdmin:
		filter.UserID = identity.UserID
	case req.UserID > 0:
		userID := req.UserID
		filter.UserID = &userID
	}

	var err error
	if filter.From, err = parseDate(req.DateFrom, false); err != nil {
		return nil, err
	}
	if filter.To, err = parseDate(req.DateTo, true); err != nil {
		return nil, err
	}

	orders, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &OrderResponse{
		Orders:     orders,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// History returns the status history of an order, oldest first
func (s *Service) History(ctx context.Context, orderID uint) ([]OrderStatusHistory, error) {
	if _, err := s.store.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.store.History(ctx, orderID)
}

func (s *Service) validateCreate(identity Identity, req *CreateOrderRequest) ([]OrderLine, error) {
	if identity.UserID == nil && identity.SessionID == "" {
		return nil, apperror.New(apperror.KindValidation, "a user or guest session is required")
	}
	if len(req.Lines) == 0 {
		return nil, apperror.New(apperror.KindCartEmpty, "cart is empty")
	}

	// merge duplicate lines, keeping first-seen order
	var lines []OrderLine
	index := make(map[uint]int, len(req.Lines))
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, apperror.New(apperror.KindInvalidQuantity,
				"quantity for product %d must be positive, got %d", line.ProductID, line.Quantity)
		}
		if i, ok := index[line.ProductID]; ok {
			lines[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(lines)
		lines = append(lines, line)
	}

	if strings.TrimSpace(req.ShippingMethod) == "" {
		return nil, apperror.New(apperror.KindValidation, "shipping method is required")
	}
	if !s.acceptsPayment(req.PaymentMethod) {
		return nil, apperror.New(apperror.KindValidation, "unsupported payment method %q", req.PaymentMethod)
	}

	if req.ShippingAddressID == nil && req.ShippingAddress == nil {
		return nil, apperror.New(apperror.KindValidation, "shipping address is required")
	}
	for _, inline := range []*user.CreateAddressRequest{req.ShippingAddress, req.BillingAddress} {
		if inline == nil {
			continue
		}
		if err := inline.Validate(); err != nil {
			return nil, err
		}
	}
	if identity.UserID == nil {
		if req.ShippingAddressID != nil || req.BillingAddressID != nil {
			return nil, apperror.New(apperror.KindAddressNotFound, "guests cannot use saved addresses")
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return nil, apperror.New(apperror.KindValidation, "a valid email is required for guest checkout")
		}
	}
	return lines, nil
}

func (s *Service) acceptsPayment(method string) bool {
	method = strings.ToLower(strings.TrimSpace(method))
	for _, m := range s.checkout.PaymentMethods {
		if strings.ToLower(strings.TrimSpace(m)) == method && method != "" {
			return true
		}
	}
	return false
}

func resolveAddress(tx Tx, identity Identity, id *uint, inline *user.CreateAddressRequest) (Address, error) {
	if id != nil {
		if identity.UserID == nil {
			return Address{}, apperror.New(apperror.KindAddressNotFound, "address %d not found", *id)
		}
		a, err := tx.FindAddress(*identity.UserID, *id)
		if err != nil {
			return Address{}, err
		}
		return AddressFrom(*a), nil
	}
	return AddressFrom(inline.ToAddress(0)), nil
}

func visibleTo(order *Order, identity Identity) (*Order, error) {
	if identity.IsAdmin || order.IsOwnedBy(identity) {
		return order, nil
	}
	return nil, apperror.New(apperror.KindOrderNotFound, "order %d not found", order.ID)
}

func parseDate(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "invalid date %q, expected YYYY-MM-DD or RFC3339", value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
