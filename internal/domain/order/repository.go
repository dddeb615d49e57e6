// internal/domain/order/repository.go
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/promo"
	"github.com/your-org/storefront-api/internal/domain/shipping"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a gorm-backed order store
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Do(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

func (s *gormStore) FindByID(ctx context.Context, id uint) (*Order, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *gormStore) FindByNumber(ctx context.Context, number string) (*Order, error) {
	return s.findOne(ctx, "order_number = ?", number)
}

func (s *gormStore) findOne(ctx context.Context, query string, arg interface{}) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where(query, arg).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.New(apperror.KindOrderNotFound, "order %v not found", arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

func (s *gormStore) List(ctx context.Context, f ListFilter) ([]Order, int64, error) {
	var (
		orders []Order
		total  int64
	)

	query := s.db.WithContext(ctx).Model(&Order{})

	// Apply filters
	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}
	if f.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *f.PaymentStatus)
	}
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	if f.From != nil {
		query = query.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("created_at <= ?", *f.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	if err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Order(buildOrderClause(f.SortBy, f.SortOrder)).
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return orders, total, nil
}

func (s *gormStore) History(ctx context.Context, orderID uint) ([]OrderStatusHistory, error) {
	var history []OrderStatusHistory
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve order history: %w", err)
	}
	return history, nil
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) FindUser(userID uint) (*user.User, error) {
	var u user.User
	err := t.db.Select("id", "email", "first_name", "last_name").First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.New(apperror.KindValidation, "user %d not found", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user email: %w", err)
	}
	return &u, nil
}

func (t *gormTx) FindAddress(userID, addressID uint) (*user.Address, error) {
	return user.FindAddress(t.db, userID, addressID)
}

func (t *gormTx) FindShippingMethod(code string) (*shipping.Method, error) {
	return shipping.FindActiveByCode(t.db, code)
}

func (t *gormTx) LockProducts(ids []uint) ([]product.Product, error) {
	return product.LockByIDs(t.db, ids)
}

func (t *gormTx) LockProductsUnscoped(ids []uint) ([]product.Product, error) {
	return product.LockByIDs(t.db.Unscoped(), ids)
}

func (t *gormTx) SetStock(productID uint, expected, newQty int) error {
	return product.CompareAndSetStock(t.db, productID, expected, newQty)
}

func (t *gormTx) AddAdjustments(adjustments []product.InventoryAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}
	if err := t.db.Create(&adjustments).Error; err != nil {
		return fmt.Errorf("failed to record inventory adjustments: %w", err)
	}
	return nil
}

func (t *gormTx) LockPromo(code string) (*promo.PromoCode, error) {
	var p promo.PromoCode
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", promo.NormalizeCode(code)).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.New(apperror.KindPromoNotFound, "promo code %s not found", promo.NormalizeCode(code))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock promo code: %w", err)
	}
	return &p, nil
}

func (t *gormTx) IncrementPromoUsage(promoID uint) error {
	result := t.db.Model(&promo.PromoCode{}).
		Where("id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", promoID).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment promo usage: %w", result.Error)
	}
	if result.RowsAffected != 1 {
		return apperror.New(apperror.KindPromoIneligible, "promo code has reached its usage limit")
	}
	return nil
}

func (t *gormTx) CreateOrder(o *Order) error {
	if err := t.db.Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (t *gormTx) LockOrder(orderID uint) (*Order, error) {
	var order Order
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.New(apperror.KindOrderNotFound, "order %d not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if err := t.db.Where("order_id = ?", orderID).Order("id ASC").Find(&order.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return &order, nil
}

func (t *gormTx) SaveOrderState(o *Order) error {
	updates := map[string]interface{}{
		"status":            o.Status,
		"payment_status":    o.PaymentStatus,
		"payment_reference": o.PaymentReference,
		"tracking_number":   o.TrackingNumber,
		"shipping_carrier":  o.ShippingCarrier,
		"processed_at":      o.ProcessedAt,
		"shipped_at":        o.ShippedAt,
		"delivered_at":      o.DeliveredAt,
		"cancelled_at":      o.CancelledAt,
	}
	if err := t.db.Model(&Order{}).Where("id = ?", o.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

func (t *gormTx) AppendHistory(h *OrderStatusHistory) error {
	if err := t.db.Create(h).Error; err != nil {
		return fmt.Errorf("failed to create status history: %w", err)
	}
	return nil
}

func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"total_amount": true,
		"status":       true,
		"order_number": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s, id DESC", sortBy, sortOrder)
}
