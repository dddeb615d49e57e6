// internal/domain/product/repository.go
package product

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists products and their stock history
type Repository interface {
	FindByID(ctx context.Context, id uint) (*Product, error)
	FindByIDs(ctx context.Context, ids []uint) ([]Product, error)
	List(ctx context.Context, req *ProductListRequest) ([]Product, int64, error)
	AdjustStock(ctx context.Context, adj *InventoryAdjustment) error
	Adjustments(ctx context.Context, productID uint, limit int) ([]InventoryAdjustment, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed product repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindByID(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.New(apperror.KindProductNotFound, "product %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}

func (r *gormRepository) FindByIDs(ctx context.Context, ids []uint) ([]Product, error) {
	var products []Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}
	return products, nil
}

func (r *gormRepository) List(ctx context.Context, req *ProductListRequest) ([]Product, int64, error) {
	var (
		products []Product
		total    int64
	)

	query := r.db.WithContext(ctx).Model(&Product{})

	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(brand) LIKE ?", search, search, search)
	}
	if req.Brand != "" {
		query = query.Where("LOWER(brand) = ?", strings.ToLower(req.Brand))
	}
	if req.MinPrice != nil {
		query = query.Where("COALESCE(sale_price, price) >= ?", *req.MinPrice)
	}
	if req.MaxPrice != nil {
		query = query.Where("COALESCE(sale_price, price) <= ?", *req.MaxPrice)
	}
	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}
	if req.InStock {
		query = query.Where("stock_quantity > 0")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	if err := query.Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return products, total, nil
}

// AdjustStock locks the product, applies adj.QuantityChange and records the
// adjustment. OldQuantity and NewQuantity are filled in.
func (r *gormRepository) AdjustStock(ctx context.Context, adj *InventoryAdjustment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := LockByIDs(tx, []uint{adj.ProductID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return apperror.New(apperror.KindProductNotFound, "product %d not found", adj.ProductID)
		}

		p := locked[0]
		newQty := p.StockQuantity + adj.QuantityChange
		if newQty < 0 {
			return apperror.New(apperror.KindInsufficientStock,
				"product %d has %d in stock, cannot remove %d", p.ID, p.StockQuantity, -adj.QuantityChange)
		}
		if err := CompareAndSetStock(tx, p.ID, p.StockQuantity, newQty); err != nil {
			return err
		}

		adj.OldQuantity = p.StockQuantity
		adj.NewQuantity = newQty
		if err := tx.Create(adj).Error; err != nil {
			return fmt.Errorf("failed to record inventory adjustment: %w", err)
		}
		return nil
	})
}

func (r *gormRepository) Adjustments(ctx context.Context, productID uint, limit int) ([]InventoryAdjustment, error) {
	var adjustments []InventoryAdjustment
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&adjustments).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve inventory adjustments: %w", err)
	}
	return adjustments, nil
}

// LockByIDs selects products FOR UPDATE in ascending id order, so concurrent
// transactions always acquire row locks in the same order. Missing ids are
// simply absent from the result.
func LockByIDs(tx *gorm.DB, ids []uint) ([]Product, error) {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var products []Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	return products, nil
}

// CompareAndSetStock writes newQty only if the row still holds expected
func CompareAndSetStock(tx *gorm.DB, productID uint, expected, newQty int) error {
	result := tx.Unscoped().Model(&Product{}).
		Where("id = ? AND stock_quantity = ?", productID, expected).
		Update("stock_quantity", newQty)
	if result.Error != nil {
		return fmt.Errorf("failed to update stock: %w", result.Error)
	}
	if result.RowsAffected != 1 {
		return apperror.New(apperror.KindInsufficientStock, "stock for product %d changed concurrently", productID)
	}
	return nil
}

// buildOrderClause builds ORDER BY clause for sorting
func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"name":           true,
		"price":          true,
		"created_at":     true,
		"updated_at":     true,
		"stock_quantity": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s, id ASC", sortBy, sortOrder)
}
