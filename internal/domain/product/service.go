// internal/domain/product/service.go
package product

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/pagination"
)

// Service handles catalog reads and manual stock adjustments
type Service struct {
	repo   Repository
	logger *logrus.Logger
}

// NewService creates a new product service
func NewService(repo Repository, logger *logrus.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page      int              `form:"page,default=1"`
	Limit     int              `form:"limit,default=20"`
	Search    string           `form:"search"`
	Brand     string           `form:"brand"`
	SortBy    string           `form:"sort_by,default=created_at"`
	SortOrder string           `form:"sort_order,default=desc"`
	MinPrice  *decimal.Decimal `form:"-"`
	MaxPrice  *decimal.Decimal `form:"-"`
	InStock   bool             `form:"in_stock"`
	IsActive  *bool            `form:"-"`
}

// ProductResponse represents product response with pagination
type ProductResponse struct {
	Products   []Product             `json:"products"`
	Pagination pagination.Pagination `json:"pagination"`
}

// AdjustStockRequest is a manual restock or correction by an admin
type AdjustStockRequest struct {
	QuantityChange int            `json:"quantity_change" binding:"required"`
	Type           AdjustmentType `json:"type" binding:"required,oneof=restock correction"`
	Notes          string         `json:"notes" binding:"max=1000"`
}

// GetProducts retrieves products with filtering and pagination. Storefront
// callers only see active products.
func (s *Service) GetProducts(ctx context.Context, req *ProductListRequest, includeInactive bool) (*ProductResponse, error) {
	req.Page, req.Limit = pagination.Normalize(req.Page, req.Limit)
	if !includeInactive {
		active := true
		req.IsActive = &active
	}

	products, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}

	return &ProductResponse{
		Products:   products,
		Pagination: pagination.New(req.Page, req.Limit, total),
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint, includeInactive bool) (*Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive && !includeInactive {
		return nil, apperror.New(apperror.KindProductNotFound, "product %d not found", id)
	}
	return product, nil
}

// AdjustStock applies a manual stock change and records it
func (s *Service) AdjustStock(ctx context.Context, productID uint, req *AdjustStockRequest, adminID uint) (*InventoryAdjustment, error) {
	if req.QuantityChange == 0 {
		return nil, apperror.New(apperror.KindInvalidQuantity, "quantity change cannot be zero")
	}
	switch req.Type {
	case AdjustmentRestock:
		if req.QuantityChange < 0 {
			return nil, apperror.New(apperror.KindInvalidQuantity, "restock must add stock")
		}
	case AdjustmentCorrection:
	default:
		return nil, apperror.New(apperror.KindValidation, "manual adjustments must be restock or correction")
	}

	adj := &InventoryAdjustment{
		ProductID:      productID,
		Type:           req.Type,
		QuantityChange: req.QuantityChange,
		CreatedBy:      &adminID,
		Notes:          req.Notes,
	}
	if err := s.repo.AdjustStock(ctx, adj); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": productID,
		"type":       adj.Type,
		"change":     adj.QuantityChange,
		"new_stock":  adj.NewQuantity,
		"admin_id":   adminID,
	}).Info("Stock adjusted")

	return adj, nil
}

// GetAdjustments returns the most recent stock changes for a product
func (s *Service) GetAdjustments(ctx context.Context, productID uint, limit int) ([]InventoryAdjustment, error) {
	_, limit = pagination.Normalize(1, limit)
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.Adjustments(ctx, productID, limit)
}
