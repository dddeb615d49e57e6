// internal/domain/shipping/repository.go
package shipping

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Repository reads shipping methods
type Repository interface {
	FindActiveByCode(ctx context.Context, code string) (*Method, error)
	ListActive(ctx context.Context) ([]Method, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed shipping method repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindActiveByCode(ctx context.Context, code string) (*Method, error) {
	return FindActiveByCode(r.db.WithContext(ctx), code)
}

func (r *gormRepository) ListActive(ctx context.Context) ([]Method, error) {
	var methods []Method
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&methods).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve shipping methods: %w", err)
	}
	return methods, nil
}

// FindActiveByCode loads an active method using db, which may be a
// transaction handle. Unknown and inactive methods are both rejected.
func FindActiveByCode(db *gorm.DB, code string) (*Method, error) {
	var method Method
	err := db.Where("code = ?", NormalizeCode(code)).First(&method).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.New(apperror.KindShippingMethodInactive, "shipping method %q is not available", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve shipping method: %w", err)
	}
	if !method.IsActive {
		return nil, apperror.New(apperror.KindShippingMethodInactive, "shipping method %q is not available", code)
	}
	return &method, nil
}
