// internal/domain/promo/repository.go
package promo

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists promo codes
type Repository interface {
	FindByCode(ctx context.Context, code string) (*PromoCode, error)
	FindByID(ctx context.Context, id uint) (*PromoCode, error)
	Create(ctx context.Context, p *PromoCode) error
	// Update locks the promo row, lets apply edit it and writes back the
	// editable columns. Nothing is written when apply fails.
	Update(ctx context.Context, id uint, apply func(p *PromoCode) error) (*PromoCode, error)
	List(ctx context.Context, offset, limit int) ([]PromoCode, int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed promo repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindByCode(ctx context.Context, code string) (*PromoCode, error) {
	var p PromoCode
	err := r.db.WithContext(ctx).Where("code = ?", NormalizeCode(code)).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.New(apperror.KindPromoNotFound, "promo code %s not found", NormalizeCode(code))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve promo code: %w", err)
	}
	return &p, nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uint) (*PromoCode, error) {
	var p PromoCode
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.New(apperror.KindPromoNotFound, "promo code %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve promo code: %w", err)
	}
	return &p, nil
}

func (r *gormRepository) Create(ctx context.Context, p *PromoCode) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create promo code: %w", err)
	}
	return nil
}

// editableColumns are the columns an admin update may write. usage_count is
// left to checkout.
var editableColumns = []string{"description", "usage_limit", "starts_at", "expires_at", "is_active", "updated_at"}

func (r *gormRepository) Update(ctx context.Context, id uint, apply func(p *PromoCode) error) (*PromoCode, error) {
	var p PromoCode
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.KindPromoNotFound, "promo code %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("failed to lock promo code: %w", err)
		}

		if err := apply(&p); err != nil {
			return err
		}
		if err := tx.Model(&p).Select(editableColumns).Updates(&p).Error; err != nil {
			return fmt.Errorf("failed to update promo code: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) List(ctx context.Context, offset, limit int) ([]PromoCode, int64, error) {
	var (
		promos []PromoCode
		total  int64
	)
	query := r.db.WithContext(ctx).Model(&PromoCode{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count promo codes: %w", err)
	}
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&promos).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve promo codes: %w", err)
	}
	return promos, total, nil
}
