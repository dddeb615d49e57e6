// internal/domain/promo/service.go
package promo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-api/internal/domain/pricing"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/pagination"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,50}$`)

// Service handles promo code business logic
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new promo service
func NewService(repo Repository, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{repo: repo, now: clock}
}

// CreatePromoRequest represents promo creation data
type CreatePromoRequest struct {
	Code                  string               `json:"code" binding:"required"`
	Description           string               `json:"description" binding:"max=255"`
	DiscountType          pricing.DiscountType `json:"discount_type" binding:"required,oneof=percentage fixed shipping"`
	DiscountValue         decimal.Decimal      `json:"discount_value"`
	MinimumOrderAmount    *decimal.Decimal     `json:"minimum_order_amount"`
	MaximumDiscountAmount *decimal.Decimal     `json:"maximum_discount_amount"`
	UsageLimit            *int                 `json:"usage_limit"`
	StartsAt              *time.Time           `json:"starts_at"`
	ExpiresAt             *time.Time           `json:"expires_at"`
	IsActive              *bool                `json:"is_active"`
}

// UpdatePromoRequest represents a partial promo update
type UpdatePromoRequest struct {
	Description *string    `json:"description" binding:"omitempty,max=255"`
	UsageLimit  *int       `json:"usage_limit"`
	StartsAt    *time.Time `json:"starts_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsActive    *bool      `json:"is_active"`
}

// PromoListResponse represents promo codes with pagination
type PromoListResponse struct {
	Promos     []PromoCode           `json:"promos"`
	Pagination pagination.Pagination `json:"pagination"`
}

// Lookup finds a promo by code and checks it against a subtotal.
// An unknown code is reported as ineligible.
func (s *Service) Lookup(ctx context.Context, code string, subtotal decimal.Decimal) (*PromoCode, error) {
	p, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperror.ErrPromoNotFound) {
			return nil, apperror.New(apperror.KindPromoIneligible, "promo code %s is not valid", NormalizeCode(code))
		}
		return nil, err
	}
	if err := p.Validate(subtotal, s.now()); err != nil {
		return nil, err
	}
	return p, nil
}

// Create creates a new promo code
func (s *Service) Create(ctx context.Context, req *CreatePromoRequest) (*PromoCode, error) {
	code := NormalizeCode(req.Code)
	if !codePattern.MatchString(code) {
		return nil, apperror.New(apperror.KindValidation, "code must be 3-50 characters of A-Z, 0-9, '-' or '_'")
	}
	if err := validateDiscount(req.DiscountType, req.DiscountValue, req.MaximumDiscountAmount); err != nil {
		return nil, err
	}
	if req.MinimumOrderAmount != nil && req.MinimumOrderAmount.IsNegative() {
		return nil, apperror.New(apperror.KindValidation, "minimum order amount cannot be negative")
	}
	if err := validateWindow(req.UsageLimit, req.StartsAt, req.ExpiresAt); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByCode(ctx, code); err == nil {
		return nil, apperror.New(apperror.KindConflict, "promo code %s already exists", code)
	} else if !errors.Is(err, apperror.ErrPromoNotFound) {
		return nil, err
	}

	p := &PromoCode{
		Code:          code,
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		UsageLimit:    req.UsageLimit,
		StartsAt:      req.StartsAt,
		ExpiresAt:     req.ExpiresAt,
		IsActive:      true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.MinimumOrderAmount != nil {
		p.MinimumOrderAmount = decimal.NewNullDecimal(*req.MinimumOrderAmount)
	}
	if req.MaximumDiscountAmount != nil {
		p.MaximumDiscountAmount = decimal.NewNullDecimal(*req.MaximumDiscountAmount)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies a partial update to a promo code. The usage limit is checked
// against the usage count of the locked row, so a concurrent checkout is
// never lost.
func (s *Service) Update(ctx context.Context, id uint, req *UpdatePromoRequest) (*PromoCode, error) {
	return s.repo.Update(ctx, id, func(p *PromoCode) error {
		usageLimit, startsAt, expiresAt := p.UsageLimit, p.StartsAt, p.ExpiresAt
		if req.UsageLimit != nil {
			usageLimit = req.UsageLimit
		}
		if req.StartsAt != nil {
			startsAt = req.StartsAt
		}
		if req.ExpiresAt != nil {
			expiresAt = req.ExpiresAt
		}
		if err := validateWindow(usageLimit, startsAt, expiresAt); err != nil {
			return err
		}
		if usageLimit != nil && *usageLimit < p.UsageCount {
			return apperror.New(apperror.KindValidation,
				"usage limit %d is below the current usage count %d", *usageLimit, p.UsageCount)
		}

		p.UsageLimit, p.StartsAt, p.ExpiresAt = usageLimit, startsAt, expiresAt
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.IsActive != nil {
			p.IsActive = *req.IsActive
		}
		return nil
	})
}

// Get retrieves a promo code by ID
func (s *Service) Get(ctx context.Context, id uint) (*PromoCode, error) {
	return s.repo.FindByID(ctx, id)
}

// List retrieves promo codes with pagination
func (s *Service) List(ctx context.Context, page, limit int) (*PromoListResponse, error) {
	page, limit = pagination.Normalize(page, limit)
	promos, total, err := s.repo.List(ctx, pagination.Offset(page, limit), limit)
	if err != nil {
		return nil, err
	}
	return &PromoListResponse{
		Promos:     promos,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

func validateDiscount(t pricing.DiscountType, value decimal.Decimal, maxAmount *decimal.Decimal) error {
	if !t.Valid() {
		return apperror.New(apperror.KindValidation, "unknown discount type %q", t)
	}
	if value.IsNegative() {
		return apperror.New(apperror.KindValidation, "discount value cannot be negative")
	}
	if t != pricing.DiscountShipping && !value.IsPositive() {
		return apperror.New(apperror.KindValidation, "discount value must be positive")
	}
	if t == pricing.DiscountPercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.New(apperror.KindValidation, "percentage discount cannot exceed 100")
	}
	if maxAmount != nil && !maxAmount.IsPositive() {
		return apperror.New(apperror.KindValidation, "maximum discount amount must be positive")
	}
	return nil
}

func validateWindow(usageLimit *int, startsAt, expiresAt *time.Time) error {
	if usageLimit != nil && *usageLimit <= 0 {
		return apperror.New(apperror.KindValidation, "usage limit must be positive")
	}
	if startsAt != nil && expiresAt != nil && !expiresAt.After(*startsAt) {
		return apperror.New(apperror.KindValidation, "expires_at must be after starts_at")
	}
	return nil
}
