// internal/domain/user/address_service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"gorm.io/gorm"
)

var countryPattern = regexp.MustCompile(`^[A-Z]{2}$`)

// AddressRepository persists user addresses
type AddressRepository interface {
	ListByUser(ctx context.Context, userID uint, addressType string) ([]Address, error)
	FindForUser(ctx context.Context, userID, addressID uint) (*Address, error)
	Create(ctx context.Context, address *Address) error
}

// AddressService handles address business logic
type AddressService struct {
	repo AddressRepository
}

// NewAddressService creates a new address service
func NewAddressService(repo AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

// CreateAddressRequest represents address creation data. Guest checkouts send
// the same shape inline.
type CreateAddressRequest struct {
	Type         string `json:"type" binding:"omitempty,oneof=shipping billing"`
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name" binding:"required"`
	Company      string `json:"company"`
	AddressLine1 string `json:"address_line1" binding:"required"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code" binding:"required"`
	Country      string `json:"country" binding:"required,len=2"` // ISO 2-letter code
	Phone        string `json:"phone"`
	IsDefault    bool   `json:"is_default"`
}

// Validate checks address completeness
func (r *CreateAddressRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return apperror.New(apperror.KindValidation, "first and last name are required")
	}
	if strings.TrimSpace(r.AddressLine1) == "" {
		return apperror.New(apperror.KindValidation, "address line 1 is required")
	}
	if strings.TrimSpace(r.City) == "" {
		return apperror.New(apperror.KindValidation, "city is required")
	}
	if strings.TrimSpace(r.PostalCode) == "" {
		return apperror.New(apperror.KindValidation, "postal code is required")
	}
	if !countryPattern.MatchString(strings.ToUpper(r.Country)) {
		return apperror.New(apperror.KindValidation, "invalid country code: %s", r.Country)
	}
	if r.Type != "" && r.Type != "shipping" && r.Type != "billing" {
		return apperror.New(apperror.KindValidation, "address type must be shipping or billing")
	}
	return nil
}

// ToAddress builds an unsaved address from the request
func (r *CreateAddressRequest) ToAddress(userID uint) Address {
	addressType := r.Type
	if addressType == "" {
		addressType = "shipping"
	}
	return Address{
		UserID:       userID,
		Type:         addressType,
		FirstName:    strings.TrimSpace(r.FirstName),
		LastName:     strings.TrimSpace(r.LastName),
		Company:      r.Company,
		AddressLine1: strings.TrimSpace(r.AddressLine1),
		AddressLine2: r.AddressLine2,
		City:         strings.TrimSpace(r.City),
		State:        r.State,
		PostalCode:   strings.TrimSpace(r.PostalCode),
		Country:      strings.ToUpper(r.Country),
		Phone:        r.Phone,
		IsDefault:    r.IsDefault,
	}
}

// GetUserAddresses retrieves all addresses for a user
func (s *AddressService) GetUserAddresses(ctx context.Context, userID uint, addressType string) ([]Address, error) {
	if addressType != "" && addressType != "shipping" && addressType != "billing" {
		return nil, apperror.New(apperror.KindValidation, "address type must be shipping or billing")
	}
	return s.repo.ListByUser(ctx, userID, addressType)
}

// GetAddress retrieves a specific address for a user
func (s *AddressService) GetAddress(ctx context.Context, userID, addressID uint) (*Address, error) {
	return s.repo.FindForUser(ctx, userID, addressID)
}

// CreateAddress creates a new address for a user
func (s *AddressService) CreateAddress(ctx context.Context, userID uint, req *CreateAddressRequest) (*Address, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	address := req.ToAddress(userID)
	if err := s.repo.Create(ctx, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

type gormAddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository creates a gorm-backed address repository
func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &gormAddressRepository{db: db}
}

func (r *gormAddressRepository) ListByUser(ctx context.Context, userID uint, addressType string) ([]Address, error) {
	var addresses []Address

	query := r.db.WithContext(ctx).Where("user_id = ?", userID)

	// Filter by type if specified
	if addressType != "" {
		query = query.Where("type = ?", addressType)
	}

	// Order by default first, then by creation date
	if err := query.Order("is_default DESC, created_at DESC").Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve addresses: %w", err)
	}

	return addresses, nil
}

func (r *gormAddressRepository) FindForUser(ctx context.Context, userID, addressID uint) (*Address, error) {
	return FindAddress(r.db.WithContext(ctx), userID, addressID)
}

func (r *gormAddressRepository) Create(ctx context.Context, address *Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// If this is set as default, unset other defaults of the same type
		if address.IsDefault {
			if err := tx.Model(&Address{}).
				Where("user_id = ? AND type = ? AND is_default = ?", address.UserID, address.Type, true).
				Update("is_default", false).Error; err != nil {
				return fmt.Errorf("failed to reset default address: %w", err)
			}
		}
		if err := tx.Create(address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
}

// FindAddress loads an address owned by userID using db, which may be a
// transaction handle
func FindAddress(db *gorm.DB, userID, addressID uint) (*Address, error) {
	var address Address
	err := db.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.New(apperror.KindAddressNotFound, "address %d not found", addressID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve address: %w", err)
	}
	return &address, nil
}
