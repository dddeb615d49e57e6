package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/auth"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type stubUsers struct {
	users map[string]*User
}

func (s *stubUsers) FindByID(_ context.Context, id uint) (*User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperror.New(apperror.KindValidation, "user %d not found", id)
}

func (s *stubUsers) FindActiveByEmail(_ context.Context, email string) (*User, error) {
	if u, ok := s.users[email]; ok && u.IsActive {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubAddresses struct {
	byID    map[uint]Address
	created []Address
}

func (s *stubAddresses) ListByUser(_ context.Context, userID uint, addressType string) ([]Address, error) {
	var out []Address
	for _, a := range s.byID {
		if a.UserID == userID && (addressType == "" || a.Type == addressType) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubAddresses) FindForUser(_ context.Context, userID, addressID uint) (*Address, error) {
	if a, ok := s.byID[addressID]; ok && a.UserID == userID {
		return &a, nil
	}
	return nil, apperror.New(apperror.KindAddressNotFound, "address %d not found", addressID)
}

func (s *stubAddresses) Create(_ context.Context, a *Address) error {
	a.ID = uint(len(s.byID) + 1)
	s.byID[a.ID] = *a
	s.created = append(s.created, *a)
	return nil
}

func newUserService(t *testing.T) *Service {
	t.Helper()
	passwords := auth.NewPasswordManager(bcrypt.MinCost)
	hash, err := passwords.HashPassword("Customer1")
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Name: "test"},
		JWT: config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", AccessTokenExpiry: time.Hour},
	}
	repo := &stubUsers{users: map[string]*User{
		"ada@example.com":  {ID: 1, Email: "ada@example.com", Password: hash, IsActive: true},
		"gone@example.com": {ID: 2, Email: "gone@example.com", Password: hash, IsActive: false},
	}}
	return NewService(repo, passwords, auth.NewJWTManager(cfg))
}

func TestLogin(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "Customer1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, uint(1), resp.User.ID)

	_, err = svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = svc.Login(ctx, &LoginRequest{Email: "gone@example.com", Password: "Customer1"})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestAddressService_Ownership(t *testing.T) {
	repo := &stubAddresses{byID: map[uint]Address{
		5: {ID: 5, UserID: 1, Type: "shipping", City: "Austin"},
	}}
	svc := NewAddressService(repo)
	ctx := context.Background()

	a, err := svc.GetAddress(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, "Austin", a.City)

	_, err = svc.GetAddress(ctx, 2, 5)
	assert.True(t, errors.Is(err, apperror.ErrAddressNotFound))
}

func TestAddressService_Create(t *testing.T) {
	repo := &stubAddresses{byID: map[uint]Address{}}
	svc := NewAddressService(repo)

	a, err := svc.CreateAddress(context.Background(), 3, &CreateAddressRequest{
		FirstName: "Ada", LastName: "Lovelace", AddressLine1: "1 Main St",
		City: "Austin", PostalCode: "78701", Country: "us",
	})
	require.NoError(t, err)
	assert.Equal(t, "US", a.Country)
	assert.Equal(t, "shipping", a.Type)
	assert.Equal(t, uint(3), a.UserID)

	_, err = svc.CreateAddress(context.Background(), 3, &CreateAddressRequest{
		FirstName: "Ada", LastName: "Lovelace", AddressLine1: "1 Main St",
		City: "Austin", PostalCode: "78701", Country: "USA",
	})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Len(t, repo.created, 1)
}
