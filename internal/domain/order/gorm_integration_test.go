package order_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/shipping"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
	"github.com/your-org/storefront-api/internal/pkg/logger"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB connects to TEST_DATABASE_DSN and resets the schema. Tests using
// it are skipped when the variable is unset.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	migration := postgres.NewMigration(db, logger.Discard())
	require.NoError(t, migration.DropAllTables())
	require.NoError(t, migration.RunAutoMigrations())
	require.NoError(t, migration.CreateIndexes())
	t.Cleanup(func() { _ = migration.DropAllTables() })
	return db
}

func TestGormStore_ConcurrentCheckoutsForLastUnit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	u := user.User{Email: "pg@example.com", Password: "x", IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	address := user.Address{UserID: u.ID, Type: "shipping", FirstName: "P", LastName: "G",
		AddressLine1: "1 Main", City: "Springfield", PostalCode: "1", Country: "US"}
	require.NoError(t, db.Create(&address).Error)
	require.NoError(t, db.Create(&shipping.Method{Code: "standard", Name: "Standard", Cost: decimal.NewFromInt(5), IsActive: true}).Error)
	lamp := product.Product{SKU: "LAMP", Name: "Lamp", Slug: "lamp", Price: decimal.NewFromInt(100), StockQuantity: 1, IsActive: true}
	require.NoError(t, db.Create(&lamp).Error)

	svc := order.NewService(order.NewStore(db), checkoutConfig(false), logger.Discard(), nil)
	userID := u.ID
	addressID := address.ID

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateOrder(ctx, order.Identity{UserID: &userID}, &order.CreateOrderRequest{
				Lines:             []order.OrderLine{{ProductID: lamp.ID, Quantity: 1}},
				ShippingAddressID: &addressID,
				ShippingMethod:    "standard",
				PaymentMethod:     "card",
			})
		}(i)
	}
	wg.Wait()

	var succeeded, outOfStock int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperror.ErrInsufficientStock):
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, outOfStock)

	var reloaded product.Product
	require.NoError(t, db.First(&reloaded, lamp.ID).Error)
	assert.Equal(t, 0, reloaded.StockQuantity)

	var orders int64
	require.NoError(t, db.Model(&order.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)

	var history int64
	require.NoError(t, db.Model(&order.OrderStatusHistory{}).Count(&history).Error)
	assert.Equal(t, int64(1), history)
}
