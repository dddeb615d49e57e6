// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/domain/pricing"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/promo"
	"github.com/your-org/storefront-api/internal/domain/shipping"
	"github.com/your-org/storefront-api/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log *logrus.Logger) *Migration {
	return &Migration{db: db, log: log}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		// User domain
		&user.User{},
		&user.Address{},

		// Catalog
		&product.Product{},
		&product.InventoryAdjustment{},
		&shipping.Method{},
		&promo.PromoCode{},

		// Cart domain
		&cart.CartItem{},

		// Order domain
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("Running database auto-migrations")

	for _, model := range Models() {
		m.log.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes and constraints
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_active_created ON products(is_active, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",

		// Stock can never go negative
		`DO $$ BEGIN
			ALTER TABLE products ADD CONSTRAINT chk_products_stock_non_negative CHECK (stock_quantity >= 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,

		// Promo usage stays within its limit
		`DO $$ BEGIN
			ALTER TABLE promo_codes ADD CONSTRAINT chk_promo_usage_within_limit CHECK (usage_limit IS NULL OR usage_count <= usage_limit);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,

		// Inventory adjustment indexes
		"CREATE INDEX IF NOT EXISTS idx_inventory_adjustments_product_created ON inventory_adjustments(product_id, created_at DESC)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_created_at ON cart_items(created_at DESC)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_email ON orders(email)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		// Order status history indexes
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at)",

		// Address indexes
		"CREATE INDEX IF NOT EXISTS idx_addresses_user_type ON addresses(user_id, type)",
		"CREATE INDEX IF NOT EXISTS idx_addresses_user_default ON addresses(user_id, is_default)",
	}

	failed := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).Warn("Failed to create index")
			failed++
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("Additional indexes created")

	if failed > 0 {
		return fmt.Errorf("%d of %d indexes failed", failed, len(indexes))
	}
	return nil
}

// SeedInitialData inserts development data. Existing rows are left alone.
func (m *Migration) SeedInitialData(bcryptCost int) error {
	m.log.Info("Seeding initial data")

	if err := m.seedUser("admin@example.com", "Admin123!", "Admin", "User", true, bcryptCost); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := m.seedUser("customer@example.com", "Customer123!", "Test", "Customer", false, bcryptCost); err != nil {
		return fmt.Errorf("failed to seed test user: %w", err)
	}
	if err := m.seedShippingMethods(); err != nil {
		return fmt.Errorf("failed to seed shipping methods: %w", err)
	}
	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if err := m.seedPromoCodes(); err != nil {
		return fmt.Errorf("failed to seed promo codes: %w", err)
	}

	m.log.Info("Initial data seeded")
	return nil
}

func (m *Migration) seedUser(email, password, firstName, lastName string, isAdmin bool, cost int) error {
	var existing user.User
	err := m.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		m.log.WithField("email", email).Debug("User already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u := user.User{
		Email:     email,
		Password:  string(hashedPassword),
		FirstName: firstName,
		LastName:  lastName,
		IsActive:  true,
		IsAdmin:   isAdmin,
	}
	if err := m.db.Create(&u).Error; err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{"email": email, "id": u.ID, "admin": isAdmin}).Info("Created user")
	return nil
}

func (m *Migration) seedShippingMethods() error {
	for _, method := range shipping.DefaultMethods() {
		method := method
		if err := m.db.Where("code = ?", method.Code).FirstOrCreate(&method).Error; err != nil {
			return err
		}
	}
	return nil
}

func (m *Migration) seedProducts() error {
	products := []product.Product{
		{
			SKU:           "MUG-001",
			Name:          "Stoneware Coffee Mug",
			Slug:          "stoneware-coffee-mug",
			Brand:         "Hearth",
			Description:   "Hand-glazed 350ml stoneware mug.",
			ImageURL:      "https://cdn.example.com/products/mug-001.jpg",
			Price:         decimal.RequireFromString("14.50"),
			StockQuantity: 120,
			IsActive:      true,
		},
		{
			SKU:           "TEE-001",
			Name:          "Organic Cotton T-Shirt",
			Slug:          "organic-cotton-t-shirt",
			Brand:         "Fieldwear",
			Description:   "Heavyweight organic cotton tee.",
			ImageURL:      "https://cdn.example.com/products/tee-001.jpg",
			Price:         decimal.RequireFromString("32.00"),
			SalePrice:     decimal.NewNullDecimal(decimal.RequireFromString("24.00")),
			StockQuantity: 40,
			IsActive:      true,
		},
		{
			SKU:           "LAMP-001",
			Name:          "Brass Desk Lamp",
			Slug:          "brass-desk-lamp",
			Brand:         "Lumen & Co",
			Description:   "Adjustable brass lamp with linen shade.",
			ImageURL:      "https://cdn.example.com/products/lamp-001.jpg",
			Price:         decimal.RequireFromString("129.99"),
			StockQuantity: 1,
			IsActive:      true,
		},
	}

	for _, p := range products {
		p := p
		if err := m.db.Where("sku = ?", p.SKU).FirstOrCreate(&p).Error; err != nil {
			return err
		}
	}
	return nil
}

func (m *Migration) seedPromoCodes() error {
	limit := 100
	expires := time.Now().UTC().AddDate(1, 0, 0)
	promos := []promo.PromoCode{
		{
			Code:                  "WELCOME10",
			Description:           "10% off your first order, up to 25.00",
			DiscountType:          pricing.DiscountPercentage,
			DiscountValue:         decimal.NewFromInt(10),
			MaximumDiscountAmount: decimal.NewNullDecimal(decimal.NewFromInt(25)),
			UsageLimit:            &limit,
			ExpiresAt:             &expires,
			IsActive:              true,
		},
		{
			Code:               "SAVE5",
			Description:        "5.00 off orders over 50.00",
			DiscountType:       pricing.DiscountFixed,
			DiscountValue:      decimal.NewFromInt(5),
			MinimumOrderAmount: decimal.NewNullDecimal(decimal.NewFromInt(50)),
			IsActive:           true,
		},
		{
			Code:          "FREESHIP",
			Description:   "Free shipping",
			DiscountType:  pricing.DiscountShipping,
			DiscountValue: decimal.Zero,
			IsActive:      true,
		},
	}

	for _, p := range promos {
		p := p
		if err := m.db.Where("code = ?", p.Code).FirstOrCreate(&p).Error; err != nil {
			return err
		}
	}
	return nil
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := m.db.Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", models[i], err)
		}
	}
	return nil
}
