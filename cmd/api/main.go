// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/checkout"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/promo"
	"github.com/your-org/storefront-api/internal/domain/shipping"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-api/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-api/internal/interfaces/http"
	"github.com/your-org/storefront-api/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-api/internal/interfaces/http/routes"
	"github.com/your-org/storefront-api/internal/pkg/auth"
	"github.com/your-org/storefront-api/internal/pkg/logger"
	"github.com/your-org/storefront-api/internal/pkg/pdf"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg.Logging)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting service")

	// Connect to database
	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	ctx := context.Background()
	if err := db.Health(ctx); err != nil {
		log.WithError(err).Fatal("Database health check failed")
	}
	if err := redisClient.Health(ctx); err != nil {
		log.WithError(err).Fatal("Redis health check failed")
	}

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB(), log)
	if err := migration.RunAutoMigrations(); err != nil {
		log.WithError(err).Fatal("Database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("Index creation failed")
	}

	// Seed initial data in development
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(cfg.Security.BcryptCost); err != nil {
			log.WithError(err).Warn("Data seeding failed")
		}
	}

	server := http.NewServer(cfg, buildDependencies(cfg, db, redisClient, log), log)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}

func buildDependencies(cfg *config.Config, db *postgres.Database, redisClient *redis.Client, log *logrus.Logger) http.Dependencies {
	gormDB := db.GetDB()
	client := redisClient.GetClient()

	tokens := auth.NewJWTManager(cfg)
	passwords := auth.NewPasswordManager(cfg.Security.BcryptCost)

	// Repositories
	products := product.NewRepository(gormDB)
	promos := promo.NewRepository(gormDB)
	methods := shipping.NewRepository(gormDB)
	users := user.NewRepository(gormDB)
	addresses := user.NewAddressRepository(gormDB)

	// Services
	productService := product.NewService(products, log)
	promoService := promo.NewService(promos, nil)
	userService := user.NewService(users, passwords, tokens)
	addressService := user.NewAddressService(addresses)
	cartService := cart.NewService(
		cart.NewGormStore(gormDB),
		cart.NewRedisStore(client, cfg.Checkout.GuestCartTTL),
		cart.NewRedisPromoStore(client, cfg.Checkout.AppliedPromoTTL),
		products, promoService, log,
	)
	orderService := order.NewService(order.NewStore(gormDB), cfg.Checkout, log, nil)
	checkoutService := checkout.NewService(cartService, addressService, methods, promoService, orderService, cfg.Checkout, log)
	invoices := pdf.NewService(cfg.App, nil)

	return http.Dependencies{
		Handlers: &routes.Handlers{
			Auth:     handlers.NewAuthHandler(userService, cartService, log),
			Product:  handlers.NewProductHandler(productService, methods, log),
			Cart:     handlers.NewCartHandler(cartService, log),
			Checkout: handlers.NewCheckoutHandler(checkoutService, log),
			Order:    handlers.NewOrderHandler(orderService, log),
			Invoice:  handlers.NewInvoiceHandler(orderService, invoices, log),
			Address:  handlers.NewUserAddressHandler(addressService, log),
			Promo:    handlers.NewPromoHandler(promoService, log),
		},
		Tokens: tokens,
		Redis:  client,
		Checks: map[string]http.HealthChecker{
			"database": db,
			"redis":    redisClient,
		},
	}
}
