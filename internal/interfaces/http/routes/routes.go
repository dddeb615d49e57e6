// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-api/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-api/internal/pkg/auth"
)

// Handlers groups every HTTP handler the API exposes
type Handlers struct {
	Auth     *handlers.AuthHandler
	Product  *handlers.ProductHandler
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Order    *handlers.OrderHandler
	Invoice  *handlers.InvoiceHandler
	Address  *handlers.UserAddressHandler
	Promo    *handlers.PromoHandler
}

// Options controls authentication and guest sessions
type Options struct {
	Tokens        *auth.JWTManager
	SecureCookies bool
}

// SetupRoutes registers all API v1 routes
func SetupRoutes(rg *gin.RouterGroup, h *Handlers, opts Options) {
	SetupAuthRoutes(rg, h, opts)
	SetupUserRoutes(rg, h, opts)
	SetupProductRoutes(rg, h, opts)
	SetupShopRoutes(rg, h, opts)
	SetupAdminRoutes(rg, h, opts)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, h *Handlers, opts Options) {
	authGroup := rg.Group("/auth")
	{
		// The session cookie lets login pick up the guest cart
		authGroup.POST("/login", middleware.GuestSession(opts.SecureCookies), h.Auth.Login)

		protected := authGroup.Group("")
		protected.Use(middleware.AuthMiddleware(opts.Tokens))
		{
			protected.GET("/profile", h.Auth.GetProfile)
		}
	}
}

// SetupUserRoutes sets up user related routes
func SetupUserRoutes(rg *gin.RouterGroup, h *Handlers, opts Options) {
	users := rg.Group("/users")
	users.Use(middleware.AuthMiddleware(opts.Tokens))
	{
		users.GET("/addresses", h.Address.GetAddresses)
		users.POST("/addresses", h.Address.CreateAddress)
		users.GET("/addresses/:id", h.Address.GetAddress)
	}
}

// SetupProductRoutes sets up catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, h *Handlers, opts Options) {
	products := rg.Group("/products")
	{
		products.GET("", h.Product.GetProducts)
		products.GET("/:id", h.Product.GetProduct)
	}

	rg.GET("/shipping-methods", h.Product.GetShippingMethods)
}

// SetupShopRoutes sets up cart, checkout and order routes. They work for
// guests through the session cookie and for signed-in users.
func SetupShopRoutes(rg *gin.RouterGroup, h *Handlers, opts Options) {
	shopper := []gin.HandlerFunc{
		middleware.GuestSession(opts.SecureCookies),
		middleware.OptionalAuthMiddleware(opts.Tokens),
	}

	cart := rg.Group("/cart")
	cart.Use(shopper...)
	{
		cart.GET("", h.Cart.GetCart)
		cart.DELETE("", h.Cart.ClearCart)
		cart.POST("/items", h.Cart.AddToCart)
		cart.PUT("/items/:productId", h.Cart.UpdateCartItem)
		cart.DELETE("/items/:productId", h.Cart.RemoveFromCart)
		cart.POST("/promo", h.Cart.ApplyPromo)
		cart.DELETE("/promo", h.Cart.RemovePromo)
	}

	checkout := rg.Group("/checkout")
	checkout.Use(shopper...)
	{
		checkout.POST("", h.Checkout.PlaceOrder)
		checkout.POST("/review", h.Checkout.Review)
	}

	orders := rg.Group("/orders")
	orders.Use(shopper...)
	{
		orders.GET("", h.Order.GetOrders)
		orders.GET("/number/:number", h.Order.GetOrderByNumber)
		orders.GET("/:id", h.Order.GetOrder)
		orders.POST("/:id/cancel", h.Order.CancelOrder)
		orders.GET("/:id/invoice", h.Invoice.GenerateInvoice)
		orders.GET("/:id/invoice/data", h.Invoice.GetInvoiceData)
	}
}

// SetupAdminRoutes sets up admin related routes
func SetupAdminRoutes(rg *gin.RouterGroup, h *Handlers, opts Options) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(opts.Tokens))
	admin.Use(middleware.AdminMiddleware())
	{
		products := admin.Group("/products")
		{
			products.GET("", h.Product.AdminGetProducts)
			products.GET("/:id/stock", h.Product.AdminGetStockHistory)
			products.POST("/:id/stock", h.Product.AdminAdjustStock)
		}

		orders := admin.Group("/orders")
		{
			orders.GET("", h.Order.AdminGetOrders)
			orders.GET("/:id", h.Order.AdminGetOrder)
			orders.GET("/:id/history", h.Order.AdminGetOrderHistory)
			orders.PUT("/:id/status", h.Order.AdminUpdateOrderStatus)
			orders.POST("/:id/payments", h.Order.AdminRecordPayment)
		}

		promos := admin.Group("/promos")
		{
			promos.GET("", h.Promo.AdminGetPromos)
			promos.POST("", h.Promo.AdminCreatePromo)
			promos.GET("/:id", h.Promo.AdminGetPromo)
			promos.PATCH("/:id", h.Promo.AdminUpdatePromo)
		}
	}
}
