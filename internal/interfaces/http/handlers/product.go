// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/shipping"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
)

// ProductHandler handles catalog and stock endpoints
type ProductHandler struct {
	productService *product.Service
	shipping       shipping.Repository
	logger         *logrus.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *product.Service, methods shipping.Repository, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		shipping:       methods,
		logger:         logger,
	}
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	h.listProducts(c, false)
}

// AdminGetProducts handles GET /admin/products, including inactive products
func (h *ProductHandler) AdminGetProducts(c *gin.Context) {
	h.listProducts(c, true)
}

func (h *ProductHandler) listProducts(c *gin.Context, includeInactive bool) {
	var req product.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var err error
	if req.MinPrice, err = decimalQuery(c, "min_price"); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if req.MaxPrice, err = decimalQuery(c, "max_price"); err != nil {
		respondError(c, h.logger, err)
		return
	}

	response, err := h.productService.GetProducts(c.Request.Context(), &req, includeInactive)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Products retrieved successfully", response)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.productService.GetProduct(c.Request.Context(), productID, false)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Product retrieved successfully", p)
}

// GetShippingMethods handles GET /shipping-methods
func (h *ProductHandler) GetShippingMethods(c *gin.Context) {
	methods, err := h.shipping.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Shipping methods retrieved successfully", methods)
}

// AdminAdjustStock handles POST /admin/products/:id/stock
func (h *ProductHandler) AdminAdjustStock(c *gin.Context) {
	adminID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		respondUnauthorized(c)
		return
	}

	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req product.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	adjustment, err := h.productService.AdjustStock(c.Request.Context(), productID, &req, adminID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusCreated, "Stock adjusted successfully", adjustment)
}

// AdminGetStockHistory handles GET /admin/products/:id/stock
func (h *ProductHandler) AdminGetStockHistory(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	adjustments, err := h.productService.GetAdjustments(c.Request.Context(), productID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Stock history retrieved successfully", adjustments)
}

func decimalQuery(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return nil, apperror.New(apperror.KindValidation, "%s must be a non-negative amount", name)
	}
	return &value, nil
}
