// internal/interfaces/http/handlers/promo.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/promo"
)

// PromoHandler handles admin promo code endpoints
type PromoHandler struct {
	promoService *promo.Service
	logger       *logrus.Logger
}

// NewPromoHandler creates a new promo handler
func NewPromoHandler(promoService *promo.Service, logger *logrus.Logger) *PromoHandler {
	return &PromoHandler{
		promoService: promoService,
		logger:       logger,
	}
}

// AdminGetPromos handles GET /admin/promos
func (h *PromoHandler) AdminGetPromos(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	response, err := h.promoService.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Promo codes retrieved successfully", response)
}

// AdminGetPromo handles GET /admin/promos/:id
func (h *PromoHandler) AdminGetPromo(c *gin.Context) {
	promoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.promoService.Get(c.Request.Context(), promoID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Promo code retrieved successfully", p)
}

// AdminCreatePromo handles POST /admin/promos
func (h *PromoHandler) AdminCreatePromo(c *gin.Context) {
	var req promo.CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.promoService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusCreated, "Promo code created successfully", p)
}

// AdminUpdatePromo handles PATCH /admin/promos/:id
func (h *PromoHandler) AdminUpdatePromo(c *gin.Context) {
	promoID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req promo.UpdatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.promoService.Update(c.Request.Context(), promoID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Promo code updated successfully", p)
}
