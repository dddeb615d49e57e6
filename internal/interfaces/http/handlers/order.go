// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
)

// OrderHandler handles customer and admin order endpoints
type OrderHandler struct {
	orderService *order.Service
	logger       *logrus.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// CancelOrderRequest represents a cancellation
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// UpdateOrderStatusRequest represents an admin status change
type UpdateOrderStatusRequest struct {
	Status          string  `json:"status" binding:"required"`
	PaymentStatus   *string `json:"payment_status"`
	Notes           string  `json:"notes" binding:"max=1000"`
	TrackingNumber  *string `json:"tracking_number" binding:"omitempty,max=100"`
	ShippingCarrier *string `json:"shipping_carrier" binding:"omitempty,max=50"`
}

// RecordPaymentRequest represents a payment outcome reported by an admin or
// an upstream payment system
type RecordPaymentRequest struct {
	Status    string `json:"status" binding:"required"`
	Reference string `json:"reference" binding:"max=255"`
	Notes     string `json:"notes" binding:"max=1000"`
}

// GetOrders handles GET /orders (the caller's own orders)
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.UserID = 0

	response, err := h.orderService.List(c.Request.Context(), &req, customerIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Orders retrieved successfully", response)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), orderID, customerIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Order retrieved successfully", o)
}

// GetOrderByNumber handles GET /orders/number/:number
func (h *OrderHandler) GetOrderByNumber(c *gin.Context) {
	o, err := h.orderService.GetByNumber(c.Request.Context(), c.Param("number"), customerIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Order retrieved successfully", o)
}

// CancelOrder handles POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	cancelled, err := h.orderService.Cancel(c.Request.Context(), orderID, customerIdentity(c), req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Order cancelled successfully", cancelled)
}

// AdminGetOrders handles GET /admin/orders
func (h *OrderHandler) AdminGetOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.orderService.List(c.Request.Context(), &req, middleware.IdentityFromContext(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Orders retrieved successfully", response)
}

// AdminGetOrder handles GET /admin/orders/:id
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), orderID, middleware.IdentityFromContext(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Order retrieved successfully", o)
}

// AdminGetOrderHistory handles GET /admin/orders/:id/history
func (h *OrderHandler) AdminGetOrderHistory(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	history, err := h.orderService.History(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Order history retrieved successfully", history)
}

// AdminUpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) AdminUpdateOrderStatus(c *gin.Context) {
	adminID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		respondUnauthorized(c)
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.orderService.UpdateStatus(c.Request.Context(), &order.UpdateStatusRequest{
		OrderID:         orderID,
		Status:          req.Status,
		PaymentStatus:   req.PaymentStatus,
		AdminID:         adminID,
		Notes:           req.Notes,
		TrackingNumber:  req.TrackingNumber,
		ShippingCarrier: req.ShippingCarrier,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Order status updated successfully", updated)
}

// AdminRecordPayment handles POST /admin/orders/:id/payments
func (h *OrderHandler) AdminRecordPayment(c *gin.Context) {
	adminID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		respondUnauthorized(c)
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.orderService.RecordPayment(c.Request.Context(), &order.PaymentEvent{
		OrderID:   orderID,
		Status:    req.Status,
		Reference: req.Reference,
		Notes:     req.Notes,
		AdminID:   adminID,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, "Payment recorded successfully", updated)
}

// customerIdentity is the caller acting as a shopper. Admin rights do not
// widen what the storefront order endpoints return.
func customerIdentity(c *gin.Context) order.Identity {
	identity := middleware.IdentityFromContext(c)
	identity.IsAdmin = false
	return identity
}
