// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/pkg/pdf"
)

// InvoiceRenderer produces invoice documents for an order
type InvoiceRenderer interface {
	GenerateInvoice(o *order.Order) (*bytes.Buffer, error)
	InvoiceData(o *order.Order) pdf.InvoiceData
}

// InvoiceHandler handles invoice-related endpoints
type InvoiceHandler struct {
	orderService *order.Service
	renderer     InvoiceRenderer
	logger       *logrus.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(orderService *order.Service, renderer InvoiceRenderer, logger *logrus.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		orderService: orderService,
		renderer:     renderer,
		logger:       logger,
	}
}

// GenerateInvoice handles GET /orders/:id/invoice
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	o, ok := h.visibleOrder(c)
	if !ok {
		return
	}

	pdfBuffer, err := h.renderer.GenerateInvoice(o)
	if err != nil {
		respondError(c, h.logger, fmt.Errorf("failed to generate invoice for order %d: %w", o.ID, err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", o.OrderNumber))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}

// GetInvoiceData handles GET /orders/:id/invoice/data (for frontend preview)
func (h *InvoiceHandler) GetInvoiceData(c *gin.Context) {
	o, ok := h.visibleOrder(c)
	if !ok {
		return
	}

	respondOK(c, http.StatusOK, "Invoice data retrieved successfully", h.renderer.InvoiceData(o))
}

func (h *InvoiceHandler) visibleOrder(c *gin.Context) (*order.Order, bool) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	o, err := h.orderService.Get(c.Request.Context(), orderID, customerIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	return o, true
}
