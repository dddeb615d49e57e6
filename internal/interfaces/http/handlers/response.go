// internal/interfaces/http/handlers/response.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
)

// statusByKind maps domain rejections to HTTP statuses
var statusByKind = map[apperror.Kind]int{
	apperror.KindValidation:             http.StatusBadRequest,
	apperror.KindInvalidStatusValue:     http.StatusBadRequest,
	apperror.KindInvalidQuantity:        http.StatusUnprocessableEntity,
	apperror.KindPromoIneligible:        http.StatusUnprocessableEntity,
	apperror.KindPromoExpired:           http.StatusUnprocessableEntity,
	apperror.KindShippingMethodInactive: http.StatusUnprocessableEntity,
	apperror.KindProductUnavailable:     http.StatusUnprocessableEntity,
	apperror.KindCartEmpty:              http.StatusUnprocessableEntity,
	apperror.KindPromoNotFound:          http.StatusNotFound,
	apperror.KindAddressNotFound:        http.StatusNotFound,
	apperror.KindOrderNotFound:          http.StatusNotFound,
	apperror.KindProductNotFound:        http.StatusNotFound,
	apperror.KindInsufficientStock:      http.StatusConflict,
	apperror.KindInvalidTransition:      http.StatusConflict,
	apperror.KindConflict:               http.StatusConflict,
}

// StatusFor returns the HTTP status for an error kind
func StatusFor(kind apperror.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": {"kind", "message"}}. Domain rejections
// carry their own message; anything else is logged and hidden.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	if kind, ok := apperror.KindOf(err); ok {
		c.JSON(StatusFor(kind), gin.H{
			"error": gin.H{"kind": kind, "message": err.Error()},
		})
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": gin.H{"kind": "Timeout", "message": "Request timeout"},
		})
		return
	}

	_ = c.Error(err)
	logger.WithFields(logrus.Fields{
		"request_id": middleware.GetRequestIDFromContext(c),
		"path":       c.FullPath(),
	}).WithError(err).Error("Unhandled error")

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{"kind": "Internal", "message": "Internal server error"},
	})
}

// respondBindError reports a malformed request body or query
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{"kind": apperror.KindValidation, "message": "Invalid request data", "details": err.Error()},
	})
}

func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"kind": "Unauthorized", "message": "User not authenticated"},
	})
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"message": message,
		"data":    data,
	})
}

// parseIDParam reads a positive numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"kind": apperror.KindValidation, "message": "Invalid " + name},
		})
		return 0, false
	}
	return uint(id), true
}
