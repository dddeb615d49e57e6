// internal/domain/order/lifecycle.go
package order

import (
	"strings"
	"time"

	"github.com/your-org/storefront-api/internal/pkg/apperror"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Identity is who is acting: a signed-in user, a guest session, or an admin.
// It is passed explicitly into every call.
type Identity struct {
	UserID    *uint
	SessionID string
	IsAdmin   bool
}

// ActorID returns the user id for audit columns, if any
func (i Identity) ActorID() *uint {
	return i.UserID
}

// ParseStatus validates an order status string
func ParseStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return status, nil
	}
	return "", apperror.New(apperror.KindInvalidStatusValue, "unknown order status %q", s)
}

// ParsePaymentStatus validates a payment status string
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return status, nil
	}
	return "", apperror.New(apperror.KindInvalidStatusValue, "unknown payment status %q", s)
}

// TransitionPolicy decides whether an admin may move an order between statuses
type TransitionPolicy interface {
	Allow(from, to OrderStatus) error
}

// PermissivePolicy accepts any move between known statuses
type PermissivePolicy struct{}

// Allow implements TransitionPolicy
func (PermissivePolicy) Allow(from, to OrderStatus) error { return nil }

// StrictPolicy only accepts moves along the fulfilment path, the
// cancellation and refund exits, and self-transitions
type StrictPolicy struct{}

var strictTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {OrderStatusRefunded},
}

// Allow implements TransitionPolicy
func (StrictPolicy) Allow(from, to OrderStatus) error {
	if from == to {
		return nil
	}
	for _, allowed := range strictTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return apperror.New(apperror.KindInvalidTransition, "invalid status transition from %s to %s", from, to)
}

// PolicyFor picks the policy matching the strict transitions setting
func PolicyFor(strict bool) TransitionPolicy {
	if strict {
		return StrictPolicy{}
	}
	return PermissivePolicy{}
}

// applyStatus moves the order to status and stamps the matching lifecycle
// timestamp. Timestamps are first-write-wins: re-entering a status keeps the
// original time.
func applyStatus(o *Order, status OrderStatus, now time.Time) {
	o.Status = status
	switch status {
	case OrderStatusProcessing:
		o.ProcessedAt = stamp(o.ProcessedAt, now)
	case OrderStatusShipped:
		o.ShippedAt = stamp(o.ShippedAt, now)
	case OrderStatusDelivered:
		o.DeliveredAt = stamp(o.DeliveredAt, now)
	case OrderStatusCancelled:
		o.CancelledAt = stamp(o.CancelledAt, now)
	}
}

func stamp(existing *time.Time, now time.Time) *time.Time {
	if existing != nil {
		return existing
	}
	t := now.UTC()
	return &t
}
