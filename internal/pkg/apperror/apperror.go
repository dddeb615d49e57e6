// internal/pkg/apperror/apperror.go
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error that is surfaced to API callers
type Kind string

const (
	KindInvalidQuantity        Kind = "InvalidQuantity"
	KindPromoIneligible        Kind = "PromoIneligible"
	KindPromoExpired           Kind = "PromoExpired"
	KindPromoNotFound          Kind = "PromoNotFound"
	KindInsufficientStock      Kind = "InsufficientStock"
	KindAddressNotFound        Kind = "AddressNotFound"
	KindShippingMethodInactive Kind = "ShippingMethodInactive"
	KindOrderNotFound          Kind = "OrderNotFound"
	KindInvalidStatusValue     Kind = "InvalidStatusValue"
	KindInvalidTransition      Kind = "InvalidTransition"
	KindProductNotFound        Kind = "ProductNotFound"
	KindProductUnavailable     Kind = "ProductUnavailable"
	KindCartEmpty              Kind = "CartEmpty"
	KindValidation             Kind = "Validation"
	KindConflict               Kind = "Conflict"
)

// Error is a typed rejection carrying a kind and a human-readable message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Sentinels for errors.Is matching. Only the Kind is compared.
var (
	ErrInvalidQuantity        = &Error{Kind: KindInvalidQuantity}
	ErrPromoIneligible        = &Error{Kind: KindPromoIneligible}
	ErrPromoExpired           = &Error{Kind: KindPromoExpired}
	ErrPromoNotFound          = &Error{Kind: KindPromoNotFound}
	ErrInsufficientStock      = &Error{Kind: KindInsufficientStock}
	ErrAddressNotFound        = &Error{Kind: KindAddressNotFound}
	ErrShippingMethodInactive = &Error{Kind: KindShippingMethodInactive}
	ErrOrderNotFound          = &Error{Kind: KindOrderNotFound}
	ErrInvalidStatusValue     = &Error{Kind: KindInvalidStatusValue}
	ErrInvalidTransition      = &Error{Kind: KindInvalidTransition}
	ErrProductNotFound        = &Error{Kind: KindProductNotFound}
	ErrProductUnavailable     = &Error{Kind: KindProductUnavailable}
	ErrCartEmpty              = &Error{Kind: KindCartEmpty}
	ErrValidation             = &Error{Kind: KindValidation}
	ErrConflict               = &Error{Kind: KindConflict}
)

// New creates a typed error
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a typed error that keeps the underlying cause
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality. An expired promo is also an ineligible promo.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind == t.Kind {
		return true
	}
	return e.Kind == KindPromoExpired && t.Kind == KindPromoIneligible
}

// KindOf returns the kind of the first typed error in the chain
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}
