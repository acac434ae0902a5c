package order

import "errors"

// Closed set of domain errors for order placement. Callers match with
// errors.Is; the HTTP layer owns the mapping to status codes.
var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidCoupon       = errors.New("invalid or expired coupon")
	ErrCouponMinimumNotMet = errors.New("order subtotal below coupon minimum")
	ErrNegativeTotal       = errors.New("order total cannot be negative")
	ErrOrderNotCancellable = errors.New("order cannot be cancelled")
)
