package order

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrInvalidAmount = errors.New("order total must be positive")
)
