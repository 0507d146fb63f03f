package transport

import (
	"context"
	"errors"
	"net/http"

	"mall-be/internal/auth"
	"mall-be/internal/cart"
	"mall-be/internal/category"
	"mall-be/internal/order"
	"mall-be/internal/payment"
	"mall-be/internal/product"
)

// StatusFromError maps domain errors to HTTP status codes.
func StatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidAmount),
		errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, payment.ErrMissingMerchantUID),
		errors.Is(err, category.ErrEmptyCategoryName):
		return http.StatusBadRequest

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, order.ErrUnauthorized),
		errors.Is(err, cart.ErrUserNotAuthenticated):
		return http.StatusUnauthorized

	case errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, category.ErrCategoryNotFound),
		errors.Is(err, cart.ErrCartItemNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, payment.ErrPaymentNotFound):
		return http.StatusNotFound

	case errors.Is(err, payment.ErrOrderNotPayable):
		return http.StatusConflict

	case errors.Is(err, payment.ErrGatewayUnavailable):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}
