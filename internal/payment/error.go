package payment

import "errors"

var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrOrderNotPayable    = errors.New("order is not payable")
	ErrInvalidAmount      = errors.New("payment amount must be positive")
	ErrMissingMerchantUID = errors.New("merchant_uid is required")

	// ErrGatewayUnavailable marks failures talking to the gateway. Callers
	// may retry; nothing was persisted.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrRemoteNotFound     = errors.New("payment not found at gateway")
)
