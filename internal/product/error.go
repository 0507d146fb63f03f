package product

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("product price must not be negative")
	ErrEmptyFeed       = errors.New("product feed is empty")
)
