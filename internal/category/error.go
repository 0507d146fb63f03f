package category

import "errors"

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrEmptyCategoryName = errors.New("category name cannot be empty")
)
