package service

import "errors"

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCartNotFound       = errors.New("cart not found")
	ErrItemNotFound       = errors.New("cart item not found")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
)
