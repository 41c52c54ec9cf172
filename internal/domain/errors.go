package domain

import "errors"

var (
	// store errors
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")

	// inventory errors
	ErrInsufficientStock = errors.New("insufficient quantity in stock")
	ErrInvalidItem       = errors.New("invalid item")
	ErrInvalidAmount     = errors.New("invalid amount")

	// access errors
	ErrUnknownCategory    = errors.New("unknown category")
	ErrIdentifierRequired = errors.New("identifier required")
	ErrInvalidUser        = errors.New("invalid user")
)
