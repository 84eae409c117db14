package model

import (
	"errors"
	"fmt"
)

// Order placement failures. All are recoverable at the request boundary.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// InsufficientStockError is returned when an order asks for more than is
// available. It carries the stock level seen at the time of the check.
type InsufficientStockError struct {
	ItemName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: have %d, need %d", e.ItemName, e.Available, e.Requested)
}
