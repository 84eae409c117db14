package shop

import (
	"errors"
	"fmt"

	"github.com/erazemk/slascicarna/internal/model"
)

// Customer-facing texts.
const (
	InvalidQuantityMessage = "Please enter a valid quantity greater than 0."
	NotFoundMessage        = "That sweet is no longer available."
	UnauthorizedMessage    = "Please log in to place an order."
	EmptyCatalogMessage    = "No sweets available."
	GenericErrorMessage    = "Something went wrong. Please try again."
)

// OrderPlacedMessage confirms a successful order.
func OrderPlacedMessage(quantity int, name string) string {
	return fmt.Sprintf("Order placed for %d %s(s)!", quantity, name)
}

// InsufficientStockMessage tells the customer how many units are left.
func InsufficientStockMessage(available int, name string) string {
	return fmt.Sprintf("Only %d %s(s) available!", available, name)
}

// Message maps an order placement error to the text shown to the customer.
func Message(err error) string {
	var stockErr *model.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return InsufficientStockMessage(stockErr.Available, stockErr.ItemName)
	case errors.Is(err, model.ErrInvalidInput):
		return InvalidQuantityMessage
	case errors.Is(err, model.ErrNotFound):
		return NotFoundMessage
	case errors.Is(err, model.ErrUnauthorized):
		return UnauthorizedMessage
	default:
		return GenericErrorMessage
	}
}

// IsRejection reports whether err is an expected business rejection rather
// than an infrastructure failure.
func IsRejection(err error) bool {
	var stockErr *model.InsufficientStockError
	return errors.As(err, &stockErr) ||
		errors.Is(err, model.ErrInvalidInput) ||
		errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrUnauthorized)
}
