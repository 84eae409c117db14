// Package shop implements order placement against the sweets catalog.
package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/erazemk/slascicarna/internal/model"
	"github.com/erazemk/slascicarna/internal/store"
)

// Identity is the authenticated user placing an order.
type Identity struct {
	UserID   int64
	Username string
}

// Placement is the result of a successful order.
type Placement struct {
	Order *model.Order
	Item  *model.Item
}

// Message is the confirmation shown to the customer.
func (p *Placement) Message() string {
	return OrderPlacedMessage(p.Order.Quantity, p.Item.Name)
}

// Service places orders and serves the catalog and order log.
type Service struct {
	DB *sql.DB
}

// ParseQuantity parses a requested quantity from form input.
// Non-numeric and non-positive values are rejected with model.ErrInvalidInput.
func ParseQuantity(raw string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", raw, model.ErrInvalidInput)
	}
	if q <= 0 {
		return 0, fmt.Errorf("quantity must be greater than 0: %w", model.ErrInvalidInput)
	}
	return q, nil
}

// PlaceOrder orders rawQuantity units of an item for user.
//
// The item is resolved first, then the quantity is parsed and checked, and
// finally stock is decremented and the order recorded in one transaction.
// On any error nothing has been written.
func (s *Service) PlaceOrder(ctx context.Context, user *Identity, itemID int64, rawQuantity string) (*Placement, error) {
	if user == nil {
		return nil, model.ErrUnauthorized
	}

	item, err := store.GetItem(ctx, s.DB, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", itemID, model.ErrNotFound)
	}

	quantity, err := ParseQuantity(rawQuantity)
	if err != nil {
		slog.Info("order rejected", "user", user.Username, "item", item.Name, "quantity", rawQuantity, "reason", "invalid quantity")
		return nil, err
	}

	// Cheap early rejection; the store re-checks under the write lock.
	if quantity > item.QuantityAvailable {
		slog.Info("order rejected", "user", user.Username, "item", item.Name,
			"quantity", quantity, "available", item.QuantityAvailable, "reason", "insufficient stock")
		return nil, &model.InsufficientStockError{ItemName: item.Name, Available: item.QuantityAvailable, Requested: quantity}
	}

	order, err := store.PlaceOrder(ctx, s.DB, user.UserID, itemID, quantity)
	if err != nil {
		var stockErr *model.InsufficientStockError
		if errors.As(err, &stockErr) {
			slog.Info("order rejected", "user", user.Username, "item", stockErr.ItemName,
				"quantity", quantity, "available", stockErr.Available, "reason", "insufficient stock")
		}
		return nil, err
	}

	// Reflect the decrement without another round trip.
	item.QuantityAvailable -= quantity

	slog.Info("order placed", "user", user.Username, "item", item.Name,
		"quantity", order.Quantity, "order", order.ID, "remaining", item.QuantityAvailable)
	return &Placement{Order: order, Item: item}, nil
}

// Catalog returns every item in the shop.
func (s *Service) Catalog(ctx context.Context) ([]model.Item, error) {
	return store.ListItems(ctx, s.DB)
}

// Orders returns the global order log in placement order.
func (s *Service) Orders(ctx context.Context) ([]model.Order, error) {
	return store.ListOrders(ctx, s.DB)
}

// UserOrders returns the orders placed by one user.
func (s *Service) UserOrders(ctx context.Context, userID int64) ([]model.Order, error) {
	return store.ListUserOrders(ctx, s.DB, userID)
}
