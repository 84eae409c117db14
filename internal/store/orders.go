package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/slascicarna/internal/model"
)

// PlaceOrder decrements an item's stock by quantity and records the order,
// both in a single transaction. The decrement is a compare-and-set on
// quantity_available, so concurrent orders for the same item can never
// oversell it.
//
// Returns model.ErrNotFound if the item does not exist and
// *model.InsufficientStockError if it has fewer than quantity units left.
// Nothing is written on either failure.
func PlaceOrder(ctx context.Context, db *sql.DB, userID, itemID int64, quantity int) (*model.Order, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", model.ErrInvalidInput)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET quantity_available = quantity_available - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND quantity_available >= ?`,
		quantity, itemID, quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("decrementing stock: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("decrementing stock: %w", err)
	}
	if n == 0 {
		// Nothing matched: either the item is gone or it has too little stock.
		var name string
		var available int
		err := tx.QueryRowContext(ctx,
			`SELECT name, quantity_available FROM items WHERE id = ?`, itemID,
		).Scan(&name, &available)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("placing order for item %d: %w", itemID, model.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("checking available quantity: %w", err)
		}
		return nil, &model.InsufficientStockError{ItemName: name, Available: available, Requested: quantity}
	}

	result, err = tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, item_id, quantity) VALUES (?, ?, ?)`,
		userID, itemID, quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("recording order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting order id: %w", err)
	}

	// Read back before commit; afterwards a concurrent item delete could
	// cascade the order away.
	o := &model.Order{}
	err = tx.QueryRowContext(ctx, orderSelect+` WHERE o.id = ?`, orderID).
		Scan(&o.ID, &o.UserID, &o.ItemID, &o.Quantity, &o.PlacedAt, &o.ItemName, &o.Username)
	if err != nil {
		return nil, fmt.Errorf("reading order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}

	return o, nil
}

const orderSelect = `SELECT o.id, o.user_id, o.item_id, o.quantity, o.placed_at,
        i.name AS item_name, u.username
 FROM orders o
 JOIN items i ON i.id = o.item_id
 JOIN users u ON u.id = o.user_id`

// GetOrder returns an order by ID.
func GetOrder(ctx context.Context, db *sql.DB, id int64) (*model.Order, error) {
	o := &model.Order{}
	err := db.QueryRowContext(ctx, orderSelect+` WHERE o.id = ?`, id).
		Scan(&o.ID, &o.UserID, &o.ItemID, &o.Quantity, &o.PlacedAt, &o.ItemName, &o.Username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}
	return o, nil
}

// ListOrders returns every order in the order it was placed.
func ListOrders(ctx context.Context, db *sql.DB) ([]model.Order, error) {
	rows, err := db.QueryContext(ctx, orderSelect+` ORDER BY o.id`)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// ListUserOrders returns the orders placed by one user, oldest first.
func ListUserOrders(ctx context.Context, db *sql.DB, userID int64) ([]model.Order, error) {
	rows, err := db.QueryContext(ctx, orderSelect+` WHERE o.user_id = ? ORDER BY o.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing user orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// CountOrders returns the number of recorded orders.
func CountOrders(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}

func scanOrders(rows *sql.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.ItemID, &o.Quantity, &o.PlacedAt, &o.ItemName, &o.Username); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
