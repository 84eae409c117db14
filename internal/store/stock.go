package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/slascicarna/internal/model"
)

// Restock adjusts an item's available quantity by delta (for deliveries,
// corrections and losses). Delta can be negative but the result cannot.
// Returns the new available quantity.
func Restock(ctx context.Context, db *sql.DB, itemID int64, delta int) (int, error) {
	if delta == 0 {
		return 0, fmt.Errorf("delta must be non-zero: %w", model.ErrInvalidInput)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity_available FROM items WHERE id = ?`, itemID,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("restocking item %d: %w", itemID, model.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("checking current quantity: %w", err)
	}

	newQty := current + delta
	if newQty < 0 {
		return 0, fmt.Errorf("adjustment would result in negative quantity: %d + %d = %d: %w", current, delta, newQty, model.ErrInvalidInput)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET quantity_available = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newQty, itemID,
	)
	if err != nil {
		return 0, fmt.Errorf("restocking item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing restock: %w", err)
	}
	return newQty, nil
}
