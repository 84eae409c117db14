package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/slascicarna/internal/model"
)

const itemColumns = `id, name, description, price, quantity_available, image_mime, created_at, updated_at`

// CreateItem adds a sweet to the catalog with its initial stock.
func CreateItem(ctx context.Context, db *sql.DB, name, description string, price decimal.Decimal, quantity int) (*model.Item, error) {
	if err := validateItem(name, price); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative: %w", model.ErrInvalidInput)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, price, quantity_available) VALUES (?, ?, ?, ?)`,
		name, description, price.StringFixed(model.PriceScale), quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns the whole catalog in insertion order.
func ListItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// CountItems returns the number of items in the catalog.
func CountItems(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// UpdateItem updates an item's catalog data. Stock is changed only through
// Restock and PlaceOrder.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, name, description string, price decimal.Decimal) error {
	if err := validateItem(name, price); err != nil {
		return err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, price = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, description, price.StringFixed(model.PriceScale), id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return requireRow(result, "updating item")
}

// DeleteItem removes an item from the catalog together with its orders.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return requireRow(result, "deleting item")
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return requireRow(result, "setting item image")
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var imageMime sql.NullString
	if err := s.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.QuantityAvailable,
		&imageMime, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.ImageMime = imageMime.String
	return item, nil
}

func validateItem(name string, price decimal.Decimal) error {
	if name == "" {
		return fmt.Errorf("name required: %w", model.ErrInvalidInput)
	}
	if price.IsNegative() {
		return fmt.Errorf("price must not be negative: %w", model.ErrInvalidInput)
	}
	if price.GreaterThan(model.MaxPrice) {
		return fmt.Errorf("price must not exceed %s: %w", model.MaxPrice.StringFixed(model.PriceScale), model.ErrInvalidInput)
	}
	return nil
}

// requireRow turns a write that matched nothing into model.ErrNotFound.
func requireRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}
	return nil
}
