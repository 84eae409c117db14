package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/erazemk/slascicarna/internal/store"
)

type seedItem struct {
	name        string
	description string
	price       string
	quantity    int
}

var demoCatalog = []seedItem{
	{"Barfi", "Milk fudge with cardamom and pistachio.", "2.50", 40},
	{"Gulab Jamun", "Fried milk dumplings soaked in rose syrup.", "3.20", 30},
	{"Kaju Katli", "Thin cashew diamonds with silver leaf.", "4.80", 25},
	{"Ladoo", "Gram flour balls with ghee and sugar.", "1.90", 50},
	{"Rasgulla", "Soft cheese balls in light syrup.", "3.00", 20},
}

// seedCatalog loads the demo catalog into an empty shop. It returns the
// number of items created; an existing catalog is left untouched.
func seedCatalog(ctx context.Context, database *sql.DB) (int, error) {
	n, err := store.CountItems(ctx, database)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("catalog not empty, skipping seed", "items", n)
		return 0, nil
	}

	for _, s := range demoCatalog {
		price, err := decimal.NewFromString(s.price)
		if err != nil {
			return 0, fmt.Errorf("seed price for %s: %w", s.name, err)
		}
		if _, err := store.CreateItem(ctx, database, s.name, s.description, price, s.quantity); err != nil {
			return 0, fmt.Errorf("seeding %s: %w", s.name, err)
		}
	}

	slog.Info("catalog seeded", "items", len(demoCatalog))
	return len(demoCatalog), nil
}
