package db

import (
	"path/filepath"
	"testing"
)

func TestEnsureSchemaIdempotent(t *testing.T) {
	database := NewTestDB(t)

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
}

func TestQuantityAvailableCannotGoNegative(t *testing.T) {
	database := NewTestDB(t)

	_, err := database.Exec(`INSERT INTO items (name, quantity_available) VALUES ('Barfi', 1)`)
	if err != nil {
		t.Fatalf("inserting item: %v", err)
	}

	_, err = database.Exec(`UPDATE items SET quantity_available = quantity_available - 2 WHERE name = 'Barfi'`)
	if err == nil {
		t.Error("expected CHECK constraint to reject negative quantity_available")
	}
}

func TestOpenFileAppliesForeignKeys(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "shop.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	var fk int
	if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("reading pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}
}
