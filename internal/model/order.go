package model

import "time"

// Order is an immutable record of a quantity of one item bought by one user.
type Order struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"user_id"`
	ItemID   int64     `json:"item_id"`
	Quantity int       `json:"quantity"`
	PlacedAt time.Time `json:"placed_at"`

	// Joined fields (not always populated).
	ItemName string `json:"item_name,omitempty"`
	Username string `json:"username,omitempty"`
}
