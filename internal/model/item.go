package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a sweet in the catalog with its sellable stock count.
type Item struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Price             decimal.Decimal `json:"price"`
	QuantityAvailable int             `json:"quantity_available"`
	ImageMime         string          `json:"image_mime,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// HasImage reports whether a photo has been uploaded for the item.
func (i *Item) HasImage() bool {
	return i.ImageMime != ""
}

// InStock reports whether at least one unit can be ordered.
func (i *Item) InStock() bool {
	return i.QuantityAvailable > 0
}

// PriceScale is the number of decimal places prices are stored with.
const PriceScale = 2

// MaxPrice is the largest accepted price (six digits, two of them decimal).
var MaxPrice = decimal.RequireFromString("9999.99")
