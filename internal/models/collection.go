package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollectionEntry is one distinct card held in the collection.
// The embedded Card is flattened in JSON, matching the mobile client's export format.
type CollectionEntry struct {
	Card
	Quantity  int       `json:"quantity"`
	DateAdded time.Time `json:"dateAdded"`
}

// Clone returns a deep copy of the entry.
func (e CollectionEntry) Clone() CollectionEntry {
	out := e
	out.Card = e.Card.Clone()
	return out
}

// Value returns price * quantity for the entry.
func (e CollectionEntry) Value() decimal.Decimal {
	return e.Price.Amount().Mul(decimal.NewFromInt(int64(e.Quantity)))
}

type CollectionStats struct {
	TotalCards  int             `json:"totalCards"`
	UniqueCards int             `json:"uniqueCards"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	ByRarity    map[string]int  `json:"byRarity"`
	ByCondition map[string]int  `json:"byCondition"`
}

type AddToCollectionRequest struct {
	Card Card `json:"card" binding:"required"`
}

type UpdateCollectionRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// ImportCollectionRequest carries entries exported from another device.
type ImportCollectionRequest struct {
	Entries []CollectionEntry `json:"entries" binding:"required"`
}
