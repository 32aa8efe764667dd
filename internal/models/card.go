package models

import (
	"slices"
)

// APIData carries the grading metadata attached to a card produced by a scan.
type APIData struct {
	Confidence float64 `json:"confidence"`
	Grade      float64 `json:"grade"`
	Service    string  `json:"service"` // grading service tag, e.g. "ximilar"
}

// Card is an identity record. Values are treated as immutable once built;
// use Clone before handing a card to code that may hold on to it.
type Card struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Set         string   `json:"set"`
	Rarity      string   `json:"rarity"`
	Condition   string   `json:"condition"`
	Price       Price    `json:"price"`
	ImageURL    string   `json:"imageUrl"`
	Description string   `json:"description"`
	Artist      string   `json:"artist"`
	Year        int      `json:"year"`
	Type        string   `json:"type"`
	Types       []string `json:"types,omitempty"`
	HP          *int     `json:"hp,omitempty"`
	APIData     *APIData `json:"apiData,omitempty"`
}

// Clone returns a deep copy so the caller never shares Types, HP or APIData
// with another holder.
func (c Card) Clone() Card {
	out := c
	out.Types = slices.Clone(c.Types)
	if c.HP != nil {
		hp := *c.HP
		out.HP = &hp
	}
	if c.APIData != nil {
		data := *c.APIData
		out.APIData = &data
	}
	return out
}
