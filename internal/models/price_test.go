package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"dollar sign", "$25.50", "25.5"},
		{"plain number", "12.00", "12"},
		{"thousands separator", "$1,299.99", "1299.99"},
		{"currency suffix", "25.50 USD", "25.5"},
		{"empty", "", "0"},
		{"not a number", "N/A", "0"},
		{"negative treated as zero", "-5.00", "0"},
		{"garbage dots", "1.2.3", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePrice(tt.input)
			if p.Amount().String() != tt.expected {
				t.Errorf("ParsePrice(%q).Amount() = %s, want %s", tt.input, p.Amount(), tt.expected)
			}
			if p.Raw() != tt.input {
				t.Errorf("ParsePrice(%q).Raw() = %q, want input preserved", tt.input, p.Raw())
			}
		})
	}
}

func TestPriceUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		legacy   bool
	}{
		{"number", `12.00`, "12", false},
		{"string with symbol", `"$25.50"`, "25.5", true},
		{"null", `null`, "0", false},
		{"unparsable string", `"call for price"`, "0", true},
		{"negative number", `-3`, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Price
			if err := json.Unmarshal([]byte(tt.input), &p); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Amount().String() != tt.expected {
				t.Errorf("amount = %s, want %s", p.Amount(), tt.expected)
			}
			if p.IsLegacy() != tt.legacy {
				t.Errorf("IsLegacy() = %v, want %v", p.IsLegacy(), tt.legacy)
			}
		})
	}
}

func TestPriceRoundTripKeepsLegacyString(t *testing.T) {
	var p Price
	if err := json.Unmarshal([]byte(`"$25.50"`), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `"$25.50"` {
		t.Errorf("Marshal = %s, want \"$25.50\"", out)
	}

	out, err = json.Marshal(NewPrice(12.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `12.5` {
		t.Errorf("Marshal = %s, want 12.5", out)
	}
}

func TestCollectionEntryValue(t *testing.T) {
	entry := CollectionEntry{
		Card:     Card{ID: "a", Price: ParsePrice("$25.50")},
		Quantity: 2,
	}
	if !entry.Value().Equal(decimal.RequireFromString("51")) {
		t.Errorf("Value() = %s, want 51", entry.Value())
	}
}

func TestCardCloneDoesNotAlias(t *testing.T) {
	hp := 120
	card := Card{
		ID:      "x",
		Types:   []string{"Fire"},
		HP:      &hp,
		APIData: &APIData{Confidence: 0.9, Grade: 8, Service: "ximilar"},
	}

	clone := card.Clone()
	clone.Types[0] = "Water"
	*clone.HP = 10
	clone.APIData.Grade = 1

	if card.Types[0] != "Fire" {
		t.Errorf("original Types mutated: %v", card.Types)
	}
	if *card.HP != 120 {
		t.Errorf("original HP mutated: %d", *card.HP)
	}
	if card.APIData.Grade != 8 {
		t.Errorf("original APIData mutated: %v", card.APIData.Grade)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.DarkMode || !s.Notifications || s.OfflineMode {
		t.Errorf("DefaultSettings() = %+v, want {false true false}", s)
	}
}
