package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a card price in USD.
//
// Older collections stored prices as display strings ("$25.50"). Price keeps
// that raw text so a load/save round-trip writes back exactly what was read,
// while Amount always yields a usable number (zero when the text can't be parsed).
type Price struct {
	amount decimal.Decimal
	raw    string
}

// NewPrice builds a numeric price.
func NewPrice(amount float64) Price {
	return Price{amount: decimal.NewFromFloat(amount)}
}

// ParsePrice parses a legacy price string such as "$1,299.99" or "25.50 USD".
// Unparsable or negative input yields a zero amount; the raw text is kept.
func ParsePrice(s string) Price {
	return Price{amount: parsePriceString(s), raw: s}
}

// Amount returns the numeric value of the price.
func (p Price) Amount() decimal.Decimal {
	return p.amount
}

// Raw returns the legacy string representation, if the price was loaded from one.
func (p Price) Raw() string {
	return p.raw
}

// IsLegacy reports whether the price was stored as a string.
func (p Price) IsLegacy() bool {
	return p.raw != ""
}

func (p Price) String() string {
	if p.raw != "" {
		return p.raw
	}
	return "$" + p.amount.StringFixed(2)
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p.raw != "" {
		return json.Marshal(p.raw)
	}
	return []byte(p.amount.String()), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Price{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("price: %w", err)
		}
		*p = ParsePrice(s)
		return nil
	}

	amount, err := decimal.NewFromString(string(data))
	if err != nil {
		// Anything that is neither a string nor a number counts as unpriced.
		*p = Price{}
		return nil
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	*p = Price{amount: amount}
	return nil
}

func parsePriceString(s string) decimal.Decimal {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == ',':
			// thousands separator
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil || amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
