package collection

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/codyseavey/card-grader/internal/models"
)

// Field names a card attribute that can be grouped or filtered on.
type Field string

const (
	FieldRarity    Field = "rarity"
	FieldCondition Field = "condition"
)

// ErrUnknownField is returned for a Field other than rarity or condition.
var ErrUnknownField = errors.New("unknown collection field")

// ParseField validates a field name from user input.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldRarity, FieldCondition:
		return f, nil
	}
	return "", ErrUnknownField
}

func (f Field) value(c models.Card) (string, error) {
	switch f {
	case FieldRarity:
		return c.Rarity, nil
	case FieldCondition:
		return c.Condition, nil
	}
	return "", ErrUnknownField
}

// State is an ordered list of entries, at most one per card id.
// The zero value is an empty collection.
type State struct {
	entries []models.CollectionEntry
}

// NewState builds a State from loaded entries. Duplicate ids are merged and
// quantities below 1 are raised to 1, so a corrupt save never breaks the
// one-entry-per-id invariant.
func NewState(entries []models.CollectionEntry) State {
	return State{}.Import(entries)
}

// Add returns a state with one more copy of card. An existing entry keeps its
// position and dateAdded; a new entry is appended with quantity 1.
func (s State) Add(card models.Card, now time.Time) State {
	if i := s.index(card.ID); i >= 0 {
		next := s.clone()
		next.entries[i].Quantity++
		return next
	}

	next := s.clone()
	next.entries = append(next.entries, models.CollectionEntry{
		Card:      card.Clone(),
		Quantity:  1,
		DateAdded: now,
	})
	return next
}

// Remove drops the entry with the given id. Removing a missing id is a no-op.
func (s State) Remove(id string) State {
	i := s.index(id)
	if i < 0 {
		return s
	}
	next := s.clone()
	next.entries = slices.Delete(next.entries, i, i+1)
	return next
}

// SetQuantity overwrites an entry's quantity; qty <= 0 removes the entry.
func (s State) SetQuantity(id string, qty int) State {
	if qty <= 0 {
		return s.Remove(id)
	}
	i := s.index(id)
	if i < 0 {
		return s
	}
	next := s.clone()
	next.entries[i].Quantity = qty
	return next
}

// Import merges entries into the collection by id. Quantities add up and the
// earlier dateAdded is kept. Entries without an id are skipped.
func (s State) Import(entries []models.CollectionEntry) State {
	next := s.clone()
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		qty := max(e.Quantity, 1)

		if i := next.index(e.ID); i >= 0 {
			existing := &next.entries[i]
			existing.Quantity += qty
			if !e.DateAdded.IsZero() && (existing.DateAdded.IsZero() || e.DateAdded.Before(existing.DateAdded)) {
				existing.DateAdded = e.DateAdded
			}
			continue
		}

		entry := e.Clone()
		entry.Quantity = qty
		next.entries = append(next.entries, entry)
	}
	return next
}

// Entries returns a deep copy of the entries in insertion order.
func (s State) Entries() []models.CollectionEntry {
	return cloneEntries(s.entries)
}

// Get returns a copy of the entry with the given id.
func (s State) Get(id string) (models.CollectionEntry, bool) {
	i := s.index(id)
	if i < 0 {
		return models.CollectionEntry{}, false
	}
	return s.entries[i].Clone(), true
}

func (s State) TotalCount() int {
	total := 0
	for _, e := range s.entries {
		total += e.Quantity
	}
	return total
}

func (s State) UniqueCount() int {
	return len(s.entries)
}

// TotalValue sums price * quantity. Legacy string prices that can't be parsed count as zero.
func (s State) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.entries {
		total = total.Add(e.Value())
	}
	return total
}

// TotalValueFloat is TotalValue as a float64, for metrics and snapshots.
func (s State) TotalValueFloat() float64 {
	return s.TotalValue().InexactFloat64()
}

// DistributionBy sums quantities per distinct value of field.
func (s State) DistributionBy(field Field) (map[string]int, error) {
	dist := make(map[string]int)
	for _, e := range s.entries {
		v, err := field.value(e.Card)
		if err != nil {
			return nil, err
		}
		dist[v] += e.Quantity
	}
	return dist, nil
}

// Search matches query case-insensitively against name, set and type.
// A blank query returns every entry.
func (s State) Search(query string) []models.CollectionEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.Entries()
	}

	out := []models.CollectionEntry{}
	for _, e := range s.entries {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Set), q) ||
			strings.Contains(strings.ToLower(e.Type), q) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// FilterBy returns entries whose field equals value exactly.
func (s State) FilterBy(field Field, value string) ([]models.CollectionEntry, error) {
	out := []models.CollectionEntry{}
	for _, e := range s.entries {
		v, err := field.value(e.Card)
		if err != nil {
			return nil, err
		}
		if v == value {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

// Stats computes all derived statistics from this one state.
func (s State) Stats() models.CollectionStats {
	byRarity, _ := s.DistributionBy(FieldRarity)
	byCondition, _ := s.DistributionBy(FieldCondition)
	return models.CollectionStats{
		TotalCards:  s.TotalCount(),
		UniqueCards: s.UniqueCount(),
		TotalValue:  s.TotalValue(),
		ByRarity:    byRarity,
		ByCondition: byCondition,
	}
}

func (s State) index(id string) int {
	return slices.IndexFunc(s.entries, func(e models.CollectionEntry) bool {
		return e.ID == id
	})
}

// clone copies the entry slice. Entries themselves are only replaced, never
// mutated through a shared pointer, so a shallow element copy is enough here;
// cards are deep-copied on the way in and out.
func (s State) clone() State {
	return State{entries: slices.Clone(s.entries)}
}

func cloneEntries(entries []models.CollectionEntry) []models.CollectionEntry {
	out := make([]models.CollectionEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
