package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/card-grader/internal/models"
)

// failingKV fails every operation with err.
type failingKV struct {
	err error
}

func (f failingKV) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, f.err
}

func (f failingKV) Set(ctx context.Context, key, value string) error {
	return f.err
}

func (f failingKV) Remove(ctx context.Context, keys ...string) error {
	return f.err
}

func sampleEntries() []models.CollectionEntry {
	hp := 120
	return []models.CollectionEntry{
		{
			Card: models.Card{
				ID: "base-set-4", Name: "Charizard", Set: "Base Set", Rarity: "Rare Holo",
				Condition: "Near Mint", Price: models.NewPrice(350.25), ImageURL: "https://img.example/4.jpg",
				Description: "Grade 8/10", Artist: "Mitsuhiro Arita", Year: 1999, Type: "Pokemon",
				Types: []string{"Fire"}, HP: &hp,
				APIData: &models.APIData{Confidence: 0.97, Grade: 8, Service: "ximilar"},
			},
			Quantity:  2,
			DateAdded: time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			Card: models.Card{
				ID: "legacy", Name: "Black Lotus", Set: "Alpha", Rarity: "Rare",
				Condition: "Good", Price: models.ParsePrice("$25.50"), Year: 1993, Type: "Artifact",
			},
			Quantity:  1,
			DateAdded: time.Date(2025, 12, 24, 8, 0, 0, 0, time.UTC),
		},
	}
}

func TestBridgeSaveLoadRoundTrip(t *testing.T) {
	b := NewBridge(NewMemoryKV())
	ctx := context.Background()

	want := sampleEntries()
	require.NoError(t, b.Save(ctx, want))

	got := b.Load(ctx)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID, "order must be preserved")
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Set, got[i].Set)
		assert.Equal(t, want[i].Rarity, got[i].Rarity)
		assert.Equal(t, want[i].Condition, got[i].Condition)
		assert.True(t, want[i].Price.Amount().Equal(got[i].Price.Amount()))
		assert.Equal(t, want[i].Price.Raw(), got[i].Price.Raw())
		assert.Equal(t, want[i].ImageURL, got[i].ImageURL)
		assert.Equal(t, want[i].Description, got[i].Description)
		assert.Equal(t, want[i].Artist, got[i].Artist)
		assert.Equal(t, want[i].Year, got[i].Year)
		assert.Equal(t, want[i].Type, got[i].Type)
		assert.Equal(t, want[i].Types, got[i].Types)
		assert.Equal(t, want[i].HP, got[i].HP)
		assert.Equal(t, want[i].APIData, got[i].APIData)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].DateAdded.Equal(got[i].DateAdded))
	}
}

func TestBridgeLoadMissingIsEmpty(t *testing.T) {
	b := NewBridge(NewMemoryKV())

	got := b.Load(context.Background())
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBridgeLoadNeverFails(t *testing.T) {
	ctx := context.Background()

	corrupt := NewMemoryKV()
	require.NoError(t, corrupt.Set(ctx, CollectionKey, "{not json"))
	require.NoError(t, corrupt.Set(ctx, SettingsKey, "[1,2,3]"))

	nullValue := NewMemoryKV()
	require.NoError(t, nullValue.Set(ctx, CollectionKey, "null"))

	tests := []struct {
		name string
		kv   KV
	}{
		{"read error", failingKV{err: errors.New("disk unplugged")}},
		{"corrupt data", corrupt},
		{"null value", nullValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBridge(tt.kv)
			entries := b.Load(ctx)
			require.NotNil(t, entries)
			assert.Empty(t, entries)
			assert.Equal(t, models.DefaultSettings(), b.LoadSettings(ctx))
		})
	}
}

func TestBridgeSaveFailureIsSurfaced(t *testing.T) {
	cause := errors.New("quota exceeded")
	b := NewBridge(failingKV{err: cause})
	ctx := context.Background()

	err := b.Save(ctx, sampleEntries())
	var ioErr *TransientIOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, CollectionKey, ioErr.Key)
	assert.ErrorIs(t, err, cause)

	err = b.SaveSettings(ctx, models.DefaultSettings())
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, SettingsKey, ioErr.Key)

	assert.ErrorAs(t, b.ClearAll(ctx), &ioErr)
}

func TestBridgeSettings(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	b := NewBridge(kv)

	assert.Equal(t, models.DefaultSettings(), b.LoadSettings(ctx))

	want := models.Settings{DarkMode: true, Notifications: false, OfflineMode: true}
	require.NoError(t, b.SaveSettings(ctx, want))
	assert.Equal(t, want, b.LoadSettings(ctx))

	// Older saves without notifications keep the default for it.
	require.NoError(t, kv.Set(ctx, SettingsKey, `{"darkMode":true}`))
	assert.Equal(t, models.Settings{DarkMode: true, Notifications: true}, b.LoadSettings(ctx))
}

func TestBridgeClearAll(t *testing.T) {
	ctx := context.Background()
	b := NewBridge(NewMemoryKV())

	require.NoError(t, b.Save(ctx, sampleEntries()))
	require.NoError(t, b.SaveSettings(ctx, models.Settings{DarkMode: true}))
	require.NoError(t, b.ClearAll(ctx))

	assert.Empty(t, b.Load(ctx))
	assert.Equal(t, models.DefaultSettings(), b.LoadSettings(ctx))
}

func TestBridgeLoadsLegacyMobileExport(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, CollectionKey, `[
		{"id":"1","name":"Pikachu","set":"Jungle","rarity":"Common","condition":"Mint","price":"$4.99",
		 "imageUrl":"","description":"","artist":"","year":1999,"type":"Pokemon","quantity":3,
		 "dateAdded":"2024-02-10T12:00:00.000Z"}
	]`))

	got := NewBridge(kv).Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "4.99", got[0].Price.Amount().String())
	assert.Equal(t, 3, got[0].Quantity)
	assert.Equal(t, 2024, got[0].DateAdded.Year())
}
