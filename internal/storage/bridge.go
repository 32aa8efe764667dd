package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/codyseavey/card-grader/internal/metrics"
	"github.com/codyseavey/card-grader/internal/models"
)

// Bridge serializes the collection and settings to JSON under two fixed keys.
// Saves report failures as *TransientIOError. Loads never fail: missing or
// corrupt data resolves to an empty collection or default settings.
type Bridge struct {
	kv KV
}

func NewBridge(kv KV) *Bridge {
	return &Bridge{kv: kv}
}

// Save writes the collection in order.
func (b *Bridge) Save(ctx context.Context, entries []models.CollectionEntry) error {
	if entries == nil {
		entries = []models.CollectionEntry{}
	}
	return b.saveJSON(ctx, CollectionKey, entries)
}

// Load reads the collection, returning an empty slice when nothing usable is stored.
func (b *Bridge) Load(ctx context.Context) []models.CollectionEntry {
	var entries []models.CollectionEntry
	if err := b.loadJSON(ctx, CollectionKey, &entries); err != nil {
		return []models.CollectionEntry{}
	}
	if entries == nil {
		return []models.CollectionEntry{}
	}
	return entries
}

func (b *Bridge) SaveSettings(ctx context.Context, settings models.Settings) error {
	return b.saveJSON(ctx, SettingsKey, settings)
}

// LoadSettings reads settings, returning defaults when nothing usable is stored.
// Fields missing from an older save keep their default values.
func (b *Bridge) LoadSettings(ctx context.Context) models.Settings {
	settings := models.DefaultSettings()
	if err := b.loadJSON(ctx, SettingsKey, &settings); err != nil {
		return models.DefaultSettings()
	}
	return settings
}

// ClearAll removes both the collection and the settings.
func (b *Bridge) ClearAll(ctx context.Context) error {
	if err := b.kv.Remove(ctx, CollectionKey, SettingsKey); err != nil {
		return &TransientIOError{Op: "remove", Key: CollectionKey + "," + SettingsKey, Err: err}
	}
	log.Println("Storage: cleared collection and settings")
	return nil
}

func (b *Bridge) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		metrics.PersistenceSavesTotal.WithLabelValues(key, "failed").Inc()
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := b.kv.Set(ctx, key, string(data)); err != nil {
		metrics.PersistenceSavesTotal.WithLabelValues(key, "failed").Inc()
		return &TransientIOError{Op: "set", Key: key, Err: err}
	}

	metrics.PersistenceSavesTotal.WithLabelValues(key, "success").Inc()
	return nil
}

// loadJSON decodes key into v. Every failure is logged and counted here so
// callers only need to pick their fallback.
func (b *Bridge) loadJSON(ctx context.Context, key string, v any) error {
	raw, ok, err := b.kv.Get(ctx, key)
	if err != nil {
		log.Printf("Storage: failed to read %s, using defaults: %v", key, err)
		metrics.PersistenceLoadFallbacks.WithLabelValues(key, "read").Inc()
		return err
	}
	if !ok || raw == "" {
		metrics.PersistenceLoadFallbacks.WithLabelValues(key, "not_found").Inc()
		return ErrNotFound
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		log.Printf("Storage: corrupt data under %s, using defaults: %v", key, err)
		metrics.PersistenceLoadFallbacks.WithLabelValues(key, "decode").Inc()
		return err
	}
	return nil
}
