// Package storage persists the collection and settings to a key-value store.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Logical keys for the two persisted documents.
const (
	CollectionKey = "@card_collection"
	SettingsKey   = "@app_settings"
)

// ErrNotFound means a key has never been written. Loads treat it as "no data yet".
var ErrNotFound = errors.New("key not found")

// KV is a string-valued key-value store.
type KV interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes the keys; missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error
}

// TransientIOError wraps a failed write. The bridge never retries it; the
// autosaver retries collection saves and reports the last failure.
type TransientIOError struct {
	Op  string
	Key string
	Err error
}

func (e *TransientIOError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *TransientIOError) Unwrap() error {
	return e.Err
}
