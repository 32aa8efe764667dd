package models

import "time"

// KVRecord is one row of the SQLite-backed key-value store.
type KVRecord struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (KVRecord) TableName() string {
	return "kv_store"
}
