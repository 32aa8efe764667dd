package storage

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/codyseavey/card-grader/internal/config"
)

// NewKV builds the key-value store selected by cfg.StorageBackend. db backs
// the sqlite store and may be nil for the other backends.
func NewKV(ctx context.Context, cfg *config.Config, db *gorm.DB) (KV, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		if db == nil {
			return nil, fmt.Errorf("sqlite backend needs a database")
		}
		log.Printf("Storage: using sqlite key-value store at %s", cfg.DBPath)
		return NewSQLKV(db), nil
	case config.BackendS3:
		client, err := NewS3Client(ctx, S3Options{
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		log.Printf("Storage: using s3 bucket %s (prefix %q)", cfg.S3.Bucket, cfg.S3.Prefix)
		return NewS3KV(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	case config.BackendMemory:
		log.Println("Storage: using in-memory store, data will not survive a restart")
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
