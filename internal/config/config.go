// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends for the collection key-value store.
const (
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"./card_grader.db"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"sqlite"`
	S3             S3Config

	Grading GradingConfig

	AutosaveDebounce   time.Duration `env:"AUTOSAVE_DEBOUNCE" envDefault:"500ms"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	FrontendDistPath   string        `env:"FRONTEND_DIST_PATH"`
	ScannedImagesDir   string        `env:"SCANNED_IMAGES_DIR" envDefault:"./data/scanned_images"`
	SnapshotHour       int           `env:"SNAPSHOT_HOUR" envDefault:"23"`
}

// S3Config points the key-value store at an S3-compatible bucket (AWS or MinIO).
type S3Config struct {
	Bucket    string `env:"S3_BUCKET"`
	Prefix    string `env:"S3_PREFIX" envDefault:"card-grader/"`
	Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
}

type GradingConfig struct {
	BaseURL   string        `env:"GRADING_API_URL" envDefault:"https://api.ximilar.com"`
	APIToken  string        `env:"GRADING_API_TOKEN"`
	TokenFile string        `env:"GRADING_API_TOKEN_FILE"`
	RateLimit float64       `env:"GRADING_RATE_LIMIT" envDefault:"1"` // requests per second
	RateBurst int           `env:"GRADING_RATE_BURST" envDefault:"3"`
	CacheSize int           `env:"GRADING_CACHE_SIZE" envDefault:"128"`
	Timeout   time.Duration `env:"GRADING_TIMEOUT" envDefault:"30s"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Grading.APIToken == "" && cfg.Grading.TokenFile != "" {
		data, err := os.ReadFile(cfg.Grading.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("read grading token file: %w", err)
		}
		cfg.Grading.APIToken = strings.TrimSpace(string(data))
	}

	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendSQLite, BackendMemory:
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want sqlite, s3 or memory)", c.StorageBackend)
	}

	if c.SnapshotHour < 0 || c.SnapshotHour > 23 {
		return fmt.Errorf("SNAPSHOT_HOUR must be between 0 and 23, got %d", c.SnapshotHour)
	}
	if c.Grading.RateLimit <= 0 {
		return fmt.Errorf("GRADING_RATE_LIMIT must be positive")
	}
	if c.AutosaveDebounce < 0 {
		return fmt.Errorf("AUTOSAVE_DEBOUNCE must not be negative")
	}
	return nil
}
