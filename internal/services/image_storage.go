package services

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ScannedImagesRoute is where stored scans are served from.
const ScannedImagesRoute = "/images/scanned"

// ImageStorageService keeps uploaded scan images on disk so collection
// entries can reference them by URL.
type ImageStorageService struct {
	storageDir string
}

// NewImageStorageService creates the storage directory if needed.
func NewImageStorageService(storageDir string) *ImageStorageService {
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		// Writes will fail later with a clearer error.
		log.Printf("Image storage: could not create %s: %v", storageDir, err)
	}
	return &ImageStorageService{storageDir: storageDir}
}

// SaveImage writes the image under a random name and returns its public URL path.
func (s *ImageStorageService) SaveImage(imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("empty image data")
	}

	filename := uuid.New().String() + imageExtension(imageData)
	if err := os.WriteFile(filepath.Join(s.storageDir, filename), imageData, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return ScannedImagesRoute + "/" + filename, nil
}

// GetStorageDir returns the storage directory path
func (s *ImageStorageService) GetStorageDir() string {
	return s.storageDir
}

func imageExtension(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
