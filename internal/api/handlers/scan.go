package handlers

import (
	"bytes"
	"encoding/base64"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/card-grader/internal/services"
)

// maxUploadBytes caps multipart scans; the grading API rejects larger images anyway.
const maxUploadBytes = 10 << 20

type ScanHandler struct {
	recognition *services.RecognitionService
	images      *services.ImageStorageService
}

func NewScanHandler(recognition *services.RecognitionService, images *services.ImageStorageService) *ScanHandler {
	return &ScanHandler{recognition: recognition, images: images}
}

type ScanRequest struct {
	ImageRef string `json:"image_ref"`
}

// ScanResponse is the recognition result plus the confidence gate verdict.
// A rejected scan is still 200: the client shows Message instead of the card.
type ScanResponse struct {
	services.RecognitionResult
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// ScanCard recognizes a card from an uploaded image file ("image" form field)
// or from a JSON body carrying an image URL or base64 data.
func (h *ScanHandler) ScanCard(c *gin.Context) {
	var imageRef, storedURL string

	if file, err := c.FormFile("image"); err == nil {
		if file.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file"})
			return
		}
		defer src.Close()

		var buf bytes.Buffer
		if _, err := buf.ReadFrom(src); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		imageRef = base64.StdEncoding.EncodeToString(buf.Bytes())

		// Keep the photo so the card can point at it instead of carrying the base64 data.
		if h.images != nil {
			url, err := h.images.SaveImage(buf.Bytes())
			if err != nil {
				log.Printf("Scan: failed to store uploaded image: %v", err)
			} else {
				storedURL = url
			}
		}
	} else {
		var req ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "No image provided",
				"message": "Upload an image file or provide image_ref in the JSON body",
			})
			return
		}
		imageRef = req.ImageRef
	}

	result := h.recognition.Recognize(c.Request.Context(), imageRef)
	if storedURL != "" {
		result.Card.ImageURL = storedURL
	}
	accepted, message := services.EvaluateRecognition(result)

	c.JSON(http.StatusOK, ScanResponse{
		RecognitionResult: result,
		Accepted:          accepted,
		Message:           message,
	})
}
