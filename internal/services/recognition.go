package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codyseavey/card-grader/internal/metrics"
	"github.com/codyseavey/card-grader/internal/models"
)

const (
	// MinConfidence is the threshold below which callers should treat a
	// recognition as a soft rejection and ask the user to rescan.
	MinConfidence = 0.3

	// FallbackCardID identifies the placeholder card returned when recognition fails.
	FallbackCardID     = "unrecognized-card"
	FallbackCardName   = "Unrecognized Card"
	FallbackConfidence = 0.1

	gradingServiceTag = "ximilar"
	unknownValue      = "Unknown"
	unknownSet        = "Unknown Set"
	autographSuffix   = "(Autographed)"
	damagedAdjective  = "Damaged"
)

// LowConfidenceMessage is shown to the user when a scan falls below MinConfidence.
const LowConfidenceMessage = "We couldn't identify this card with enough confidence. Try again with better lighting and the whole card in frame."

// RecognitionResult is what a scan produces. GradingResult is nil for the fallback card.
type RecognitionResult struct {
	Card          models.Card           `json:"card"`
	Confidence    float64               `json:"confidence"`
	GradingResult *models.GradingResult `json:"gradingResult"`
}

// RecognitionService turns an image reference into a Card via the grading API.
type RecognitionService struct {
	grader Grader
	now    func() time.Time
	newID  func() string
}

// NewRecognitionService creates a recognition service backed by the given grader
func NewRecognitionService(grader Grader) *RecognitionService {
	return &RecognitionService{
		grader: grader,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Recognize validates the reference, grades it, and maps the result to a Card.
// It never returns an error: any failure yields the fallback card so the
// client always has something to render. There is no cancellation beyond ctx
// being passed to the grader.
func (s *RecognitionService) Recognize(ctx context.Context, imageRef string) RecognitionResult {
	result, err := s.recognize(ctx, imageRef)
	if err != nil {
		log.Printf("Recognition: falling back to placeholder card: %v", err)
		metrics.RecognitionsTotal.WithLabelValues("fallback").Inc()
		return FallbackRecognition(imageRef)
	}

	metrics.RecognitionsTotal.WithLabelValues("recognized").Inc()
	metrics.RecognitionConfidence.Observe(result.Confidence)
	return result
}

func (s *RecognitionService) recognize(ctx context.Context, imageRef string) (RecognitionResult, error) {
	if strings.TrimSpace(imageRef) == "" {
		return RecognitionResult{}, fmt.Errorf("empty image reference")
	}
	if s.grader == nil {
		return RecognitionResult{}, fmt.Errorf("no grader configured")
	}

	body, err := s.grader.Grade(ctx, imageRef)
	if err != nil {
		return RecognitionResult{}, fmt.Errorf("grading failed: %w", err)
	}

	grading, err := NormalizeGradingResponse(body)
	if err != nil {
		return RecognitionResult{}, err
	}

	card := s.cardFromGrading(grading, imageRef)
	return RecognitionResult{
		Card:          card,
		Confidence:    grading.Confidence,
		GradingResult: grading,
	}, nil
}

// FallbackRecognition is the deterministic placeholder result for failed scans.
func FallbackRecognition(imageRef string) RecognitionResult {
	return RecognitionResult{
		Card: models.Card{
			ID:          FallbackCardID,
			Name:        FallbackCardName,
			Set:         unknownSet,
			Rarity:      unknownValue,
			Condition:   unknownValue,
			Price:       models.NewPrice(0),
			ImageURL:    imageRef,
			Description: "The card could not be recognized. Try scanning it again.",
			Artist:      unknownValue,
			Type:        unknownValue,
		},
		Confidence:    FallbackConfidence,
		GradingResult: nil,
	}
}

// EvaluateRecognition applies the caller-side confidence gate. A rejected
// result is still a valid response; the message explains it to the user.
func EvaluateRecognition(result RecognitionResult) (accepted bool, message string) {
	if result.Confidence < MinConfidence {
		return false, LowConfidenceMessage
	}
	return true, ""
}

func (s *RecognitionService) cardFromGrading(g *models.GradingResult, imageRef string) models.Card {
	set := unknownSet
	if g.SetName != nil {
		set = *g.SetName
	}
	rarity := unknownValue
	if g.Rarity != nil {
		rarity = *g.Rarity
	}
	year := s.now().Year()
	if g.Year != nil {
		year = *g.Year
	}

	return models.Card{
		ID:          s.cardID(g),
		Name:        SynthesizeCardName(g),
		Set:         set,
		Rarity:      rarity,
		Condition:   GradeLabel(g.FinalGrade),
		Price:       models.NewPrice(0),
		ImageURL:    imageRef,
		Description: describeGrades(g),
		Artist:      unknownValue,
		Year:        year,
		Type:        categoryLabel(g.Category),
		APIData: &models.APIData{
			Confidence: g.Confidence,
			Grade:      g.FinalGrade,
			Service:    gradingServiceTag,
		},
	}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// cardID derives a stable id from set and number when the API identified the
// print, so rescans of the same card merge in the collection. Otherwise every
// scan is its own card.
func (s *RecognitionService) cardID(g *models.GradingResult) string {
	if g.SetName != nil && g.CardNumber != nil {
		slug := slugPattern.ReplaceAllString(strings.ToLower(*g.SetName+"-"+*g.CardNumber), "-")
		slug = strings.Trim(slug, "-")
		if slug != "" {
			return slug
		}
	}
	return s.newID()
}

// SynthesizeCardName builds a display name from grading flags.
// An identified card keeps its own name. Otherwise the parts are, in order:
// condition adjective, subcategory (or a non-default category), and an
// "(Autographed)" suffix, falling back to "Graded Card (<grade>/10)".
func SynthesizeCardName(g *models.GradingResult) string {
	if g.CardName != nil {
		if g.HasAutograph {
			return *g.CardName + " " + autographSuffix
		}
		return *g.CardName
	}

	var parts []string
	switch {
	case g.FinalGrade > 0:
		parts = append(parts, GradeLabel(g.FinalGrade))
	case g.IsDamaged:
		parts = append(parts, damagedAdjective)
	}

	switch {
	case g.Subcategory != "":
		parts = append(parts, g.Subcategory)
	case g.Category != "" && g.Category != models.DefaultCategory:
		parts = append(parts, categoryLabel(g.Category))
	}

	if g.HasAutograph {
		parts = append(parts, autographSuffix)
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Graded Card (%s/10)", formatGrade(g.FinalGrade))
	}
	return strings.Join(parts, " ")
}

func describeGrades(g *models.GradingResult) string {
	return fmt.Sprintf("Grade %s/10 (corners %s, edges %s, surface %s, centering %s)",
		formatGrade(g.FinalGrade),
		formatGrade(g.CornerGrade),
		formatGrade(g.EdgeGrade),
		formatGrade(g.SurfaceGrade),
		formatGrade(g.CenteringGrade))
}

func formatGrade(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
