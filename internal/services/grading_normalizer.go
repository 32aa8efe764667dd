package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/codyseavey/card-grader/internal/models"
)

// ErrMalformedResponse matches any *MalformedResponseError via errors.Is.
var ErrMalformedResponse = errors.New("malformed grading response")

// MalformedResponseError means the grading API returned no grading payload at
// all, or reported the record as failed. Missing optional fields are not
// malformed; they are defaulted.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed grading response: %s: %v", e.Reason, e.Err)
	}
	return "malformed grading response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// Tag values the grading API uses for the boolean flags.
const (
	damageTagOK       = "OK"
	autographTagYes   = "Yes"
	sideTagFront      = "Front"
	tagCategory       = "Category"
	tagSubcategory    = "Subcategory"
	tagDamaged        = "Damaged"
	tagAutograph      = "Autograph"
	tagSide           = "Side"
	categorySeparator = "/"
)

// RawGradingResponse is the grading API v2 response. Every optional field is a
// pointer or slice so that absence is distinguishable from zero; defaults are
// applied in one place by NormalizeGrading.
type RawGradingResponse struct {
	Records []*RawGradingRecord `json:"records"`
	Status  *RawStatus          `json:"status,omitempty"`
}

type RawStatus struct {
	Code int    `json:"code"`
	Text string `json:"text"`
}

// failed reports a non-2xx status. A missing status or code is not a failure.
func (s *RawStatus) failed() bool {
	return s != nil && s.Code != 0 && (s.Code < 200 || s.Code > 299)
}

func (s *RawStatus) String() string {
	if s.Text == "" {
		return fmt.Sprintf("status %d", s.Code)
	}
	return fmt.Sprintf("status %d: %s", s.Code, s.Text)
}

type RawGradingRecord struct {
	Objects        []RawDetectedObject `json:"_objects"`
	Grades         *RawGrades          `json:"grades"`
	Tags           map[string][]RawTag `json:"_tags"`
	Identification *RawIdentification  `json:"_identification"`
	Status         *RawStatus          `json:"_status,omitempty"`
}

type RawDetectedObject struct {
	Name string   `json:"name"`
	Prob *float64 `json:"prob"`
}

type RawGrades struct {
	Final     *float64 `json:"final"`
	Corners   *float64 `json:"corners"`
	Edges     *float64 `json:"edges"`
	Surface   *float64 `json:"surface"`
	Centering *float64 `json:"centering"`
	Condition *string  `json:"condition,omitempty"`
}

type RawTag struct {
	Name string   `json:"name"`
	Prob *float64 `json:"prob,omitempty"`
}

type RawIdentification struct {
	BestMatch *RawBestMatch `json:"best_match"`
}

type RawBestMatch struct {
	Name       *string         `json:"name"`
	Set        *string         `json:"set"`
	Rarity     *string         `json:"rarity"`
	CardNumber *string         `json:"card_number"`
	Year       json.RawMessage `json:"year"`
}

// NormalizeGradingResponse decodes and normalizes a raw grading API body.
func NormalizeGradingResponse(body []byte) (*models.GradingResult, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, &MalformedResponseError{Reason: "empty body"}
	}

	var raw RawGradingResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &MalformedResponseError{Reason: "invalid JSON", Err: err}
	}
	return NormalizeGrading(&raw)
}

// NormalizeGrading converts a decoded response into a GradingResult.
//
// Defaults: grades 0 (not clamped), confidence 0, category "Trading Card".
// isDamaged is true unless the Damaged tag reads "OK", so a response without
// the tag counts as damaged. hasAutograph and isFront need an explicit
// "Yes"/"Front". Identification fields stay nil without a best match.
func NormalizeGrading(raw *RawGradingResponse) (*models.GradingResult, error) {
	if raw == nil {
		return nil, &MalformedResponseError{Reason: "nil response"}
	}
	if len(raw.Records) == 0 {
		return nil, &MalformedResponseError{Reason: "no records"}
	}
	record := raw.Records[0]
	if record == nil {
		return nil, &MalformedResponseError{Reason: "empty record"}
	}
	if raw.Status.failed() {
		return nil, &MalformedResponseError{Reason: raw.Status.String()}
	}
	if record.Status.failed() {
		return nil, &MalformedResponseError{Reason: "record " + record.Status.String()}
	}
	// A record with none of the grading blocks carries nothing to grade.
	if record.Grades == nil && record.Objects == nil && record.Tags == nil {
		return nil, &MalformedResponseError{Reason: "record has no grading payload"}
	}

	result := &models.GradingResult{
		Category: models.DefaultCategory,
	}

	if g := record.Grades; g != nil {
		result.FinalGrade = floatOrZero(g.Final)
		result.CornerGrade = floatOrZero(g.Corners)
		result.EdgeGrade = floatOrZero(g.Edges)
		result.SurfaceGrade = floatOrZero(g.Surface)
		result.CenteringGrade = floatOrZero(g.Centering)
	}

	if len(record.Objects) > 0 {
		result.Confidence = floatOrZero(record.Objects[0].Prob)
	}

	if category, ok := firstTag(record.Tags, tagCategory); ok {
		result.Category = category
	}
	if subcategory, ok := firstTag(record.Tags, tagSubcategory); ok {
		result.Subcategory = subcategory
	}

	damage, _ := firstTag(record.Tags, tagDamaged)
	result.IsDamaged = damage != damageTagOK

	autograph, _ := firstTag(record.Tags, tagAutograph)
	result.HasAutograph = autograph == autographTagYes

	side, _ := firstTag(record.Tags, tagSide)
	result.IsFront = side == sideTagFront

	if record.Identification != nil && record.Identification.BestMatch != nil {
		match := record.Identification.BestMatch
		result.CardName = nonEmpty(match.Name)
		result.SetName = nonEmpty(match.Set)
		result.Rarity = nonEmpty(match.Rarity)
		result.CardNumber = nonEmpty(match.CardNumber)
		result.Year = parseYear(match.Year)
	}

	return result, nil
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// firstTag returns the name of the highest-ranked tag in a category.
// The API orders tags by probability, so the first one wins.
func firstTag(tags map[string][]RawTag, category string) (string, bool) {
	values := tags[category]
	if len(values) == 0 {
		return "", false
	}
	name := strings.TrimSpace(values[0].Name)
	if name == "" {
		return "", false
	}
	return name, true
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// parseYear accepts both 1999 and "1999".
func parseYear(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

// categoryLabel turns "Card/Trading Card Game" into "Trading Card Game".
func categoryLabel(category string) string {
	if i := strings.LastIndex(category, categorySeparator); i >= 0 {
		return strings.TrimSpace(category[i+1:])
	}
	return category
}
