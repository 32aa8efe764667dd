package models

// DefaultCategory is used when the grading response carries no category tag.
const DefaultCategory = "Trading Card"

// GradingResult is the canonical form of a grading API response.
// It is built once per grading call and never persisted; only the Card
// derived from it is stored.
type GradingResult struct {
	FinalGrade     float64 `json:"finalGrade"`
	CornerGrade    float64 `json:"cornerGrade"`
	EdgeGrade      float64 `json:"edgeGrade"`
	SurfaceGrade   float64 `json:"surfaceGrade"`
	CenteringGrade float64 `json:"centeringGrade"`
	Confidence     float64 `json:"confidence"`
	Category       string  `json:"category"`
	Subcategory    string  `json:"subcategory,omitempty"`
	IsDamaged      bool    `json:"isDamaged"`
	HasAutograph   bool    `json:"hasAutograph"`
	IsFront        bool    `json:"isFront"`

	// Identification fields are only set when the API returned a best match.
	CardName   *string `json:"cardName,omitempty"`
	SetName    *string `json:"setName,omitempty"`
	Rarity     *string `json:"rarity,omitempty"`
	CardNumber *string `json:"cardNumber,omitempty"`
	Year       *int    `json:"year,omitempty"`
}

// Identified reports whether the grading API matched the card to a known print.
func (g *GradingResult) Identified() bool {
	return g != nil && g.CardName != nil
}
