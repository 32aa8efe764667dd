package services

// gradeBand maps a lower grade bound to its condition label.
type gradeBand struct {
	min   float64
	label string
}

// gradeBands is the single condition table for final grades, evaluated
// highest first; a grade exactly on a bound belongs to the higher band.
var gradeBands = []gradeBand{
	{9, "Mint"},
	{8, "Near Mint/Mint"},
	{7, "Near Mint"},
	{6, "Excellent"},
	{5, "Very Good"},
	{4, "Good"},
	{3, "Fair"},
	{2, "Poor"},
	{1, "Damaged"},
}

// lowestGradeLabel covers grades below the last band, including 0.
const lowestGradeLabel = "Authentic (Damaged)"

// GradeLabel returns the human-readable condition for a final grade.
func GradeLabel(grade float64) string {
	for _, band := range gradeBands {
		if grade >= band.min {
			return band.label
		}
	}
	return lowestGradeLabel
}
