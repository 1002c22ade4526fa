package domain

// CoMovementBracket is the qualitative classification of a portfolio's
// correlation percentage against the reference asset.
type CoMovementBracket string

const (
	BracketHigh     CoMovementBracket = "High"     // >85%
	BracketModerate CoMovementBracket = "Moderate" // 70-85%
	BracketLow      CoMovementBracket = "Low"      // <70%
)

// ClassifyBracket maps a correlation percentage in [0,100] to its bracket.
// Boundaries: 85 is still Moderate, 86 is High; 70 is Moderate, 69 is Low.
func ClassifyBracket(percentage int) CoMovementBracket {
	switch {
	case percentage > 85:
		return BracketHigh
	case percentage >= 70:
		return BracketModerate
	default:
		return BracketLow
	}
}
