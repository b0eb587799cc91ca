package features

import (
	"math"

	"github.com/mandrita16/WastePrediction/internal/common"
)

// Ratio divides num by den, returning NaN when either side is missing or den is zero.
func Ratio(num, den float64) float64 {
	if math.IsNaN(num) || math.IsNaN(den) || den == 0 {
		return math.NaN()
	}
	return num / den
}

// Text is a string feature that may be missing.
type Text struct {
	Value string
	Valid bool
}

// NewText wraps a raw categorical value; empty means missing.
func NewText(v string) Text {
	return Text{Value: v, Valid: v != ""}
}

// Join concatenates components with the feature separator. Any missing
// component makes the result missing.
func Join(parts ...string) Text {
	for _, p := range parts {
		if p == "" {
			return Text{}
		}
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += common.FeatureSeparator + p
	}
	return Text{Value: out, Valid: true}
}
