package match

import (
	"math"
	"strings"
)

// Weights control the fusion of the three similarity metrics. Positional
// similarity is the most discriminating signal for short product names,
// word overlap is secondary, edit distance is a tie-breaker.
type Weights struct {
	Positional   float64
	TokenOverlap float64
	Edit         float64
}

// DefaultWeights are the tuned production weights.
var DefaultWeights = Weights{
	Positional:   0.5,
	TokenOverlap: 0.3,
	Edit:         0.2,
}

const (
	containmentBase = 0.9
	containmentSpan = 0.1
	// containment reaches 1.0 once the contained string has this many characters
	containmentFullLen = 10
)

// Score computes the match confidence between a candidate line designation
// and a target product name using the default weights. Result is in [0,1].
func Score(a, b string) float64 {
	return DefaultWeights.Score(a, b)
}

// Score fuses the three similarity metrics into one normalized score.
// Case-insensitive exact equality scores 1.0. Substring containment
// short-circuits the metrics: it is the strongest honest signal for receipt
// lines like "PROMO YAOURT NATURE BIO" containing "Yaourt Nature Bio".
// Empty input on either side scores 0, never an error.
func (w Weights) Score(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		shortest := min(len([]rune(a)), len([]rune(b)))
		return containmentBase + containmentSpan*math.Min(1, float64(shortest)/containmentFullLen)
	}
	return w.Positional*JaroWinkler(a, b) +
		w.TokenOverlap*TokenOverlap(a, b) +
		w.Edit*EditSimilarity(a, b)
}
