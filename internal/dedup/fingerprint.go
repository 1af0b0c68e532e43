package dedup

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Fingerprint is the subset of a freshly parsed receipt used for duplicate
// comparison. Every field is best-effort text from the parsing collaborator
// and may be missing or malformed; it is never persisted as its own entity.
type Fingerprint struct {
	StoreName      string `json:"store_name,omitempty"`
	PurchaseDate   string `json:"purchase_date,omitempty"` // YYYY-MM-DD
	TotalAmount    string `json:"total_amount,omitempty"`
	SourceFilename string `json:"source_filename,omitempty"`
}

// ParseAmount normalizes a best-effort monetary string (comma or dot
// decimal separator, stray whitespace) to a decimal. ok is false when the
// value is absent or not a finite number; malformed input is treated as an
// unusable field, never an error.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseDate parses a YYYY-MM-DD purchase date. ok is false for absent or
// malformed input.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FilenameTokens lowercases a filename, splits it on punctuation and
// whitespace, and keeps tokens longer than 3 characters. These feed the
// weak-match heuristic when no structured field is usable.
func FilenameTokens(name string) []string {
	parts := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var tokens []string
	for _, p := range parts {
		if len([]rune(p)) > 3 {
			tokens = append(tokens, p)
		}
	}
	return tokens
}
