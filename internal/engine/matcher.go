package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize case-folds s, strips combining marks and trims surrounding space.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	// Transformers carry state, so the chain is built per call.
	t := transform.Chain(cases.Fold(), norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.TrimSpace(out)
}

// IsCorrect reports whether guess equals one of answers after normalization.
// Only exact matches count.
func IsCorrect(guess string, answers []string) bool {
	g := Normalize(guess)
	if g == "" {
		return false
	}
	for _, a := range answers {
		if Normalize(a) == g {
			return true
		}
	}
	return false
}
