// Package similarity scores how alike two strings are using edit distance.
package similarity

import (
	"math"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of s used for caseless comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Distance returns the Levenshtein edit distance between the case-folded
// forms of a and b.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(Fold(a), Fold(b))
}

// Score returns a 0-100 similarity between a and b, where 100 means the
// strings are equal ignoring case. Two empty strings score 100.
func Score(a, b string) int {
	fa, fb := Fold(a), Fold(b)

	maxLen := utf8.RuneCountInString(fa)
	if n := utf8.RuneCountInString(fb); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 100
	}

	d := levenshtein.ComputeDistance(fa, fb)
	return int(math.Round(100 * float64(maxLen-d) / float64(maxLen)))
}
