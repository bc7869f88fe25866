// Package grading turns free-text answer input into comparable letter
// sequences and scores them against an answer key.
package grading

import (
	"strings"
	"unicode"
)

// Normalize uppercases raw and keeps only its letters, in order. Digits,
// punctuation and whitespace are dropped, which covers both the bare "ABCD"
// form and the indexed "1A 2B 3C" form.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToUpper(raw) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Length returns the number of letters in a normalized sequence.
func Length(normalized string) int {
	return len([]rune(normalized))
}
