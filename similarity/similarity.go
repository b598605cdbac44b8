// Package similarity scores how close a guess is to the secret word.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Score returns 100 * (1 - editDistance / longestLength) after trimming and
// lowercasing both inputs. Lengths are counted in runes. Two empty strings
// score 100.
func Score(guess, secret string) int {
	g := normalize(guess)
	s := normalize(secret)

	longest := max(utf8.RuneCountInString(g), utf8.RuneCountInString(s))
	if longest == 0 {
		return 100
	}

	distance := levenshtein.ComputeDistance(g, s)
	return 100 * (longest - distance) / longest
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
