package resolve

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// droppedPhrase is removed from queries and candidates before matching.
const droppedPhrase = "high school"

// CleanName lower-cases s, folds accents, removes "high school" and
// collapses whitespace, so "Durfée HIGH SCHOOL " becomes "durfee".
func CleanName(s string) string {
	s = strings.ToLower(s)
	// Transformers carry state; build one per call so CleanName stays safe for concurrent use.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}
	s = strings.ReplaceAll(s, droppedPhrase, " ")
	return strings.Join(strings.Fields(s), " ")
}
