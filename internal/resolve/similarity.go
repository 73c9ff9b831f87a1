package resolve

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns the sequence-matcher similarity of a and b in [0,1]:
// twice the number of matched characters over the total length.
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	m := difflib.NewMatcher(chars(a), chars(b))
	return m.Ratio()
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
