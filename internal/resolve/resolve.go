// Package resolve maps a free-text school name onto a dataset record.
package resolve

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/equity-cli/internal/dataset"
)

// DefaultThreshold is the minimum similarity accepted by the fuzzy matcher.
const DefaultThreshold = 0.6

// ErrNoMatch is returned when no candidate satisfies the matcher.
var ErrNoMatch = errors.New("no matching school")

// Matcher chooses one candidate for a query. Both query and candidates are
// already cleaned with CleanName. The returned index is in candidate order.
type Matcher interface {
	Match(query string, candidates []string) (int, bool)
}

// Exact accepts only candidates equal to the query.
type Exact struct{}

func (Exact) Match(query string, candidates []string) (int, bool) {
	for i, c := range candidates {
		if c == query {
			return i, true
		}
	}
	return -1, false
}

// Fuzzy accepts the most similar candidate when its ratio reaches Threshold.
// Ties keep the earliest candidate.
type Fuzzy struct {
	Threshold float64
}

func (f Fuzzy) Match(query string, candidates []string) (int, bool) {
	best, bestScore := -1, -1.0
	for i, c := range candidates {
		if s := Ratio(c, query); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 || bestScore < f.Threshold {
		return -1, false
	}
	return best, true
}

// NewMatcher returns the matcher named by mode: "exact" or "fuzzy".
// A zero threshold selects DefaultThreshold; otherwise it must lie in (0,1].
func NewMatcher(mode string, threshold float64) (Matcher, error) {
	if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("invalid match threshold %v (use 0 < t <= 1)", threshold)
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "exact":
		return Exact{}, nil
	case "fuzzy", "":
		if threshold == 0 {
			threshold = DefaultThreshold
		}
		return Fuzzy{Threshold: threshold}, nil
	default:
		return nil, fmt.Errorf("unknown match mode %q (use exact or fuzzy)", mode)
	}
}

// Resolve finds the record for input using m. Names need not be unique;
// the first matching record in file order wins.
func Resolve(input string, ds *dataset.Dataset, m Matcher) (dataset.Record, error) {
	query := CleanName(input)
	if query == "" || ds.Len() == 0 {
		return dataset.Record{}, fmt.Errorf("%w for %q", ErrNoMatch, input)
	}
	idx, ok := m.Match(query, cleanedNames(ds))
	if !ok {
		return dataset.Record{}, fmt.Errorf("%w for %q", ErrNoMatch, input)
	}
	return ds.Record(idx), nil
}

// Suggestion is a candidate name with its similarity to a query.
type Suggestion struct {
	Name  string
	Score float64
}

// Suggest lists up to n distinct dataset names most similar to input,
// best first. Names scoring zero are left out.
func Suggest(input string, ds *dataset.Dataset, n int) []Suggestion {
	query := CleanName(input)
	if query == "" || n <= 0 || ds.Len() == 0 {
		return nil
	}
	seen := map[string]bool{}
	var out []Suggestion
	for i, c := range cleanedNames(ds) {
		name := ds.Record(i).Name()
		if seen[name] {
			continue
		}
		seen[name] = true
		if s := Ratio(c, query); s > 0 {
			out = append(out, Suggestion{Name: name, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func cleanedNames(ds *dataset.Dataset) []string {
	names := ds.Names()
	for i, n := range names {
		names[i] = CleanName(n)
	}
	return names
}
