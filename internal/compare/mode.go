package compare

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/equity-cli/internal/dataset"
)

// Mode selects how the peer group is drawn from the dataset.
type Mode int

const (
	// DemographicSplit compares against every school on the same side of
	// SplitThreshold percent-Black enrollment, the subject included.
	DemographicSplit Mode = iota + 1
	// ExclusiveRest compares against every other school in the dataset.
	ExclusiveRest
)

// SplitThreshold divides majority-Black schools from the rest.
const SplitThreshold = 50.0

func (m Mode) String() string {
	switch m {
	case DemographicSplit:
		return "demographic"
	case ExclusiveRest:
		return "rest"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a config value to a Mode. "auto" (or empty) picks
// DemographicSplit for single-score datasets and ExclusiveRest for MCAS ones.
func ParseMode(s string, schema dataset.Schema) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		if schema == dataset.SchemaMCAS {
			return ExclusiveRest, nil
		}
		return DemographicSplit, nil
	case "demographic", "split":
		return DemographicSplit, nil
	case "rest", "county":
		return ExclusiveRest, nil
	default:
		return 0, fmt.Errorf("unknown peer mode %q (use auto, demographic or rest)", s)
	}
}

// peerLabel names the peer group in report lines and chart legends.
func (m Mode) peerLabel() string {
	if m == ExclusiveRest {
		return "All Other Schools"
	}
	return "Similar Schools"
}
