package dataset

import (
	"fmt"
	"math"
)

// Kind selects how a metric is validated and displayed.
type Kind int

const (
	// KindScore is a 0-100 score shown with one decimal.
	KindScore Kind = iota
	// KindPercent is a 0-100 share shown with one decimal and a % sign.
	KindPercent
	// KindCurrency is a non-negative dollar amount shown as $X,XXX.XX.
	KindCurrency
)

// Metric is a named numeric column compared between a school and its peers.
type Metric struct {
	Key   string
	Label string
	Kind  Kind
}

var (
	PercentBlack = Metric{Key: "percent_black", Label: "Percent Black Students", Kind: KindPercent}
	Funding      = Metric{Key: "funding_per_student", Label: "Funding per Student", Kind: KindCurrency}
	TestScore    = Metric{Key: "test_score", Label: "Test Score", Kind: KindScore}
	MCASELA      = Metric{Key: "mcas_ela", Label: "MCAS ELA Score", Kind: KindScore}
	MCASMath     = Metric{Key: "mcas_math", Label: "MCAS Math Score", Kind: KindScore}
	MCASScience  = Metric{Key: "mcas_science", Label: "MCAS Science Score", Kind: KindScore}
)

// Validate reports whether v lies in the metric's declared range.
func (m Metric) Validate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number", m.Label)
	}
	switch m.Kind {
	case KindCurrency:
		if v < 0 {
			return fmt.Errorf("%s must be a positive number", m.Label)
		}
	default:
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be between 0 and 100", m.Label)
		}
	}
	return nil
}

// Schema identifies which test-score columns a dataset carries.
type Schema string

const (
	SchemaBasic Schema = "basic"
	SchemaMCAS  Schema = "mcas"
)

// ScoreMetrics returns the schema's test-score metrics in display order.
func (s Schema) ScoreMetrics() []Metric {
	switch s {
	case SchemaMCAS:
		return []Metric{MCASELA, MCASMath, MCASScience}
	default:
		return []Metric{TestScore}
	}
}

// ComparisonMetrics returns funding followed by the schema's score metrics.
func (s Schema) ComparisonMetrics() []Metric {
	return append([]Metric{Funding}, s.ScoreMetrics()...)
}
