package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidManualInput is returned when hand-entered school figures are not
// numeric or fall outside their metric's range.
var ErrInvalidManualInput = errors.New("invalid manual input")

// Record is one school row. Values absent from the source are missing, not zero.
type Record struct {
	name   string
	values map[string]float64
}

// NewRecord copies values into a new immutable record.
func NewRecord(name string, values map[Metric]float64) Record {
	r := Record{name: strings.TrimSpace(name), values: make(map[string]float64, len(values))}
	for m, v := range values {
		r.values[m.Key] = v
	}
	return r
}

// Name returns the school name as it appears in the dataset.
func (r Record) Name() string { return r.name }

// Value returns the metric value and whether it is present.
func (r Record) Value(m Metric) (float64, bool) {
	v, ok := r.values[m.Key]
	return v, ok
}

// ManualRecord builds a record from user-typed figures, one input per metric.
// The first failing input is reported with ErrInvalidManualInput.
func ManualRecord(name string, metrics []Metric, inputs []string) (Record, error) {
	if len(inputs) != len(metrics) {
		return Record{}, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidManualInput, len(metrics), len(inputs))
	}
	values := make(map[Metric]float64, len(metrics))
	for i, m := range metrics {
		raw := strings.TrimSpace(inputs[i])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Record{}, fmt.Errorf("%w: please enter numeric values (%s: %q)", ErrInvalidManualInput, m.Label, raw)
		}
		if err := m.Validate(v); err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrInvalidManualInput, err)
		}
		values[m] = v
	}
	return NewRecord(name, values), nil
}
