package dataset

// Dataset is an ordered, read-only table of school records. It is built once
// by Load and never modified, so it can be shared across goroutines.
type Dataset struct {
	name     string
	schema   Schema
	records  []Record
	warnings []string
}

// New wraps records in a Dataset. The slice is copied.
func New(name string, schema Schema, records []Record) *Dataset {
	rs := make([]Record, len(records))
	copy(rs, records)
	return &Dataset{name: name, schema: schema, records: rs}
}

// Name is the base name of the source file.
func (d *Dataset) Name() string { return d.name }

// Schema reports which score columns the dataset carries.
func (d *Dataset) Schema() Schema { return d.schema }

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Record returns the i-th record in file order.
func (d *Dataset) Record(i int) Record { return d.records[i] }

// Records returns a copy of the record slice.
func (d *Dataset) Records() []Record {
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Names returns school names in file order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.records))
	for i, r := range d.records {
		out[i] = r.name
	}
	return out
}

// Metrics returns the metrics compared for this dataset: funding, then scores.
func (d *Dataset) Metrics() []Metric { return d.schema.ComparisonMetrics() }

// Warnings lists rows or cells skipped during load.
func (d *Dataset) Warnings() []string {
	out := make([]string, len(d.warnings))
	copy(out, d.warnings)
	return out
}
