package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrDataFileMissing means the dataset file does not exist.
	ErrDataFileMissing = errors.New("data file missing")
	// ErrBadSchema means required columns are absent from the header.
	ErrBadSchema = errors.New("unrecognized dataset columns")
)

// Column names expected in the source file.
const (
	ColSchoolName = "school_name"
)

// Options controls how a dataset file is read.
type Options struct {
	// Delimiter for CSV. If 0, ',' is used ('\t' for .tsv files).
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// KeepEmptyRows keeps rows where every comparison metric is missing.
	KeepEmptyRows bool
	// SheetName selects an XLSX sheet; empty means the first sheet.
	SheetName string
}

// DefaultOptions returns the options used when no config overrides them.
func DefaultOptions() Options {
	return Options{}
}

// Loader reads a tabular file into raw rows, header first.
type Loader interface {
	CanLoad(filename string) bool
	Rows(path string, opt Options) ([][]string, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

// Load reads the dataset at path once. A missing file yields ErrDataFileMissing.
func Load(path string, opt Options) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDataFileMissing, path)
		}
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	var ld Loader = csvLoader{}
	for _, l := range registry {
		if l.CanLoad(path) {
			ld = l
			break
		}
	}
	rows, err := ld.Rows(path, opt)
	if err != nil {
		return nil, err
	}
	return build(filepath.Base(path), rows, opt)
}

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvLoader) Rows(path string, opt Options) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// build turns raw rows into records, detecting the schema from the header.
func build(name string, rows [][]string, opt Options) (*Dataset, error) {
	ds := &Dataset{name: name}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header", ErrBadSchema, name)
	}
	index := map[string]int{}
	for i, h := range rows[0] {
		index[headerKey(h)] = i
	}
	nameIdx, ok := index[ColSchoolName]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s column", ErrBadSchema, ColSchoolName)
	}
	switch {
	case has(index, TestScore.Key):
		ds.schema = SchemaBasic
	case has(index, MCASELA.Key) || has(index, MCASMath.Key) || has(index, MCASScience.Key):
		ds.schema = SchemaMCAS
	default:
		return nil, fmt.Errorf("%w: expected %s or mcas_ela/mcas_math/mcas_science", ErrBadSchema, TestScore.Key)
	}

	all := append([]Metric{PercentBlack}, ds.schema.ComparisonMetrics()...)
	dropped := 0
	for n, row := range rows[1:] {
		line := n + 2
		schoolName := strings.TrimSpace(cell(row, nameIdx))
		if schoolName == "" {
			ds.warnings = append(ds.warnings, fmt.Sprintf("row %d: empty school name, skipped", line))
			continue
		}
		values := make(map[Metric]float64, len(all))
		for _, m := range all {
			idx, ok := index[m.Key]
			if !ok {
				continue
			}
			raw := cell(row, idx)
			if isMissing(raw) {
				continue
			}
			v, ok := parseNumeric(raw, opt)
			if !ok {
				ds.warnings = append(ds.warnings, fmt.Sprintf("row %d: %s: unparseable value %q treated as missing", line, m.Key, raw))
				continue
			}
			if err := m.Validate(v); err != nil {
				ds.warnings = append(ds.warnings, fmt.Sprintf("row %d: %v; treated as missing", line, err))
				continue
			}
			values[m] = v
		}
		rec := NewRecord(schoolName, values)
		if !opt.KeepEmptyRows && !hasAny(rec, ds.schema.ComparisonMetrics()) {
			dropped++
			continue
		}
		ds.records = append(ds.records, rec)
	}
	if dropped > 0 {
		ds.warnings = append(ds.warnings, fmt.Sprintf("dropped %d rows with no funding or score data", dropped))
	}
	return ds, nil
}

func headerKey(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}

func has(index map[string]int, key string) bool {
	_, ok := index[key]
	return ok
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func hasAny(r Record, metrics []Metric) bool {
	for _, m := range metrics {
		if _, ok := r.Value(m); ok {
			return true
		}
	}
	return false
}
