// Package analyzer ties name resolution, peer comparison and chart output
// together for the console and web front ends.
package analyzer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/KaramelBytes/equity-cli/internal/chart"
	"github.com/KaramelBytes/equity-cli/internal/compare"
	"github.com/KaramelBytes/equity-cli/internal/dataset"
	"github.com/KaramelBytes/equity-cli/internal/resolve"
)

// Options configures an Analyzer. Zero values pick the exact matcher, the
// schema's default peer mode, no charts and a no-op logger.
type Options struct {
	Matcher resolve.Matcher
	Mode    compare.Mode
	Charts  *chart.Renderer
	Logger  *zap.Logger
}

// Analyzer answers "how does this school compare" against one dataset.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	ds      *dataset.Dataset
	matcher resolve.Matcher
	mode    compare.Mode
	charts  *chart.Renderer
	log     *zap.Logger
}

// Result is a comparison report plus the chart rendered for it, if any.
// ChartErr explains a missing chart; it never fails the analysis.
type Result struct {
	Report   *compare.Report
	Chart    string
	ChartErr error
}

// New returns an analyzer over ds.
func New(ds *dataset.Dataset, opt Options) *Analyzer {
	a := &Analyzer{ds: ds, matcher: opt.Matcher, mode: opt.Mode, charts: opt.Charts, log: opt.Logger}
	if a.matcher == nil {
		a.matcher = resolve.Exact{}
	}
	if a.mode == 0 && ds != nil {
		a.mode, _ = compare.ParseMode("auto", ds.Schema())
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	return a
}

// Dataset returns the dataset the analyzer reads from.
func (a *Analyzer) Dataset() *dataset.Dataset { return a.ds }

// Mode returns the peer mode in use.
func (a *Analyzer) Mode() compare.Mode { return a.mode }

// Analyze resolves name and compares the matching school with its peers.
// resolve.ErrNoMatch is returned unchanged (wrapped) when nothing matches.
func (a *Analyzer) Analyze(name string) (*Result, error) {
	if a.ds.Len() == 0 {
		return nil, compare.ErrEmptyDataset
	}
	rec, err := resolve.Resolve(name, a.ds, a.matcher)
	if err != nil {
		a.log.Debug("school not resolved", zap.String("query", name))
		return nil, err
	}
	a.log.Debug("school resolved", zap.String("query", name), zap.String("match", rec.Name()))
	return a.AnalyzeRecord(rec)
}

// AnalyzeRecord compares rec, which need not come from the dataset (manual
// entry), with its peers.
func (a *Analyzer) AnalyzeRecord(rec dataset.Record) (*Result, error) {
	rep, err := compare.Compare(rec, a.ds, a.mode)
	if err != nil {
		return nil, fmt.Errorf("compare %q: %w", rec.Name(), err)
	}
	res := &Result{Report: rep}
	if a.charts == nil {
		return res, nil
	}
	layout, err := chart.Project(rep)
	if err == nil {
		res.Chart, err = a.charts.Render(layout)
	}
	if err != nil {
		res.ChartErr = err
		if !errors.Is(err, chart.ErrNoChart) {
			a.log.Warn("chart rendering failed", zap.String("school", rep.Subject), zap.Error(err))
		}
	}
	return res, nil
}

// Suggest lists up to n dataset names close to name.
func (a *Analyzer) Suggest(name string, n int) []resolve.Suggestion {
	return resolve.Suggest(name, a.ds, n)
}
