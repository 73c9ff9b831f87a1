// Package compare measures one school against a peer group drawn from a dataset.
package compare

import (
	"errors"
	"fmt"

	"github.com/aclements/go-moremath/stats"

	"github.com/KaramelBytes/equity-cli/internal/dataset"
)

var (
	// ErrEmptyDataset is returned when there are no records to compare against.
	ErrEmptyDataset = errors.New("dataset is empty")
	// ErrEmptyPeerGroup is returned when the peer filter selects no records.
	ErrEmptyPeerGroup = errors.New("peer group is empty")
	// ErrMissingMetric is returned when the subject lacks a value the peer
	// filter depends on.
	ErrMissingMetric = errors.New("metric not available")
)

// MetricResult is one subject-vs-peers comparison.
type MetricResult struct {
	Metric dataset.Metric
	// Subject is valid only when HasSubject is set.
	Subject    float64
	HasSubject bool
	// PeerAverage is the mean over peers that have a value; PeerCount of them.
	PeerAverage float64
	HasPeer     bool
	PeerCount   int
	// Delta is PeerAverage - Subject; positive means peers exceed the subject.
	Delta float64
}

// Available reports whether both sides of the comparison exist.
func (r MetricResult) Available() bool { return r.HasSubject && r.HasPeer }

// Report is the outcome of one comparison. It is not persisted.
type Report struct {
	Subject     string
	Mode        Mode
	Schema      dataset.Schema
	PeerCount   int
	Demographic MetricResult
	// Metrics holds funding then each score metric of the schema.
	Metrics []MetricResult
	Summary string
}

// PeerLabel names the peer group ("Similar Schools" or "All Other Schools").
func (r *Report) PeerLabel() string { return r.Mode.peerLabel() }

// Available returns the metrics with both a subject value and a peer average.
func (r *Report) Available() []MetricResult {
	var out []MetricResult
	for _, m := range r.Metrics {
		if m.Available() {
			out = append(out, m)
		}
	}
	return out
}

// Compare builds a report for subject against peers chosen by mode.
// The dataset is only read.
func Compare(subject dataset.Record, ds *dataset.Dataset, mode Mode) (*Report, error) {
	if ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	peers, err := selectPeers(subject, ds, mode)
	if err != nil {
		return nil, err
	}
	if len(peers) == 0 {
		return nil, fmt.Errorf("%w: no %s peers for %q", ErrEmptyPeerGroup, mode, subject.Name())
	}
	rep := &Report{
		Subject:     subject.Name(),
		Mode:        mode,
		Schema:      ds.Schema(),
		PeerCount:   len(peers),
		Demographic: measure(dataset.PercentBlack, subject, peers),
	}
	for _, m := range ds.Metrics() {
		rep.Metrics = append(rep.Metrics, measure(m, subject, peers))
	}
	rep.Summary = summarize(rep)
	return rep, nil
}

func selectPeers(subject dataset.Record, ds *dataset.Dataset, mode Mode) ([]dataset.Record, error) {
	var peers []dataset.Record
	switch mode {
	case DemographicSplit:
		pb, ok := subject.Value(dataset.PercentBlack)
		if !ok {
			return nil, fmt.Errorf("%w: %s is required for the demographic split", ErrMissingMetric, dataset.PercentBlack.Label)
		}
		majority := pb >= SplitThreshold
		for _, r := range ds.Records() {
			v, ok := r.Value(dataset.PercentBlack)
			if ok && (v >= SplitThreshold) == majority {
				peers = append(peers, r)
			}
		}
	case ExclusiveRest:
		for _, r := range ds.Records() {
			if r.Name() != subject.Name() {
				peers = append(peers, r)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported peer mode %s", mode)
	}
	return peers, nil
}

// measure averages m over the peers that have it; missing peer values are
// left out of the denominator.
func measure(m dataset.Metric, subject dataset.Record, peers []dataset.Record) MetricResult {
	res := MetricResult{Metric: m}
	res.Subject, res.HasSubject = subject.Value(m)
	xs := make([]float64, 0, len(peers))
	for _, p := range peers {
		if v, ok := p.Value(m); ok {
			xs = append(xs, v)
		}
	}
	if len(xs) > 0 {
		res.PeerAverage = stats.Sample{Xs: xs}.Mean()
		res.HasPeer = true
		res.PeerCount = len(xs)
	}
	if res.Available() {
		res.Delta = res.PeerAverage - res.Subject
	}
	return res
}
