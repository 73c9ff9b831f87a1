package analyzer

import "github.com/KaramelBytes/equity-cli/internal/compare"

// MetricJSON is one metric of a report. Pointers are nil when the value is
// missing so JSON shows null instead of zero.
type MetricJSON struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Subject     *float64 `json:"subject"`
	PeerAverage *float64 `json:"peer_average"`
	PeerCount   int      `json:"peer_count"`
	Delta       *float64 `json:"delta"`
}

// ReportJSON is the machine-readable form of a Result.
type ReportJSON struct {
	School      string       `json:"school"`
	Mode        string       `json:"mode"`
	PeerGroup   string       `json:"peer_group"`
	PeerCount   int          `json:"peer_count"`
	Demographic MetricJSON   `json:"demographic"`
	Metrics     []MetricJSON `json:"metrics"`
	Summary     string       `json:"summary"`
	Chart       string       `json:"chart,omitempty"`
}

func toMetricJSON(m compare.MetricResult) MetricJSON {
	out := MetricJSON{Key: m.Metric.Key, Label: m.Metric.Label, PeerCount: m.PeerCount}
	if m.HasSubject {
		v := m.Subject
		out.Subject = &v
	}
	if m.HasPeer {
		v := m.PeerAverage
		out.PeerAverage = &v
	}
	if m.Available() {
		v := m.Delta
		out.Delta = &v
	}
	return out
}

// JSON converts the result. Chart is the rendered file path, if any.
func (r *Result) JSON() ReportJSON {
	rep := r.Report
	out := ReportJSON{
		School:      rep.Subject,
		Mode:        rep.Mode.String(),
		PeerGroup:   rep.PeerLabel(),
		PeerCount:   rep.PeerCount,
		Demographic: toMetricJSON(rep.Demographic),
		Metrics:     make([]MetricJSON, 0, len(rep.Metrics)),
		Summary:     rep.Summary,
		Chart:       r.Chart,
	}
	for _, m := range rep.Metrics {
		out.Metrics = append(out.Metrics, toMetricJSON(m))
	}
	return out
}
