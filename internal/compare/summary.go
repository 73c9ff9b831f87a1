package compare

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/equity-cli/internal/dataset"
)

const notEnoughInfo = "Not enough information available."

// fundingSentences picks the funding sentence by the sign of the delta.
// {amount} is replaced with the absolute delta as currency.
var fundingSentences = map[sign]string{
	signPositive: "That's {amount} less than similar schools on average.",
	signNegative: "That's {amount} more than similar schools on average.",
	signZero:     "That's the same as the average for similar schools.",
}

// FundingSentence returns the sentence describing a funding delta.
func FundingSentence(delta float64) string {
	return strings.ReplaceAll(fundingSentences[signOf(delta)], "{amount}", FormatCurrency(math.Abs(delta)))
}

// Lines returns the summary one line at a time. Demographic-split reports
// use the narrative form; the rest use one labeled line per metric.
func (r *Report) Lines() []string {
	if r.Mode == DemographicSplit {
		return narrativeLines(r)
	}
	return metricLines(r)
}

func summarize(r *Report) string {
	return strings.Join(r.Lines(), "\n")
}

func narrativeLines(r *Report) []string {
	lines := []string{fmt.Sprintf("Analyzing school data for '%s'...", r.Subject)}
	funding := r.metric(dataset.Funding)
	var intro string
	if r.Demographic.HasSubject {
		intro = fmt.Sprintf("Your school has %s%% Black students", verbatim(r.Demographic.Subject))
	} else {
		intro = "Your school's share of Black students is not available"
	}
	switch {
	case funding.HasSubject:
		lines = append(lines, fmt.Sprintf("%s and receives %s per student.", intro, FormatCurrency(funding.Subject)))
		if funding.HasPeer {
			lines = append(lines, FundingSentence(funding.Delta))
		} else {
			lines = append(lines, "Funding at similar schools: "+notEnoughInfo)
		}
	default:
		lines = append(lines, intro+".", "Funding per student: "+notEnoughInfo)
	}
	for _, m := range r.Metrics {
		if m.Metric.Kind != dataset.KindScore {
			continue
		}
		label := scoreNoun(m.Metric)
		if m.HasPeer {
			lines = append(lines, fmt.Sprintf("Average %s at similar schools: %s", label, FormatValue(m.Metric, m.PeerAverage)))
		} else {
			lines = append(lines, fmt.Sprintf("Average %s at similar schools: %s", label, notEnoughInfo))
		}
		if !m.HasSubject {
			lines = append(lines, fmt.Sprintf("Your school's %s: %s", label, notEnoughInfo))
			continue
		}
		lines = append(lines, fmt.Sprintf("Your school's %s: %s", label, FormatValue(m.Metric, m.Subject)))
		if m.Available() {
			lines = append(lines, fmt.Sprintf("Score difference: %.1f points", m.Delta))
		}
	}
	return lines
}

func metricLines(r *Report) []string {
	lines := []string{fmt.Sprintf("Analyzing data for '%s'", r.Subject)}
	d := r.Demographic
	switch {
	case !d.HasSubject:
		lines = append(lines, d.Metric.Label+": Not available.")
	case d.HasPeer:
		lines = append(lines, fmt.Sprintf("%s: %s (vs Peer Average: %s)", d.Metric.Label, FormatValue(d.Metric, d.Subject), FormatValue(d.Metric, d.PeerAverage)))
	default:
		lines = append(lines, fmt.Sprintf("%s: %s (vs Peer Average: not available)", d.Metric.Label, FormatValue(d.Metric, d.Subject)))
	}
	for _, m := range r.Metrics {
		switch {
		case !m.HasSubject:
			lines = append(lines, fmt.Sprintf("%s: %s", m.Metric.Label, notEnoughInfo))
		case !m.HasPeer:
			lines = append(lines, fmt.Sprintf("%s: %s vs Peer Average: not available", m.Metric.Label, FormatValue(m.Metric, m.Subject)))
		default:
			lines = append(lines, fmt.Sprintf("%s: %s vs Peer Average: %s", m.Metric.Label, FormatValue(m.Metric, m.Subject), FormatValue(m.Metric, m.PeerAverage)))
		}
	}
	return lines
}

func (r *Report) metric(m dataset.Metric) MetricResult {
	for _, res := range r.Metrics {
		if res.Metric.Key == m.Key {
			return res
		}
	}
	return MetricResult{Metric: m}
}

func scoreNoun(m dataset.Metric) string {
	if m.Key == dataset.TestScore.Key {
		return "test score"
	}
	return m.Label
}
