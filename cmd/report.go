package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/KaramelBytes/equity-cli/internal/compare"
)

// writeReport prints the report as summary lines, or as a metric table.
func writeReport(w io.Writer, rep *compare.Report, asTable bool) error {
	if !asTable {
		_, err := fmt.Fprintln(w, rep.Summary)
		return err
	}
	lines := rep.Lines()
	if _, err := fmt.Fprintln(w, lines[0]); err != nil {
		return err
	}
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Metric", "Your School", rep.PeerLabel() + " Avg", "Difference"})
	tw.SetAutoWrapText(false)
	tw.Append(metricRow(rep.Demographic))
	for _, m := range rep.Metrics {
		tw.Append(metricRow(m))
	}
	tw.Render()
	_, err := fmt.Fprintf(w, "Peer group: %d schools\n", rep.PeerCount)
	return err
}

func metricRow(m compare.MetricResult) []string {
	row := []string{m.Metric.Label, "n/a", "n/a", "n/a"}
	if m.HasSubject {
		row[1] = compare.FormatValue(m.Metric, m.Subject)
	}
	if m.HasPeer {
		row[2] = compare.FormatValue(m.Metric, m.PeerAverage)
	}
	if m.Available() {
		row[3] = signed(compare.FormatValue(m.Metric, m.Delta), m.Delta)
	}
	return row
}

func signed(s string, v float64) string {
	if v > 0 && !strings.HasPrefix(s, "+") {
		return "+" + s
	}
	return s
}
