// Package chart turns comparison reports into grouped bar charts.
package chart

import (
	"errors"
	"image/color"

	"github.com/KaramelBytes/equity-cli/internal/compare"
)

// ErrNoChart is returned when a report has no metric with both a subject
// value and a peer average.
var ErrNoChart = errors.New("no chart available due to missing data for this school")

// Series is one set of bars, one value per category.
type Series struct {
	Name   string
	Values []float64
	Color  color.RGBA
}

// Layout is a two-series category chart ready to render.
type Layout struct {
	Title      string
	YLabel     string
	Categories []string
	Subject    Series
	Peers      Series
}

// Palette
var (
	SubjectColor = color.RGBA{R: 0xf9, G: 0xd3, B: 0x42, A: 0xff}
	PeerColor    = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
)

// Project lays out the report's available metrics. Metrics missing either
// side are left out rather than drawn as zero.
func Project(rep *compare.Report) (*Layout, error) {
	if rep == nil {
		return nil, ErrNoChart
	}
	avail := rep.Available()
	if len(avail) == 0 {
		return nil, ErrNoChart
	}
	peer := rep.PeerLabel()
	l := &Layout{
		Title:   "School vs " + peer,
		YLabel:  "Value",
		Subject: Series{Name: rep.Subject, Color: SubjectColor},
		Peers:   Series{Name: peer, Color: PeerColor},
	}
	for _, m := range avail {
		l.Categories = append(l.Categories, m.Metric.Label)
		l.Subject.Values = append(l.Subject.Values, m.Subject)
		l.Peers.Values = append(l.Peers.Values, m.PeerAverage)
	}
	return l, nil
}
