package chart

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/equity-cli/internal/utils"
)

const (
	filePrefix = "chart_"
	fileSuffix = ".png"
)

var barWidth = vg.Points(28)

// Renderer writes chart PNGs into Dir.
type Renderer struct {
	Dir string
	log *zap.Logger
}

// NewRenderer returns a renderer writing into dir. A nil logger is replaced
// with a no-op one.
func NewRenderer(dir string, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{Dir: dir, log: log}
}

// Render draws the layout as a grouped bar chart and returns the path of the
// written file. Each call writes a new chart_<id>.png.
func (r *Renderer) Render(l *Layout) (string, error) {
	if l == nil || len(l.Categories) == 0 {
		return "", ErrNoChart
	}
	p := plot.New()
	p.Title.Text = l.Title
	p.Y.Label.Text = l.YLabel
	p.Y.Min = 0
	p.Legend.Top = true

	for i, s := range []Series{l.Subject, l.Peers} {
		bars, err := plotter.NewBarChart(plotter.Values(s.Values), barWidth)
		if err != nil {
			return "", fmt.Errorf("build %s bars: %w", s.Name, err)
		}
		bars.Color = s.Color
		bars.LineStyle.Width = vg.Length(0)
		if i == 0 {
			bars.Offset = -barWidth / 2
		} else {
			bars.Offset = barWidth / 2
		}
		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}
	p.NominalX(l.Categories...)

	wt, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return "", fmt.Errorf("encode chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("encode chart: %w", err)
	}
	if err := utils.EnsureDir(r.Dir); err != nil {
		return "", fmt.Errorf("chart dir: %w", err)
	}
	path := filepath.Join(r.Dir, filePrefix+strings.ReplaceAll(uuid.NewString(), "-", "")+fileSuffix)
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	r.log.Debug("chart written", zap.String("path", path), zap.Int("categories", len(l.Categories)))
	return path, nil
}

// Sweep removes chart files in Dir older than maxAge and returns how many
// were deleted. Other files are never touched.
func (r *Renderer) Sweep(maxAge time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(r.Dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(m); err != nil {
			r.log.Warn("chart sweep", zap.String("path", m), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Renderer) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 || maxAge <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := r.Sweep(maxAge)
			if err != nil {
				r.log.Warn("chart sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				r.log.Info("old charts removed", zap.Int("count", n))
			}
		}
	}
}
