// Package report renders evaluation results as a grouped bar chart.
package report

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/evaluation"
	apperrors "github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/errors"
	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/pkg/logger"
)

// Bar colours, one per metric, cycling when there are more metrics.
var palette = []color.RGBA{
	{R: 0x4c, G: 0x72, B: 0xb0, A: 0xff},
	{R: 0xdd, G: 0x84, B: 0x52, A: 0xff},
	{R: 0x55, G: 0xa8, B: 0x68, A: 0xff},
	{R: 0xc4, G: 0x4e, B: 0x52, A: 0xff},
	{R: 0x81, G: 0x72, B: 0xb3, A: 0xff},
}

// Chart is the data behind a grouped bar chart: one group per system, one
// bar per metric.
type Chart struct {
	Title   string
	Systems []string
	Metrics []evaluation.Metric
	// Values[m][s] is metric m for system s.
	Values [][]float64
}

// BuildChart selects the ok rows of r and the named metrics.
func BuildChart(r *evaluation.Report, title string, metricNames []string) (*Chart, error) {
	rows := r.OKRows()
	if len(rows) == 0 {
		return nil, apperrors.ConfigurationError("nothing to plot: no run has an ok status")
	}

	metrics, err := evaluation.ParseMetrics(metricNames)
	if err != nil {
		return nil, err
	}

	c := &Chart{Title: title, Metrics: metrics, Values: make([][]float64, len(metrics))}
	for _, row := range rows {
		c.Systems = append(c.Systems, row.System)
	}
	for i, m := range metrics {
		c.Values[i] = make([]float64, len(rows))
		for j, row := range rows {
			v, ok := row.Metrics[m.String()]
			if !ok {
				return nil, apperrors.ConfigurationError(fmt.Sprintf(
					"metric %s was not evaluated for %q", m, row.System))
			}
			c.Values[i][j] = v
		}
	}
	return c, nil
}

// Plot builds the gonum plot.
func (c *Chart) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Title
	p.Y.Label.Text = "Score"
	p.Y.Min = 0
	p.Y.Max = 1
	p.Add(plotter.NewGrid())

	width := vg.Points(60 / float64(len(c.Metrics)))
	for i, m := range c.Metrics {
		bars, err := plotter.NewBarChart(plotter.Values(c.Values[i]), width)
		if err != nil {
			return nil, fmt.Errorf("bar chart for %s: %w", m, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = palette[i%len(palette)]
		bars.Offset = width * vg.Length(float64(i)-float64(len(c.Metrics)-1)/2)

		p.Add(bars)
		p.Legend.Add(m.Label(), bars)
	}

	p.Legend.Top = true
	p.NominalX(c.Systems...)
	return p, nil
}

// WritePNG renders the chart as PNG at the given size in inches.
func (c *Chart) WritePNG(w io.Writer, widthInches, heightInches float64) error {
	p, err := c.Plot()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(vg.Length(widthInches)*vg.Inch, vg.Length(heightInches)*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// Run executes the plot stage: read results.json and write the chart.
func Run(cfg *config.Config, log *logger.Logger) error {
	if log == nil {
		log = logger.Discard()
	}

	r, err := evaluation.LoadReport(cfg.Report.Input)
	if err != nil {
		return err
	}

	chart, err := BuildChart(r, cfg.Report.Title, cfg.Report.Metrics)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.Report.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(cfg.Report.Output)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer f.Close()

	if err := chart.WritePNG(f, cfg.Report.WidthInches, cfg.Report.HeightInches); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close chart: %w", err)
	}

	log.Info("Chart written", "output", cfg.Report.Output, "systems", len(chart.Systems), "metrics", len(chart.Metrics))
	return nil
}
