package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/production-sim/production-sim/sim"
)

// Series is the time series of one center, in first-appearance order of the result log.
type Series struct {
	Center  string
	Buffer  plotter.XYs
	Workers plotter.XYs
}

// SplitSeries groups result rows by center name.
func SplitSeries(results []sim.SimulationResult) []Series {
	var out []Series
	index := make(map[string]int)
	for _, r := range results {
		i, ok := index[r.ProductionCenter]
		if !ok {
			i = len(out)
			index[r.ProductionCenter] = i
			out = append(out, Series{Center: r.ProductionCenter})
		}
		out[i].Buffer = append(out[i].Buffer, plotter.XY{X: r.Time, Y: float64(r.BufferCount)})
		out[i].Workers = append(out[i].Workers, plotter.XY{X: r.Time, Y: float64(r.WorkersCount)})
	}
	return out
}

// PlotBuffers draws the buffer size of every center over time, one line per center.
// The image format follows the extension of path (.png, .svg, .pdf, ...).
func PlotBuffers(results []sim.SimulationResult, path string) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to plot")
	}
	series := SplitSeries(results)

	p := plot.New()
	p.Title.Text = "Buffer size per production center"
	p.X.Label.Text = "Time (ticks)"
	p.Y.Label.Text = "Details waiting"
	p.Y.Min = 0
	p.Legend.Top = true
	p.Legend.Padding = 1 * vg.Millimeter
	p.Add(plotter.NewGrid())

	colors := lineColors(len(series))
	for i, s := range series {
		line, err := plotter.NewLine(s.Buffer)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Center, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = colors[i]
		p.Add(line)
		p.Legend.Add(s.Center, line)
	}

	if err := p.Save(9*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("saving chart: %w", err)
	}
	return nil
}

// lineColors returns n distinguishable colors, cycling the qualitative palette if needed.
func lineColors(n int) []color.Color {
	palette, err := brewer.GetPalette(brewer.TypeQualitative, "Dark2", 8)
	if err != nil {
		out := make([]color.Color, n)
		for i := range out {
			out[i] = color.Black
		}
		return out
	}
	base := palette.Colors()
	out := make([]color.Color, n)
	for i := range out {
		out[i] = base[i%len(base)]
	}
	return out
}
