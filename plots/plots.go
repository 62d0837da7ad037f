// Package plots renders the report figures as PNG files.
package plots

import (
	"image/color"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/himetrics/attrition/pkg/errors"
)

const (
	defaultWidth  = 8 * vg.Inch
	defaultHeight = 6 * vg.Inch
)

// BarChart writes a labeled bar chart.
func BarChart(title, yLabel string, labels []string, values []float64, path string) error {
	if len(labels) != len(values) {
		return errors.NewValueError("plots.BarChart", "labels and values must have equal length")
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(24))
	if err != nil {
		return errors.Wrap(err, "plots.BarChart")
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(labels...)

	return save(p, path)
}

// Histogram writes a binned distribution of values.
func Histogram(title, xLabel string, values []float64, bins int, path string) error {
	if len(values) == 0 {
		return errors.NewValueError("plots.Histogram", "no values to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return errors.Wrap(err, "plots.Histogram")
	}
	h.FillColor = plotutil.Color(0)
	p.Add(h)

	return save(p, path)
}

// BoxPlots writes one box plot per named group on a shared axis.
func BoxPlots(title, yLabel string, groups []string, values [][]float64, path string) error {
	if len(groups) != len(values) {
		return errors.NewValueError("plots.BoxPlots", "groups and values must have equal length")
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel

	for i, vals := range values {
		box, err := plotter.NewBoxPlot(vg.Points(30), float64(i), plotter.Values(vals))
		if err != nil {
			return errors.Wrap(err, "plots.BoxPlots")
		}
		p.Add(box)
	}
	p.NominalX(groups...)

	return save(p, path)
}

// corrGrid adapts a symmetric correlation matrix to the heat map interface.
type corrGrid struct {
	m *mat.SymDense
}

func (g corrGrid) Dims() (int, int)   { n := g.m.SymmetricDim(); return n, n }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }
func (g corrGrid) Z(c, r int) float64 { return g.m.At(r, c) }

// CorrelationHeatmap writes a diverging heat map of a correlation matrix.
func CorrelationHeatmap(title string, names []string, corr *mat.SymDense, path string) error {
	if corr.SymmetricDim() != len(names) {
		return errors.NewValueError("plots.CorrelationHeatmap", "names must match matrix dimension")
	}

	p := plot.New()
	p.Title.Text = title

	pal := moreland.SmoothBlueRed().Palette(255)
	hm := plotter.NewHeatMap(corrGrid{m: corr}, pal)
	hm.Min, hm.Max = -1, 1
	p.Add(hm)

	ticks := make([]plot.Tick, len(names))
	for i, name := range names {
		ticks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)

	return save(p, path)
}

// ClusterScatter writes a 2-D embedding colored by integer label. names maps
// non-negative labels to legend entries; out-of-range labels fall back to
// "cluster N". Noise points (label -1) are drawn in gray.
func ClusterScatter(title string, embedding *mat.Dense, labels []int, names []string, path string) error {
	r, c := embedding.Dims()
	if c != 2 {
		return errors.NewValueError("plots.ClusterScatter", "embedding must have two columns")
	}
	if r != len(labels) {
		return errors.NewValueError("plots.ClusterScatter", "labels must match embedding rows")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "dim 1"
	p.Y.Label.Text = "dim 2"

	byLabel := map[int]plotter.XYs{}
	for i := 0; i < r; i++ {
		byLabel[labels[i]] = append(byLabel[labels[i]], plotter.XY{
			X: embedding.At(i, 0),
			Y: embedding.At(i, 1),
		})
	}

	keys := make([]int, 0, len(byLabel))
	for k := range byLabel {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	for _, label := range keys {
		s, err := plotter.NewScatter(byLabel[label])
		if err != nil {
			return errors.Wrap(err, "plots.ClusterScatter")
		}
		s.GlyphStyle.Radius = vg.Points(2.5)
		if label < 0 {
			s.GlyphStyle.Color = color.Gray{Y: 160}
			p.Legend.Add("noise", s)
		} else {
			s.GlyphStyle.Color = plotutil.Color(label)
			name := "cluster " + strconv.Itoa(label)
			if label < len(names) {
				name = names[label]
			}
			p.Legend.Add(name, s)
		}
		p.Add(s)
	}
	p.Legend.Top = true

	return save(p, path)
}

// BalloonPlot writes a contingency table as a grid of scaled dots.
func BalloonPlot(title string, rowLabels, colLabels []string, counts [][]int, path string) error {
	if len(counts) != len(rowLabels) {
		return errors.NewValueError("plots.BalloonPlot", "counts rows must match row labels")
	}

	p := plot.New()
	p.Title.Text = title

	maxCount := 1
	var pts plotter.XYs
	var sizes []int
	for i, row := range counts {
		if len(row) != len(colLabels) {
			return errors.NewValueError("plots.BalloonPlot", "counts columns must match column labels")
		}
		for j, count := range row {
			if count > maxCount {
				maxCount = count
			}
			pts = append(pts, plotter.XY{X: float64(j), Y: float64(i)})
			sizes = append(sizes, count)
		}
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "plots.BalloonPlot")
	}
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		frac := float64(sizes[i]) / float64(maxCount)
		return draw.GlyphStyle{
			Color:  plotutil.Color(0),
			Radius: vg.Points(2 + 14*math.Sqrt(frac)),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(s)

	p.NominalX(colLabels...)
	rowTicks := make([]plot.Tick, len(rowLabels))
	for i, name := range rowLabels {
		rowTicks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(rowTicks)
	p.Y.Min, p.Y.Max = -0.5, float64(len(rowLabels))-0.5

	return save(p, path)
}

// DensityByGroup writes overlaid line densities of one variable per group.
// A simple Gaussian kernel estimate is evaluated on a shared grid.
func DensityByGroup(title, xLabel string, groups []string, values [][]float64, path string) error {
	if len(groups) != len(values) {
		return errors.NewValueError("plots.DensityByGroup", "groups and values must have equal length")
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, vals := range values {
		for _, v := range vals {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if !(hi > lo) {
		return errors.NewValueError("plots.DensityByGroup", "degenerate value range")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "density"

	const gridSize = 200
	for gi, vals := range values {
		if len(vals) < 2 {
			continue
		}
		bw := silverman(vals)
		line := make(plotter.XYs, gridSize)
		for g := 0; g < gridSize; g++ {
			x := lo + (hi-lo)*float64(g)/float64(gridSize-1)
			var density float64
			for _, v := range vals {
				z := (x - v) / bw
				density += math.Exp(-0.5*z*z) / (bw * math.Sqrt(2*math.Pi))
			}
			line[g] = plotter.XY{X: x, Y: density / float64(len(vals))}
		}

		l, err := plotter.NewLine(line)
		if err != nil {
			return errors.Wrap(err, "plots.DensityByGroup")
		}
		l.Color = plotutil.Color(gi)
		p.Add(l)
		p.Legend.Add(groups[gi], l)
	}
	p.Legend.Top = true

	return save(p, path)
}

// silverman is the rule-of-thumb kernel bandwidth.
func silverman(vals []float64) float64 {
	n := float64(len(vals))
	var mean, ss float64
	for _, v := range vals {
		mean += v
	}
	mean /= n
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / (n - 1))
	if sd == 0 {
		return 1
	}
	return 1.06 * sd * math.Pow(n, -0.2)
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(defaultWidth, defaultHeight, path); err != nil {
		return errors.Wrapf(err, "saving plot to %s", path)
	}
	return nil
}
