package export

import (
	"errors"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNoData = errors.New("export: no data to plot")

const (
	chartWidth  = 1024
	chartHeight = 400
)

var (
	densityColor   = drawing.Color{R: 0, G: 170, B: 255, A: 255}
	potentialColor = drawing.Color{R: 255, G: 165, B: 0, A: 255}
)

// WritePNG renders |psi|^2 on the left axis and V(x) on the right axis.
func WritePNG(w io.Writer, x, density, potential []float64, title string) error {
	if len(x) == 0 || len(density) != len(x) {
		return ErrNoData
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "|psi|^2",
			XValues: x,
			YValues: density,
			Style: chart.Style{
				StrokeColor: densityColor,
				FillColor:   densityColor.WithAlpha(64),
				StrokeWidth: 2.0,
			},
		},
	}
	if len(potential) == len(x) {
		series = append(series, chart.ContinuousSeries{
			Name:    "V(x)",
			YAxis:   chart.YAxisSecondary,
			XValues: x,
			YValues: potential,
			Style:   chart.Style{StrokeColor: potentialColor, StrokeWidth: 1.5},
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Name:  "x",
			Style: chart.Style{FontSize: 10.0},
		},
		YAxis: chart.YAxis{
			Name:  "density",
			Style: chart.Style{FontSize: 10.0},
			Range: paddedRange(density, true),
		},
		YAxisSecondary: chart.YAxis{
			Name:  "potential",
			Style: chart.Style{FontSize: 10.0},
			Range: paddedRange(potential, false),
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

// WriteNormPNG renders the norm history of a run.
func WriteNormPNG(w io.Writer, times, norms []float64, title string) error {
	if len(times) < 2 || len(norms) != len(times) {
		return ErrNoData
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		XAxis:  chart.XAxis{Name: "t", Style: chart.Style{FontSize: 10.0}},
		YAxis: chart.YAxis{
			Name:  "norm",
			Style: chart.Style{FontSize: 10.0},
			Range: paddedRange(norms, true),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "norm",
				XValues: times,
				YValues: norms,
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2.0},
			},
		},
	}

	return graph.Render(chart.PNG, w)
}

// paddedRange fixes the axis range so flat series (a zero potential) still
// render.
func paddedRange(values []float64, fromZero bool) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	if fromZero && lo > 0 {
		lo = 0
	}
	if hi-lo < 1e-12 {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	if !fromZero || lo < 0 {
		lo -= pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi + pad}
}
