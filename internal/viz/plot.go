package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/orbitsim/internal/sim"
)

// Series names accepted by PlotSeries.
const (
	SeriesEnergy  = "energy"
	SeriesAngular = "angular"
	SeriesArea    = "area"
	SeriesOrbit   = "orbit"
)

var schemeColors = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Yellow,
	asciigraph.Cyan,
	asciigraph.Magenta,
	asciigraph.Orange,
}

// PlotOptions sizes the chart. Zero values use 70x15.
type PlotOptions struct {
	Width, Height int
	// Body selects the body whose x coordinate SeriesOrbit plots.
	Body int
}

// RelativeSeries returns (x_k - x_0) / |x_0| for every row. A zero first
// value yields the raw differences.
func RelativeSeries(series []float64) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	ref := math.Abs(series[0])
	if ref == 0 {
		ref = 1
	}
	for k, v := range series {
		out[k] = (v - series[0]) / ref
	}
	return out
}

// Cumulative returns the running sum of a per-step series.
func Cumulative(series []float64) []float64 {
	out := make([]float64, len(series))
	total := 0.0
	for k, v := range series {
		total += v
		out[k] = total
	}
	return out
}

// Downsample keeps at most n evenly spaced points, always including the
// last one.
func Downsample(series []float64, n int) []float64 {
	if n <= 0 || len(series) <= n {
		return series
	}
	last := len(series) - 1
	if n == 1 {
		return series[last:]
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = series[i*last/(n-1)]
	}
	return out
}

func seriesFor(res *sim.Result, name string, body int) ([]float64, string, error) {
	switch name {
	case SeriesEnergy:
		return RelativeSeries(res.Energy), "relative energy drift", nil
	case SeriesAngular:
		return RelativeSeries(res.AngularMomentum), "relative angular momentum drift", nil
	case SeriesArea:
		return Cumulative(res.AreaSwept), "cumulative area swept (AU²)", nil
	case SeriesOrbit:
		if body < 0 || body >= res.Q[0].Bodies() {
			return nil, "", fmt.Errorf("viz: body %d out of range", body)
		}
		xs := make([]float64, res.Len())
		for k, q := range res.Q {
			xs[k], _, _ = q.Triplet(body)
		}
		return xs, fmt.Sprintf("x of body %d (AU)", body), nil
	}
	return nil, "", fmt.Errorf("viz: unknown series %q", name)
}

// PlotSeries draws one named series for every result on a shared chart,
// one colour per scheme.
func PlotSeries(results []*sim.Result, name string, opts PlotOptions) (string, error) {
	if len(results) == 0 {
		return "", fmt.Errorf("viz: nothing to plot")
	}
	if opts.Width <= 0 {
		opts.Width = 70
	}
	if opts.Height <= 0 {
		opts.Height = 15
	}

	data := make([][]float64, 0, len(results))
	legends := make([]string, 0, len(results))
	colors := make([]asciigraph.AnsiColor, 0, len(results))
	var caption string
	for i, res := range results {
		if res.Len() == 0 {
			return "", fmt.Errorf("viz: %s has no rows", res.Solver)
		}
		s, c, err := seriesFor(res, name, opts.Body)
		if err != nil {
			return "", err
		}
		caption = c
		data = append(data, Downsample(s, opts.Width))
		legends = append(legends, res.Solver)
		colors = append(colors, schemeColors[i%len(schemeColors)])
	}

	return asciigraph.PlotMany(data,
		asciigraph.Width(opts.Width),
		asciigraph.Height(opts.Height),
		asciigraph.Precision(3),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	), nil
}
