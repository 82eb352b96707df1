package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/orbitsim/internal/sim"
)

// Divergence returns the position-space distance |Q_a[k] - Q_b[k]| between
// two results on the same mesh, typically two schemes from one run.
func Divergence(a, b *sim.Result) ([]float64, error) {
	if a.Len() != b.Len() {
		return nil, fmt.Errorf("analysis: mesh mismatch (%d vs %d rows)", a.Len(), b.Len())
	}
	sep := make([]float64, a.Len())
	for k := range sep {
		sep[k] = floats.Distance(a.Q[k], b.Q[k], 2)
	}
	return sep, nil
}

// GrowthRate fits log(sep) = α + λt over the samples with positive
// separation and returns λ. A rate near zero means the trajectories stay
// at a fixed distance; a positive rate means they separate exponentially.
func GrowthRate(sep, times []float64) (float64, error) {
	var t, logSep []float64
	for k, s := range sep {
		if s > 0 {
			t = append(t, times[k])
			logSep = append(logSep, math.Log(s))
		}
	}
	if len(t) < 2 {
		return 0, fmt.Errorf("%w: %d positive samples", ErrTooShort, len(t))
	}

	_, beta := stat.LinearRegression(t, logSep, nil, false)
	return beta, nil
}
