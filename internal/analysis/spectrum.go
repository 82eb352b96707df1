package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/dsputils"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/orbitsim/internal/sim"
)

var (
	ErrTooShort = errors.New("analysis: series too short")
	ErrNoPeak   = errors.New("analysis: no spectral peak")
)

// padFactor oversamples the spectrum so the parabolic peak fit has
// neighbours to work with.
const padFactor = 4

// PowerSpectrum returns |X_k| for k in [0, n/2) of the mean-removed,
// Hann-windowed series, zero-padded to padFactor times the next power of
// two.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}

	x := make([]float64, len(data))
	copy(x, data)
	floats.AddConst(-stat.Mean(x, nil), x)
	window.Apply(x, window.Hann)

	n := padFactor * dsputils.NextPowerOf2(len(x))
	spectrum := fft.FFTReal(dsputils.ZeroPadF(x, n))

	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantPeriod estimates the period of the strongest oscillation in a
// uniformly sampled series. The peak bin is refined with a parabola
// through its neighbours.
func DominantPeriod(series []float64, dt float64) (float64, error) {
	if len(series) < 8 {
		return 0, fmt.Errorf("%w: %d samples", ErrTooShort, len(series))
	}

	ps := PowerSpectrum(series)
	k := floats.MaxIdx(ps[1 : len(ps)-1]) + 1
	if ps[k] == 0 {
		return 0, ErrNoPeak
	}

	a, b, c := ps[k-1], ps[k], ps[k+1]
	shift := 0.0
	if denom := a - 2*b + c; denom != 0 {
		shift = 0.5 * (a - c) / denom
	}

	n := 2 * len(ps)
	return float64(n) * dt / (float64(k) + shift), nil
}

// OrbitalPeriod estimates the period of body i from its x coordinate.
func OrbitalPeriod(res *sim.Result, i int) (float64, error) {
	if res.Len() < 2 {
		return 0, fmt.Errorf("%w: %d rows", ErrTooShort, res.Len())
	}
	x := make([]float64, res.Len())
	for k, q := range res.Q {
		x[k], _, _ = q.Triplet(i)
	}
	return DominantPeriod(x, res.Times[1]-res.Times[0])
}
