// Package analysis extracts derived quantities from simulation results.
//
//   - [PowerSpectrum]: windowed, zero-padded magnitude spectrum
//   - [DominantPeriod]: period of the strongest oscillation in a series
//   - [OrbitalPeriod]: period of one body's motion in a result
//   - [Divergence]: distance between two schemes' trajectories
//   - [GrowthRate]: exponential growth rate of a separation series
//
// # Periods
//
// A run must cover at least a couple of orbits for the spectral peak to
// be well resolved:
//
//	period, err := analysis.OrbitalPeriod(res, 1)
//	if err != nil {
//	    return err
//	}
package analysis
