package optim

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/sim"
)

// Trial is one scheme run at one step size.
type Trial struct {
	Dt                   float64
	Scheme               integrators.Scheme
	MaxEnergyDrift       float64
	AngularMomentumDrift float64
	Elapsed              time.Duration
	Err                  error
}

// StepSearch runs every scheme over a grid of step sizes.
type StepSearch struct {
	steps []float64
}

func NewStepSearch(steps []float64) *StepSearch {
	s := append([]float64(nil), steps...)
	sort.Float64s(s)
	return &StepSearch{steps: s}
}

// Search builds a simulator per step size and records a trial for each
// scheme. A failed run (a singularity at a coarse step, say) is kept as a
// trial with Err set; only configuration and cancellation errors abort.
func (g *StepSearch) Search(
	ctx context.Context,
	build func(dt float64) (*sim.Simulator, error),
	schemes ...integrators.Scheme,
) ([]Trial, error) {
	if len(g.steps) == 0 {
		return nil, fmt.Errorf("optim: no step sizes")
	}
	if len(schemes) == 0 {
		schemes = integrators.AllSchemes()
	}

	trials := make([]Trial, 0, len(g.steps)*len(schemes))
	for _, dt := range g.steps {
		s, err := build(dt)
		if err != nil {
			return nil, fmt.Errorf("dt %g: %w", dt, err)
		}
		for _, scheme := range schemes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			trial := Trial{Dt: dt, Scheme: scheme}
			results, err := s.Run(ctx, scheme)
			if err != nil {
				if ctx.Err() != nil {
					return nil, err
				}
				trial.Err = err
			} else {
				res := results[0]
				trial.MaxEnergyDrift = res.MaxEnergyDrift()
				trial.AngularMomentumDrift = res.AngularMomentumDrift()
				trial.Elapsed = res.Elapsed
			}
			trials = append(trials, trial)
		}
	}
	return trials, nil
}

// Best returns, per scheme, the largest step whose run succeeded with a
// maximum energy drift within tol. Schemes with no such step are absent.
func Best(trials []Trial, tol float64) map[integrators.Scheme]float64 {
	best := make(map[integrators.Scheme]float64)
	for _, t := range trials {
		if t.Err != nil || t.MaxEnergyDrift > tol {
			continue
		}
		if t.Dt > best[t.Scheme] {
			best[t.Scheme] = t.Dt
		}
	}
	return best
}
