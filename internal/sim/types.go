package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/physics"
)

// DefaultMaxSamples caps the float64s a single run may allocate (1 GiB).
const DefaultMaxSamples = 1 << 27

type Config struct {
	T0         float64 // days
	TN         float64 // days
	Dt         float64 // days
	Constants  physics.Constants
	Parallel   bool
	MaxSamples int
}

// DefaultConfig integrates one Jovian period with a 30-day step.
func DefaultConfig() Config {
	return Config{
		T0:         0,
		TN:         4332,
		Dt:         30,
		Constants:  physics.DefaultConstants(),
		Parallel:   true,
		MaxSamples: DefaultMaxSamples,
	}
}

func (c Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %v", dynamo.ErrInvalidConfig, c.Dt)
	}
	if math.IsNaN(c.T0) || math.IsInf(c.T0, 0) || math.IsNaN(c.TN) || math.IsInf(c.TN, 0) {
		return fmt.Errorf("%w: non-finite time bounds [%v, %v]", dynamo.ErrInvalidConfig, c.T0, c.TN)
	}
	if c.TN <= c.T0 {
		return fmt.Errorf("%w: tn (%v) must be after t0 (%v)", dynamo.ErrInvalidConfig, c.TN, c.T0)
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("%w: negative sample limit %d", dynamo.ErrInvalidConfig, c.MaxSamples)
	}
	return c.Constants.Validate()
}

// Rows is the number of mesh points in [T0, TN], both ends counted.
func (c Config) Rows() (int, error) {
	return MeshRows(c.TN-c.T0, c.Dt)
}

// MeshRows returns floor(span/dt) + 1. A 1e-9 slack keeps exact multiples
// such as 1.0/0.1 from losing their last point to rounding.
func MeshRows(span, dt float64) (int, error) {
	if !(dt > 0) || span < 0 || math.IsNaN(span) {
		return 0, fmt.Errorf("%w: span %v with dt %v", dynamo.ErrInvalidConfig, span, dt)
	}
	n := math.Floor(span/dt + 1e-9)
	if n+1 > float64(math.MaxInt32) {
		return 0, fmt.Errorf("%w: %.0f steps", dynamo.ErrAllocation, n)
	}
	return int(n) + 1, nil
}

// Snapshot is one row of state at a given time. The driver never retains
// or mutates the snapshots it is given.
type Snapshot struct {
	Time float64
	Q, P dynamo.State
}

func (s Snapshot) Clone() Snapshot {
	return Snapshot{Time: s.Time, Q: s.Q.Clone(), P: s.P.Clone()}
}

// Result is the output of one scheme over the mesh. All series share the
// row index of Q and P.
type Result struct {
	Solver          string
	Scheme          integrators.Scheme
	Times           []float64
	Q, P            []dynamo.State
	Energy          []float64
	AngularMomentum []float64
	AreaSwept       []float64
	Elapsed         time.Duration
}

func (r *Result) Len() int { return len(r.Times) }

// EnergyDrift is |H_last - H_0| / |H_0|.
func (r *Result) EnergyDrift() float64 { return metrics.RelativeDrift(r.Energy) }

func (r *Result) MaxEnergyDrift() float64 { return metrics.MaxRelativeDrift(r.Energy) }

func (r *Result) AngularMomentumDrift() float64 {
	return metrics.MaxRelativeDrift(r.AngularMomentum)
}

// TotalArea sums the per-step swept area over the whole run.
func (r *Result) TotalArea() float64 {
	total := 0.0
	for _, a := range r.AreaSwept {
		total += a
	}
	return total
}

// Final returns a copy of the last row.
func (r *Result) Final() Snapshot {
	last := len(r.Times) - 1
	return Snapshot{Time: r.Times[last], Q: r.Q[last].Clone(), P: r.P[last].Clone()}
}

// Body returns the position series of body i.
func (r *Result) Body(i int) [][3]float64 {
	out := make([][3]float64, len(r.Q))
	for k, q := range r.Q {
		out[k][0], out[k][1], out[k][2] = q.Triplet(i)
	}
	return out
}
