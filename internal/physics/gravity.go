package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/orbitsim/internal/bodies"
	"github.com/san-kum/orbitsim/internal/dynamo"
)

// GaussianG is k² for the Gaussian gravitational constant, in
// AU³·day⁻²·M☉⁻¹.
const GaussianG = 2.9591220828559093e-4

// Constants is the unit system and numerical tolerances a field is built
// with. It is constructed once and passed to every consumer.
type Constants struct {
	G                 float64
	MinSeparation     float64 // AU
	ParallelThreshold int     // body count at which the force sum fans out
}

// DefaultConstants uses days, AU and solar masses.
func DefaultConstants() Constants {
	return Constants{
		G:                 GaussianG,
		MinSeparation:     1e-8,
		ParallelThreshold: 64,
	}
}

// SIConstants uses seconds, metres and kilograms. States must be in the
// same units when these are used.
func SIConstants() Constants {
	return Constants{
		G:                 6.67430e-11,
		MinSeparation:     1.0,
		ParallelThreshold: 64,
	}
}

func (c Constants) Validate() error {
	if !(c.G > 0) || math.IsInf(c.G, 0) {
		return fmt.Errorf("%w: gravitational constant %v", dynamo.ErrInvalidConfig, c.G)
	}
	if !(c.MinSeparation > 0) {
		return fmt.Errorf("%w: separation tolerance %v", dynamo.ErrInvalidConfig, c.MinSeparation)
	}
	return nil
}

// Gravity is the Newtonian vector field for a fixed body set. It holds
// no per-call state and may be shared between goroutines.
type Gravity struct {
	names    []string
	masses   []float64
	g        float64
	minSep   float64
	parallel int
}

func NewGravity(set bodies.Set, c Constants) (*Gravity, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Gravity{
		names:    set.Names(),
		masses:   set.Masses(),
		g:        c.G,
		minSep:   c.MinSeparation,
		parallel: c.ParallelThreshold,
	}, nil
}

func (g *Gravity) Dim() int               { return 3 * len(g.masses) }
func (g *Gravity) NumBodies() int         { return len(g.masses) }
func (g *Gravity) G() float64             { return g.g }
func (g *Gravity) Mass(i int) float64     { return g.masses[i] }
func (g *Gravity) Name(i int) string      { return g.names[i] }
func (g *Gravity) MinSeparation() float64 { return g.minSep }

// Velocity writes p_i / m_i for every body.
func (g *Gravity) Velocity(q, p, dst dynamo.State) {
	for i, m := range g.masses {
		inv := 1 / m
		dst[3*i] = p[3*i] * inv
		dst[3*i+1] = p[3*i+1] * inv
		dst[3*i+2] = p[3*i+2] * inv
	}
}

// Force writes -∂V/∂q_i for every body. dst is left zeroed when a pair
// is closer than the separation tolerance.
func (g *Gravity) Force(q, p, dst dynamo.State) error {
	n := len(g.masses)
	if g.parallel > 0 && n >= g.parallel {
		err := dynamo.ParallelFor(n, 8, func(start, end int) error {
			return g.forceRows(q, dst, start, end)
		})
		if err != nil {
			clear(dst)
		}
		return err
	}
	return g.forceSerial(q, dst)
}

func (g *Gravity) forceSerial(q, dst dynamo.State) error {
	n := len(g.masses)
	clear(dst)

	for i := 0; i < n; i++ {
		xi, yi, zi := q.Triplet(i)

		for j := i + 1; j < n; j++ {
			xj, yj, zj := q.Triplet(j)

			rx := xi - xj
			ry := yi - yj
			rz := zi - zj
			r := math.Sqrt(rx*rx + ry*ry + rz*rz)
			if r < g.minSep {
				clear(dst)
				return g.singular(i, j, r)
			}

			f := g.g * g.masses[i] * g.masses[j] / (r * r * r)
			dst[3*i] -= f * rx
			dst[3*i+1] -= f * ry
			dst[3*i+2] -= f * rz
			dst[3*j] += f * rx
			dst[3*j+1] += f * ry
			dst[3*j+2] += f * rz
		}
	}

	return nil
}

// forceRows sums the full force on bodies [start, end) so that chunks
// never write the same element.
func (g *Gravity) forceRows(q, dst dynamo.State, start, end int) error {
	n := len(g.masses)

	for i := start; i < end; i++ {
		xi, yi, zi := q.Triplet(i)
		var fx, fy, fz float64

		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			xj, yj, zj := q.Triplet(j)

			rx := xi - xj
			ry := yi - yj
			rz := zi - zj
			r := math.Sqrt(rx*rx + ry*ry + rz*rz)
			if r < g.minSep {
				return g.singular(min(i, j), max(i, j), r)
			}

			f := g.g * g.masses[i] * g.masses[j] / (r * r * r)
			fx -= f * rx
			fy -= f * ry
			fz -= f * rz
		}

		dst.SetTriplet(i, fx, fy, fz)
	}

	return nil
}

// Separation checks every pair of q against the tolerance.
func (g *Gravity) Separation(q dynamo.State) error {
	n := len(g.masses)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if r := g.Distance(q, i, j); r < g.minSep {
				return g.singular(i, j, r)
			}
		}
	}
	return nil
}

func (g *Gravity) Distance(q dynamo.State, i, j int) float64 {
	xi, yi, zi := q.Triplet(i)
	xj, yj, zj := q.Triplet(j)
	rx, ry, rz := xi-xj, yi-yj, zi-zj
	return math.Sqrt(rx*rx + ry*ry + rz*rz)
}

func (g *Gravity) singular(i, j int, r float64) error {
	return &dynamo.SingularityError{
		I:         i,
		J:         j,
		BodyI:     g.names[i],
		BodyJ:     g.names[j],
		Distance:  r,
		Tolerance: g.minSep,
	}
}
