package bodies

import (
	"fmt"
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// Vec3 is a Cartesian triplet. Positions are in AU, momenta in M☉·AU/day.
type Vec3 [3]float64

func (v Vec3) Scale(f float64) Vec3 { return Vec3{v[0] * f, v[1] * f, v[2] * f} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }
func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }

// Body is an immutable physical descriptor of one simulated mass.
type Body struct {
	Name     string
	Mass     float64 // solar masses
	Position Vec3
	Momentum Vec3
}

func New(name string, mass float64, position, momentum Vec3) Body {
	return Body{Name: name, Mass: mass, Position: position, Momentum: momentum}
}

// FromVelocity builds a body from a heliocentric velocity in AU/day.
func FromVelocity(name string, mass float64, position, velocity Vec3) Body {
	return New(name, mass, position, velocity.Scale(mass))
}

func (b Body) Velocity() Vec3 { return b.Momentum.Scale(1 / b.Mass) }

func (b Body) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("%w: body without a name", dynamo.ErrInvalidConfig)
	}
	if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
		return fmt.Errorf("%w: body %q has mass %v, want a positive finite value", dynamo.ErrInvalidConfig, b.Name, b.Mass)
	}
	for i := 0; i < 3; i++ {
		if math.IsNaN(b.Position[i]) || math.IsInf(b.Position[i], 0) ||
			math.IsNaN(b.Momentum[i]) || math.IsInf(b.Momentum[i], 0) {
			return fmt.Errorf("%w: body %q has non-finite initial conditions", dynamo.ErrInvalidConfig, b.Name)
		}
	}
	return nil
}
