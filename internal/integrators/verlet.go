package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// StormerVerlet is the kick-drift-kick leapfrog. It is symmetric, so a
// step with -dt undoes a step with dt up to round-off, and its energy
// error stays bounded instead of drifting.
type StormerVerlet struct {
	dq, dp dynamo.State
}

func NewStormerVerlet() *StormerVerlet {
	return &StormerVerlet{}
}

func (v *StormerVerlet) Scheme() Scheme { return SchemeStormerVerlet }

func (v *StormerVerlet) Step(f dynamo.VectorField, qk, pk, qNext, pNext dynamo.State, dt float64) error {
	ensure(&v.dq, len(qk))
	ensure(&v.dp, len(pk))

	halfDt := 0.5 * dt

	// pNext holds p_{k+1/2} until the closing kick.
	if err := f.Force(qk, pk, v.dp); err != nil {
		return err
	}
	floats.AddScaledTo(pNext, pk, halfDt, v.dp)

	f.Velocity(qk, pNext, v.dq)
	floats.AddScaledTo(qNext, qk, dt, v.dq)

	if err := f.Force(qNext, pNext, v.dp); err != nil {
		return err
	}
	floats.AddScaled(pNext, halfDt, v.dp)

	return nil
}
