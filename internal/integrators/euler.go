package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// SymplecticEuler kicks the momentum with the force at q_k, then drifts
// the position with the updated momentum. Reversing the order loses the
// symplectic property.
type SymplecticEuler struct {
	dq, dp dynamo.State
}

func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

func (e *SymplecticEuler) Scheme() Scheme { return SchemeSymplecticEuler }

func (e *SymplecticEuler) Step(f dynamo.VectorField, qk, pk, qNext, pNext dynamo.State, dt float64) error {
	ensure(&e.dq, len(qk))
	ensure(&e.dp, len(pk))

	if err := f.Force(qk, pk, e.dp); err != nil {
		return err
	}
	floats.AddScaledTo(pNext, pk, dt, e.dp)

	f.Velocity(qk, pNext, e.dq)
	floats.AddScaledTo(qNext, qk, dt, e.dq)

	return nil
}
