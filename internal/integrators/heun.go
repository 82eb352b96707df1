package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// Heun is the explicit trapezoidal rule (RK2). Position and momentum are
// advanced as one coupled system: both stage-2 derivatives are taken at
// the Euler predictor of both channels. Averaging each channel against
// its own predictor alone would collapse to explicit Euler, since dq/dt
// depends only on p and dp/dt only on q.
type Heun struct {
	dq1, dp1 dynamo.State
	dq2, dp2 dynamo.State
	qs, ps   dynamo.State
}

func NewHeun() *Heun {
	return &Heun{}
}

func (h *Heun) Scheme() Scheme { return SchemeHeun }

func (h *Heun) ensureScratch(n int) {
	for _, buf := range []*dynamo.State{&h.dq1, &h.dp1, &h.dq2, &h.dp2, &h.qs, &h.ps} {
		ensure(buf, n)
	}
}

func (h *Heun) Step(f dynamo.VectorField, qk, pk, qNext, pNext dynamo.State, dt float64) error {
	h.ensureScratch(len(qk))

	f.Velocity(qk, pk, h.dq1)
	if err := f.Force(qk, pk, h.dp1); err != nil {
		return err
	}

	floats.AddScaledTo(h.qs, qk, dt, h.dq1)
	floats.AddScaledTo(h.ps, pk, dt, h.dp1)

	f.Velocity(h.qs, h.ps, h.dq2)
	if err := f.Force(h.qs, h.ps, h.dp2); err != nil {
		return err
	}

	halfDt := 0.5 * dt
	for i := range qk {
		qNext[i] = qk[i] + halfDt*(h.dq1[i]+h.dq2[i])
		pNext[i] = pk[i] + halfDt*(h.dp1[i]+h.dp2[i])
	}

	return nil
}
