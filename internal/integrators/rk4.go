package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// RK4 is the classical four-stage Runge-Kutta scheme on the coupled
// (q, p) system.
type RK4 struct {
	kq1, kq2, kq3, kq4 dynamo.State
	kp1, kp2, kp3, kp4 dynamo.State
	qs, ps             dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Scheme() Scheme { return SchemeRK4 }

func (r *RK4) ensureScratch(n int) {
	for _, buf := range []*dynamo.State{
		&r.kq1, &r.kq2, &r.kq3, &r.kq4,
		&r.kp1, &r.kp2, &r.kp3, &r.kp4,
		&r.qs, &r.ps,
	} {
		ensure(buf, n)
	}
}

func (r *RK4) stage(f dynamo.VectorField, q, p, kq, kp dynamo.State) error {
	f.Velocity(q, p, kq)
	return f.Force(q, p, kp)
}

func (r *RK4) Step(f dynamo.VectorField, qk, pk, qNext, pNext dynamo.State, dt float64) error {
	r.ensureScratch(len(qk))

	if err := r.stage(f, qk, pk, r.kq1, r.kp1); err != nil {
		return err
	}

	floats.AddScaledTo(r.qs, qk, 0.5*dt, r.kq1)
	floats.AddScaledTo(r.ps, pk, 0.5*dt, r.kp1)
	if err := r.stage(f, r.qs, r.ps, r.kq2, r.kp2); err != nil {
		return err
	}

	floats.AddScaledTo(r.qs, qk, 0.5*dt, r.kq2)
	floats.AddScaledTo(r.ps, pk, 0.5*dt, r.kp2)
	if err := r.stage(f, r.qs, r.ps, r.kq3, r.kp3); err != nil {
		return err
	}

	floats.AddScaledTo(r.qs, qk, dt, r.kq3)
	floats.AddScaledTo(r.ps, pk, dt, r.kp3)
	if err := r.stage(f, r.qs, r.ps, r.kq4, r.kp4); err != nil {
		return err
	}

	dt6 := dt / 6.0
	for i := range qk {
		qNext[i] = qk[i] + dt6*(r.kq1[i]+2*r.kq2[i]+2*r.kq3[i]+r.kq4[i])
		pNext[i] = pk[i] + dt6*(r.kp1[i]+2*r.kp2[i]+2*r.kp3[i]+r.kp4[i])
	}

	return nil
}
