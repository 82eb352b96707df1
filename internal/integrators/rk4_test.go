package integrators

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// harmonicOscillator is H = (q² + p²)/2 with unit mass.
type harmonicOscillator struct {
	forces int
}

func (h *harmonicOscillator) Dim() int { return 1 }

func (h *harmonicOscillator) Velocity(q, p, dst dynamo.State) {
	dst[0] = p[0]
}

func (h *harmonicOscillator) Force(q, p, dst dynamo.State) error {
	h.forces++
	dst[0] = -q[0]
	return nil
}

func (h *harmonicOscillator) Energy(q, p dynamo.State) float64 {
	return 0.5 * (q[0]*q[0] + p[0]*p[0])
}

func integrate(t *testing.T, s Scheme, f dynamo.VectorField, q0, p0 float64, dt float64, steps int) (float64, float64) {
	t.Helper()
	integ, err := New(s)
	if err != nil {
		t.Fatalf("New(%s): %v", s, err)
	}
	q, p := dynamo.State{q0}, dynamo.State{p0}
	qn, pn := make(dynamo.State, 1), make(dynamo.State, 1)
	for i := 0; i < steps; i++ {
		if err := integ.Step(f, q, p, qn, pn, dt); err != nil {
			t.Fatalf("%s step %d: %v", s, i, err)
		}
		q, qn = qn, q
		p, pn = pn, p
	}
	return q[0], p[0]
}

func TestRK4Accuracy(t *testing.T) {
	dyn := &harmonicOscillator{}
	dt := 0.01
	steps := 100

	q, p := integrate(t, SchemeRK4, dyn, 1, 0, dt, steps)

	expectedQ := math.Cos(float64(steps) * dt)
	expectedP := -math.Sin(float64(steps) * dt)

	if math.Abs(q-expectedQ) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", q, expectedQ)
	}
	if math.Abs(p-expectedP) > 1e-8 {
		t.Errorf("momentum error too large: got %.10f, expected %.10f", p, expectedP)
	}
}

func TestHeunAccuracy(t *testing.T) {
	q, p := integrate(t, SchemeHeun, &harmonicOscillator{}, 1, 0, 0.01, 100)

	if math.Abs(q-math.Cos(1)) > 1e-4 || math.Abs(p+math.Sin(1)) > 1e-4 {
		t.Errorf("heun final state (%.6f, %.6f), expected (%.6f, %.6f)", q, p, math.Cos(1), -math.Sin(1))
	}
}

func TestConvergenceOrder(t *testing.T) {
	tests := []struct {
		scheme   Scheme
		min, max float64
	}{
		{SchemeHeun, 3.5, 4.5},
		{SchemeRK4, 14, 18},
		{SchemeSymplecticEuler, 1.8, 2.2},
		{SchemeStormerVerlet, 3.5, 4.5},
	}

	for _, tt := range tests {
		t.Run(tt.scheme.String(), func(t *testing.T) {
			qa, pa := integrate(t, tt.scheme, &harmonicOscillator{}, 1, 0, 0.02, 50)
			qb, pb := integrate(t, tt.scheme, &harmonicOscillator{}, 1, 0, 0.01, 100)

			errA := math.Hypot(qa-math.Cos(1), pa+math.Sin(1))
			errB := math.Hypot(qb-math.Cos(1), pb+math.Sin(1))
			ratio := errA / errB

			if ratio < tt.min || ratio > tt.max {
				t.Errorf("error ratio %.3f outside [%v, %v]", ratio, tt.min, tt.max)
			}
		})
	}
}

func TestSymplecticEulerOrdering(t *testing.T) {
	q, p := integrate(t, SchemeSymplecticEuler, &harmonicOscillator{}, 1, 0, 0.1, 1)

	// Momentum first, then position with the new momentum.
	if math.Abs(p-(-0.1)) > 1e-15 {
		t.Errorf("p1 = %v, want -0.1", p)
	}
	if math.Abs(q-0.99) > 1e-15 {
		t.Errorf("q1 = %v, want 0.99", q)
	}
}

func TestEnergyBehaviour(t *testing.T) {
	const (
		dt    = 0.1
		steps = 10000
	)

	maxDrift := func(s Scheme) (float64, float64) {
		dyn := &harmonicOscillator{}
		integ, _ := New(s)
		q, p := dynamo.State{1}, dynamo.State{0}
		qn, pn := make(dynamo.State, 1), make(dynamo.State, 1)
		e0 := dyn.Energy(q, p)
		worst := 0.0
		for i := 0; i < steps; i++ {
			if err := integ.Step(dyn, q, p, qn, pn, dt); err != nil {
				t.Fatal(err)
			}
			q, qn = qn, q
			p, pn = pn, p
			worst = math.Max(worst, math.Abs(dyn.Energy(q, p)-e0)/e0)
		}
		return worst, math.Abs(dyn.Energy(q, p)-e0) / e0
	}

	verletMax, _ := maxDrift(SchemeStormerVerlet)
	eulerMax, _ := maxDrift(SchemeSymplecticEuler)
	_, heunFinal := maxDrift(SchemeHeun)

	if verletMax > 0.01 {
		t.Errorf("verlet energy error not bounded: %e", verletMax)
	}
	if eulerMax > 0.08 {
		t.Errorf("symplectic euler energy error not bounded: %e", eulerMax)
	}
	if heunFinal < 0.1 {
		t.Errorf("expected heun to drift secularly, final drift %e", heunFinal)
	}
	if heunFinal <= verletMax {
		t.Errorf("heun drift %e should exceed verlet %e", heunFinal, verletMax)
	}
}

func TestVerletTimeReversal(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewStormerVerlet()

	q, p := dynamo.State{0.3}, dynamo.State{0.8}
	qn, pn := make(dynamo.State, 1), make(dynamo.State, 1)

	for _, dt := range []float64{0.05, -0.05} {
		for i := 0; i < 500; i++ {
			if err := integ.Step(dyn, q, p, qn, pn, dt); err != nil {
				t.Fatal(err)
			}
			q, qn = qn, q
			p, pn = pn, p
		}
	}

	if math.Abs(q[0]-0.3) > 1e-11 || math.Abs(p[0]-0.8) > 1e-11 {
		t.Errorf("round trip ended at (%.15f, %.15f)", q[0], p[0])
	}
}

func TestForceEvaluationsPerStep(t *testing.T) {
	tests := []struct {
		scheme Scheme
		want   int
	}{
		{SchemeHeun, 2},
		{SchemeRK4, 4},
		{SchemeSymplecticEuler, 1},
		{SchemeStormerVerlet, 2},
	}

	for _, tt := range tests {
		dyn := &harmonicOscillator{}
		integrate(t, tt.scheme, dyn, 1, 0, 0.1, 10)
		if dyn.forces != 10*tt.want {
			t.Errorf("%s: %d force evaluations over 10 steps, want %d", tt.scheme, dyn.forces, 10*tt.want)
		}
	}
}

func TestParseScheme(t *testing.T) {
	for _, s := range AllSchemes() {
		got, err := ParseScheme(s.String())
		if err != nil || got != s {
			t.Errorf("ParseScheme(%q) = %v, %v", s.String(), got, err)
		}
		integ, err := New(s)
		if err != nil || integ.Scheme() != s {
			t.Errorf("New(%s) returned %v, %v", s, integ, err)
		}
	}

	if s, err := ParseScheme(" Leapfrog "); err != nil || s != SchemeStormerVerlet {
		t.Errorf("alias leapfrog: %v, %v", s, err)
	}
	if _, err := ParseScheme("rk45"); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := New(Scheme(42)); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for unknown scheme, got %v", err)
	}

	list, err := ParseSchemes([]string{"verlet", "rk4", "stormer-verlet"})
	if err != nil || len(list) != 2 || list[0] != SchemeStormerVerlet || list[1] != SchemeRK4 {
		t.Errorf("ParseSchemes = %v, %v", list, err)
	}

	if !SchemeStormerVerlet.Symplectic() || SchemeRK4.Symplectic() {
		t.Error("Symplectic() misreports")
	}
}

type failingField struct {
	harmonicOscillator
	failAt int
}

func (f *failingField) Force(q, p, dst dynamo.State) error {
	f.forces++
	if f.forces >= f.failAt {
		return &dynamo.SingularityError{BodyI: "a", BodyJ: "b"}
	}
	dst[0] = -q[0]
	return nil
}

func rows(n int) []dynamo.State {
	out := make([]dynamo.State, n)
	for i := range out {
		out[i] = make(dynamo.State, 1)
	}
	return out
}

func TestSweep(t *testing.T) {
	q, p := rows(6), rows(6)
	q[0][0] = 1

	var seen []int
	err := Sweep(context.Background(), NewStormerVerlet(), &harmonicOscillator{}, q, p, 0.1, func(k int) error {
		seen = append(seen, k)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(seen) != 5 || seen[0] != 1 || seen[4] != 5 {
		t.Errorf("after called with %v", seen)
	}
	if q[5][0] == 0 || q[5][0] == 1 {
		t.Errorf("last row not filled: %v", q[5])
	}
}

func TestSweep_StopsOnError(t *testing.T) {
	q, p := rows(10), rows(10)
	q[0][0] = 1

	// Verlet evaluates the force twice per step: the 5th call is step 3.
	err := Sweep(context.Background(), NewStormerVerlet(), &failingField{failAt: 5}, q, p, 0.1, nil)

	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != 3 {
		t.Fatalf("expected failure at step 3, got %v", err)
	}
	if !errors.Is(err, dynamo.ErrSingularity) {
		t.Errorf("expected singularity to unwrap, got %v", err)
	}
	for k := 4; k < 10; k++ {
		if q[k][0] != 0 {
			t.Errorf("row %d written after failure", k)
		}
	}
}

func TestSweep_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q, p := rows(3), rows(3)
	err := Sweep(ctx, NewRK4(), &harmonicOscillator{}, q, p, 0.1, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
