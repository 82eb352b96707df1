package integrators

import (
	"context"
	"fmt"
	"strings"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// Scheme identifies one of the supported step maps.
type Scheme int

const (
	SchemeHeun Scheme = iota
	SchemeRK4
	SchemeSymplecticEuler
	SchemeStormerVerlet
)

// AllSchemes lists every scheme in comparison order.
func AllSchemes() []Scheme {
	return []Scheme{SchemeHeun, SchemeRK4, SchemeSymplecticEuler, SchemeStormerVerlet}
}

func (s Scheme) String() string {
	switch s {
	case SchemeHeun:
		return "heun"
	case SchemeRK4:
		return "rk4"
	case SchemeSymplecticEuler:
		return "euler-symplectic"
	case SchemeStormerVerlet:
		return "stormer-verlet"
	}
	return fmt.Sprintf("scheme(%d)", int(s))
}

// Label is the human-readable name used in reports.
func (s Scheme) Label() string {
	switch s {
	case SchemeHeun:
		return "Heun (RK2)"
	case SchemeRK4:
		return "RK4"
	case SchemeSymplecticEuler:
		return "Symplectic Euler"
	case SchemeStormerVerlet:
		return "Störmer-Verlet"
	}
	return s.String()
}

// Symplectic reports whether the step map preserves phase-space volume.
func (s Scheme) Symplectic() bool {
	return s == SchemeSymplecticEuler || s == SchemeStormerVerlet
}

func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "heun", "rk2":
		return SchemeHeun, nil
	case "rk4":
		return SchemeRK4, nil
	case "euler-symplectic", "symplectic-euler", "euler":
		return SchemeSymplecticEuler, nil
	case "stormer-verlet", "verlet", "leapfrog":
		return SchemeStormerVerlet, nil
	}
	return 0, fmt.Errorf("%w: unknown integrator %q", dynamo.ErrInvalidConfig, name)
}

// ParseSchemes parses a list of names, dropping duplicates but keeping order.
func ParseSchemes(names []string) ([]Scheme, error) {
	out := make([]Scheme, 0, len(names))
	seen := make(map[Scheme]bool, len(names))
	for _, name := range names {
		s, err := ParseScheme(name)
		if err != nil {
			return nil, err
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

// Integrator advances (q_k, p_k) to (q_k+1, p_k+1) in one step. The next
// rows are written in place and must not alias the current ones.
// Implementations reuse scratch buffers and are not safe for concurrent use.
type Integrator interface {
	Scheme() Scheme
	Step(f dynamo.VectorField, qk, pk, qNext, pNext dynamo.State, dt float64) error
}

func New(s Scheme) (Integrator, error) {
	switch s {
	case SchemeHeun:
		return NewHeun(), nil
	case SchemeRK4:
		return NewRK4(), nil
	case SchemeSymplecticEuler:
		return NewSymplecticEuler(), nil
	case SchemeStormerVerlet:
		return NewStormerVerlet(), nil
	}
	return nil, fmt.Errorf("%w: unknown integrator %s", dynamo.ErrInvalidConfig, s)
}

// Sweep fills rows 1..len(q)-1 of q and p from row 0, strictly forward.
// after(k) runs once row k has been written; an error from a step or from
// after stops the sweep. The context is polled every 1024 steps.
func Sweep(ctx context.Context, integ Integrator, f dynamo.VectorField, q, p []dynamo.State, dt float64, after func(k int) error) error {
	for k := 0; k+1 < len(q); k++ {
		if k&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if err := integ.Step(f, q[k], p[k], q[k+1], p[k+1], dt); err != nil {
			return &StepError{Step: k + 1, Wrapped: err}
		}

		if after != nil {
			if err := after(k + 1); err != nil {
				return &StepError{Step: k + 1, Wrapped: err}
			}
		}
	}
	return nil
}

// StepError records the row index a sweep failed to produce.
type StepError struct {
	Step    int
	Wrapped error
}

func (e *StepError) Error() string { return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped) }
func (e *StepError) Unwrap() error { return e.Wrapped }

func ensure(buf *dynamo.State, n int) {
	if len(*buf) != n {
		*buf = make(dynamo.State, n)
	}
}
