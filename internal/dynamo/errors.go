package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a rejected body set or run configuration.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrSingularity indicates two bodies came closer than the separation tolerance.
	ErrSingularity = errors.New("dynamo: numerical singularity")

	// ErrAllocation indicates the requested mesh is too large to allocate.
	ErrAllocation = errors.New("dynamo: state arrays exceed allocation limit")

	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// SingularityError names the pair of bodies whose separation fell below
// the tolerance.
type SingularityError struct {
	I, J         int
	BodyI, BodyJ string
	Distance     float64
	Tolerance    float64
}

func (e *SingularityError) Error() string {
	return fmt.Sprintf("bodies %q (#%d) and %q (#%d) are %.3e AU apart (tolerance %.1e)",
		e.BodyI, e.I, e.BodyJ, e.J, e.Distance, e.Tolerance)
}

func (e *SingularityError) Is(target error) bool {
	return target == ErrSingularity
}

// SimulationError wraps an error with the run context it occurred in.
type SimulationError struct {
	Solver  string
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("%s: step %d (t=%.4f): %v", e.Solver, e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
