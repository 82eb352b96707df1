package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Norm(s, 2)
}

// Bodies returns the number of triplets held by s.
func (s State) Bodies() int { return len(s) / 3 }

func (s State) Triplet(i int) (x, y, z float64) {
	return s[3*i], s[3*i+1], s[3*i+2]
}

func (s State) SetTriplet(i int, x, y, z float64) {
	s[3*i], s[3*i+1], s[3*i+2] = x, y, z
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	floats.SubTo(result, s, other)
	return result
}

// VectorField is the right-hand side of Hamilton's equations for a
// separable Hamiltonian H(q, p) = T(p) + V(q).
type VectorField interface {
	// Dim is the length of the flattened q and p vectors.
	Dim() int
	// Velocity writes dq/dt into dst.
	Velocity(q, p, dst State)
	// Force writes dp/dt into dst. It fails instead of producing
	// non-finite values.
	Force(q, p, dst State) error
}
