package bodies

import (
	"fmt"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// Set is an ordered body registry. Registry order fixes the triplet
// layout of every state vector derived from it.
type Set []Body

func (s Set) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: empty body set", dynamo.ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(s))
	for _, b := range s {
		if err := b.Validate(); err != nil {
			return err
		}
		if _, dup := seen[b.Name]; dup {
			return fmt.Errorf("%w: duplicate body name %q", dynamo.ErrInvalidConfig, b.Name)
		}
		seen[b.Name] = struct{}{}
	}
	return nil
}

func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, b := range s {
		names[i] = b.Name
	}
	return names
}

func (s Set) Masses() []float64 {
	masses := make([]float64, len(s))
	for i, b := range s {
		masses[i] = b.Mass
	}
	return masses
}

func (s Set) TotalMass() float64 {
	total := 0.0
	for _, b := range s {
		total += b.Mass
	}
	return total
}

// Index returns the registry position of the named body, or -1.
func (s Set) Index(name string) int {
	for i, b := range s {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// Flatten returns the initial position and momentum state vectors.
func (s Set) Flatten() (q, p dynamo.State) {
	q = make(dynamo.State, 3*len(s))
	p = make(dynamo.State, 3*len(s))
	for i, b := range s {
		q.SetTriplet(i, b.Position[0], b.Position[1], b.Position[2])
		p.SetTriplet(i, b.Momentum[0], b.Momentum[1], b.Momentum[2])
	}
	return q, p
}

// WithState returns a copy of s whose initial conditions are taken from
// the flattened q and p. Names and masses are kept.
func (s Set) WithState(q, p dynamo.State) Set {
	out := make(Set, len(s))
	for i, b := range s {
		x, y, z := q.Triplet(i)
		px, py, pz := p.Triplet(i)
		out[i] = New(b.Name, b.Mass, Vec3{x, y, z}, Vec3{px, py, pz})
	}
	return out
}

// CenterOfMass returns Σ m_i q_i / M and Σ p_i / M for the set's initial
// conditions.
func (s Set) CenterOfMass() (position, velocity Vec3) {
	total := s.TotalMass()
	for _, b := range s {
		position = position.Add(b.Position.Scale(b.Mass))
		velocity = velocity.Add(b.Momentum)
	}
	return position.Scale(1 / total), velocity.Scale(1 / total)
}

// Barycentric returns a copy of s shifted into the centre-of-mass rest
// frame: positions lose the mass-weighted mean position and each
// momentum loses m_i times the mean velocity.
func (s Set) Barycentric() Set {
	meanPos, meanVel := s.CenterOfMass()
	out := make(Set, len(s))
	for i, b := range s {
		out[i] = New(b.Name, b.Mass, b.Position.Sub(meanPos), b.Momentum.Sub(meanVel.Scale(b.Mass)))
	}
	return out
}

// MassMoment returns Σ m_i q_i for a flattened position vector.
func MassMoment(q dynamo.State, masses []float64) Vec3 {
	var m Vec3
	for i, mass := range masses {
		x, y, z := q.Triplet(i)
		m = m.Add(Vec3{x, y, z}.Scale(mass))
	}
	return m
}
