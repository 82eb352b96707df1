// Package physics provides the Newtonian vector field of the N-body
// problem.
//
// [Gravity] implements [dynamo.VectorField] for a fixed [bodies.Set]:
//
//   - Velocity: dq_i/dt = p_i / m_i
//   - Force: dp_i/dt = -Σ_{j≠i} G m_i m_j (q_i - q_j) / |q_i - q_j|³
//
// Forces use direct pairwise summation. Above [Constants.ParallelThreshold]
// bodies the sum is split by rows across goroutines.
//
// # Units
//
// [DefaultConstants] works in days, AU and solar masses with the Gaussian
// value of G. Mixing [SIConstants] with AU/day states is a unit error:
//
//	field, err := physics.NewGravity(set, physics.DefaultConstants())
//
// # Singularities
//
// Force returns a [dynamo.SingularityError] instead of dividing by a
// separation below [Constants.MinSeparation].
package physics
