// Package dynamo provides the shared primitives of the orbit integrator.
//
// The package defines the types every other package agrees on:
//
//   - [State]: flattened vector of body triplets (positions or momenta)
//   - [VectorField]: right-hand side of Hamilton's equations, split into
//     a position channel (dq/dt) and a momentum channel (dp/dt)
//   - [SingularityError] and [SimulationError]: typed failures
//   - [ParallelFor]: chunked fan-out used by the pairwise force sum
//
// # Layout
//
// A state for N bodies has length 3N. Body i occupies indices 3i..3i+2:
//
//	q := dynamo.State{x0, y0, z0, x1, y1, z1}
//	xi, yi, zi := q.Triplet(1)
//
// # Thread Safety
//
// State values are plain slices and carry no synchronisation. A
// [VectorField] implementation must be safe for concurrent reads, since
// one field is shared by all integrator runs of a batch.
package dynamo
