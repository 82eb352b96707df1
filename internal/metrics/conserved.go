package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
)

// Hamiltonian returns the total energy Σ|p_i|²/2m_i - Σ_{i<j} G m_i m_j/r_ij.
// Each pair contributes once. It fails with a singularity error rather
// than returning -Inf.
func Hamiltonian(g *physics.Gravity, q, p dynamo.State) (float64, error) {
	n := g.NumBodies()
	ke := 0.0
	pe := 0.0

	for i := 0; i < n; i++ {
		pi := p[3*i : 3*i+3]
		ke += floats.Dot(pi, pi) / (2 * g.Mass(i))

		for j := i + 1; j < n; j++ {
			r := g.Distance(q, i, j)
			if r < g.MinSeparation() {
				return 0, g.Separation(q)
			}
			pe -= g.G() * g.Mass(i) * g.Mass(j) / r
		}
	}

	return ke + pe, nil
}

// AngularMomentumVector returns the total Σ q_i × p_i. Since p_i = m_i v_i
// this equals Σ m_i q_i × v_i.
func AngularMomentumVector(q, p dynamo.State) [3]float64 {
	var l [3]float64
	for i := 0; i < q.Bodies(); i++ {
		x, y, z := q.Triplet(i)
		px, py, pz := p.Triplet(i)
		l[0] += y*pz - z*py
		l[1] += z*px - x*pz
		l[2] += x*py - y*px
	}
	return l
}

// AngularMomentum is the magnitude of the vector sum, the quantity an
// isolated system conserves. The diagnostic series store this value.
func AngularMomentum(q, p dynamo.State) float64 {
	l := AngularMomentumVector(q, p)
	return floats.Norm(l[:], 2)
}

// AreaSweptBody approximates the area swept by body i between two
// snapshots as ½|q_k||q_k+1|Δθ, with θ the polar angle in the xy-plane.
func AreaSweptBody(prev, next dynamo.State, i int) float64 {
	x0, y0, z0 := prev.Triplet(i)
	x1, y1, z1 := next.Triplet(i)

	r0 := math.Sqrt(x0*x0 + y0*y0 + z0*z0)
	r1 := math.Sqrt(x1*x1 + y1*y1 + z1*z1)

	dTheta := math.Abs(math.Atan2(y1, x1) - math.Atan2(y0, x0))
	if dTheta > math.Pi {
		dTheta = 2*math.Pi - dTheta
	}

	return 0.5 * r0 * r1 * dTheta
}

// AreaSwept sums AreaSweptBody over all bodies. It is exact only for
// motion confined to a plane through the origin.
func AreaSwept(prev, next dynamo.State) float64 {
	total := 0.0
	for i := 0; i < prev.Bodies(); i++ {
		total += AreaSweptBody(prev, next, i)
	}
	return total
}
