package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orbitsim/internal/bodies"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/sim"
)

const jovianPeriod = 4332.0

func simulator(set bodies.Set, tN, dt float64, mutate ...func(*sim.Config)) *sim.Simulator {
	cfg := sim.DefaultConfig()
	cfg.TN, cfg.Dt = tN, dt
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := sim.New(set, cfg)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func solve(set bodies.Set, scheme integrators.Scheme, tN, dt float64) *sim.Result {
	results, err := simulator(set, tN, dt).Run(context.Background(), scheme)
	Expect(err).NotTo(HaveOccurred())
	Expect(results).To(HaveLen(1))
	return results[0]
}

func polarAngle(q dynamo.State, i int) float64 {
	x, y, _ := q.Triplet(i)
	return math.Atan2(y, x)
}

var _ = Describe("Simulator", func() {
	ctx := context.Background()

	Describe("one year of Sun and Jupiter", func() {
		var results []*sim.Result

		BeforeEach(func() {
			var err error
			results, err = sim.Run(ctx, bodies.SunJupiter(), 0, 365.25, 30, integrators.AllSchemes()...)
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns one result per scheme in request order", func() {
			Expect(results).To(HaveLen(4))
			for i, scheme := range integrators.AllSchemes() {
				Expect(results[i].Scheme).To(Equal(scheme))
				Expect(results[i].Solver).To(Equal(scheme.String()))
			}
		})

		It("fills a 13-row mesh", func() {
			for _, res := range results {
				Expect(res.Len()).To(Equal(13))
				Expect(res.Q).To(HaveLen(13))
				Expect(res.Q[12]).To(HaveLen(6))
				Expect(res.Energy).To(HaveLen(13))
				Expect(res.Times[12]).To(BeNumerically("~", 360, 1e-9))
			}
		})

		It("keeps the energy within one percent", func() {
			for _, res := range results {
				drift := math.Abs(res.Energy[12]-res.Energy[0]) / math.Abs(res.Energy[0])
				Expect(drift).To(BeNumerically("<", 0.01), res.Solver)
				Expect(res.EnergyDrift()).To(BeNumerically("~", drift, 1e-15))
			}
		})

		It("starts every scheme from the same barycentric state", func() {
			masses := bodies.SunJupiter().Masses()
			for _, res := range results {
				Expect(res.Q[0]).To(Equal(results[0].Q[0]))
				Expect(res.P[0]).To(Equal(results[0].P[0]))

				moment := bodies.MassMoment(res.Q[0], masses)
				for _, c := range moment {
					Expect(c).To(BeNumerically("~", 0, 1e-14))
				}
				var total [3]float64
				for i := 0; i < 2; i++ {
					px, py, pz := res.P[0].Triplet(i)
					total[0] += px
					total[1] += py
					total[2] += pz
				}
				for _, c := range total {
					Expect(c).To(BeNumerically("~", 0, 1e-18))
				}
			}
		})

		It("does not touch the caller's bodies", func() {
			set := bodies.SunJupiter()
			_, err := sim.Run(ctx, set, 0, 365.25, 30, integrators.SchemeStormerVerlet)
			Expect(err).NotTo(HaveOccurred())
			Expect(set[0].Position).To(Equal(bodies.Vec3{}))
			Expect(set[1]).To(Equal(bodies.Jupiter()))
		})

		It("seeds the swept area with zero and accumulates positive steps", func() {
			for _, res := range results {
				Expect(res.AreaSwept[0]).To(BeZero())
				for _, a := range res.AreaSwept[1:] {
					Expect(a).To(BeNumerically(">", 0))
				}
			}
		})
	})

	Describe("over one Jovian period", func() {
		It("keeps Störmer-Verlet energy drift below 1e-3", func() {
			res := solve(bodies.SunJupiter(), integrators.SchemeStormerVerlet, jovianPeriod, 30)
			Expect(res.Len()).To(Equal(145))
			Expect(res.MaxEnergyDrift()).To(BeNumerically("<", 1e-3))
		})

		It("brings Jupiter back close to its starting angle", func() {
			res := solve(bodies.SunJupiter(), integrators.SchemeStormerVerlet, jovianPeriod, 30)
			delta := math.Abs(polarAngle(res.Q[res.Len()-1], 1) - polarAngle(res.Q[0], 1))
			Expect(delta).To(BeNumerically("<", 0.05))
		})

		It("sweeps comparable areas in equal times", func() {
			res := solve(bodies.SunJupiter(), integrators.SchemeStormerVerlet, jovianPeriod, 30)
			lo, hi := math.Inf(1), 0.0
			for _, a := range res.AreaSwept[1:] {
				lo = math.Min(lo, a)
				hi = math.Max(hi, a)
			}
			Expect(hi / lo).To(BeNumerically("<", 1.3))
			Expect(res.TotalArea()).To(BeNumerically("~", math.Pi*5.2*5.2, 8))
		})

		DescribeTable("conserves angular momentum",
			func(scheme integrators.Scheme, tol float64) {
				res := solve(bodies.SunJupiter(), scheme, jovianPeriod, 10)
				l0 := res.AngularMomentum[0]
				for _, l := range res.AngularMomentum {
					Expect(math.Abs(l-l0) / l0).To(BeNumerically("<", tol))
				}
			},
			Entry("heun", integrators.SchemeHeun, 1e-4),
			Entry("rk4", integrators.SchemeRK4, 1e-8),
			Entry("symplectic euler", integrators.SchemeSymplecticEuler, 1e-12),
			Entry("störmer-verlet", integrators.SchemeStormerVerlet, 1e-12),
		)
	})

	Describe("long-horizon energy behaviour", func() {
		const century = 36525.0

		It("lets Heun drift secularly while Störmer-Verlet stays bounded", func() {
			heunShort := solve(bodies.SunJupiter(), integrators.SchemeHeun, jovianPeriod, 30)
			heunLong := solve(bodies.SunJupiter(), integrators.SchemeHeun, century, 30)
			verletShort := solve(bodies.SunJupiter(), integrators.SchemeStormerVerlet, jovianPeriod, 30)
			verletLong := solve(bodies.SunJupiter(), integrators.SchemeStormerVerlet, century, 30)

			Expect(heunLong.EnergyDrift()).To(BeNumerically(">", 5*heunShort.EnergyDrift()))
			Expect(heunLong.EnergyDrift()).To(BeNumerically(">", verletLong.EnergyDrift()))
			Expect(verletLong.MaxEnergyDrift()).To(BeNumerically("<", 2*verletShort.MaxEnergyDrift()))
		})
	})

	Describe("three bodies", func() {
		It("runs every scheme over ten years", func() {
			results, err := sim.Run(ctx, bodies.SunJupiterSaturn(), 0, 3652.5, 30)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
			for _, res := range results {
				Expect(res.Q[0]).To(HaveLen(9))
				Expect(res.MaxEnergyDrift()).To(BeNumerically("<", 0.01), res.Solver)
			}
		})

		It("keeps the barycentre and total momentum at zero on every row", func() {
			set := bodies.SunJupiterSaturn()
			masses := set.Masses()
			results, err := sim.Run(ctx, set, 0, 3652.5, 30)
			Expect(err).NotTo(HaveOccurred())
			for _, res := range results {
				for k := range res.Q {
					moment := bodies.MassMoment(res.Q[k], masses)
					for _, c := range moment {
						Expect(c).To(BeNumerically("~", 0, 1e-12), "%s row %d", res.Solver, k)
					}

					var total [3]float64
					for i := range masses {
						px, py, pz := res.P[k].Triplet(i)
						total[0] += px
						total[1] += py
						total[2] += pz
					}
					for _, c := range total {
						Expect(c).To(BeNumerically("~", 0, 1e-15), "%s row %d", res.Solver, k)
					}
				}
			}
		})
	})

	Describe("time reversal", func() {
		It("retraces a Störmer-Verlet trajectory when stepping with -dt", func() {
			s := simulator(bodies.SunJupiter(), jovianPeriod, 30)
			forward, err := s.Solve(ctx, integrators.SchemeStormerVerlet, s.Initial(), 145)
			Expect(err).NotTo(HaveOccurred())

			back := simulator(bodies.SunJupiter(), jovianPeriod, 30)
			integ := integrators.NewStormerVerlet()
			q, p := forward.Q[144].Clone(), forward.P[144].Clone()
			qn, pn := make(dynamo.State, len(q)), make(dynamo.State, len(p))
			for k := 0; k < 144; k++ {
				Expect(integ.Step(back.Field(), q, p, qn, pn, -30)).To(Succeed())
				q, qn = qn, q
				p, pn = pn, p
			}

			for i := range q {
				Expect(q[i]).To(BeNumerically("~", forward.Q[0][i], 1e-10))
				Expect(p[i]).To(BeNumerically("~", forward.P[0][i], 1e-14))
			}
		})
	})

	Describe("Advance", func() {
		It("chains sub-intervals into the same trajectory as one run", func() {
			s := simulator(bodies.SunJupiter(), jovianPeriod, 30)
			whole, err := s.Solve(ctx, integrators.SchemeRK4, s.Initial(), 145)
			Expect(err).NotTo(HaveOccurred())

			snap := s.Initial()
			for i := 0; i < 12; i++ {
				var chunk *sim.Result
				chunk, snap, err = s.Advance(ctx, integrators.SchemeRK4, snap, 360)
				Expect(err).NotTo(HaveOccurred())
				Expect(chunk.Len()).To(Equal(13))
			}

			Expect(snap.Time).To(BeNumerically("~", 4320, 1e-9))
			Expect(snap.Q).To(Equal(whole.Q[144]))
			Expect(snap.P).To(Equal(whole.P[144]))
		})

		It("leaves the input snapshot untouched", func() {
			s := simulator(bodies.SunJupiter(), jovianPeriod, 30)
			from := s.Initial()
			saved := from.Clone()

			_, next, err := s.Advance(ctx, integrators.SchemeHeun, from, 300)
			Expect(err).NotTo(HaveOccurred())
			Expect(from).To(Equal(saved))
			Expect(next.Q).NotTo(Equal(from.Q))
		})

		It("returns the snapshot unchanged for spans shorter than dt", func() {
			s := simulator(bodies.SunJupiter(), jovianPeriod, 30)
			_, next, err := s.Advance(ctx, integrators.SchemeRK4, s.Initial(), 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(next).To(Equal(s.Initial()))
		})
	})

	Describe("parallel runs", func() {
		It("matches the serial results exactly", func() {
			serial := simulator(bodies.SunJupiterSaturn(), 3652.5, 30, func(c *sim.Config) { c.Parallel = false })
			parallel := simulator(bodies.SunJupiterSaturn(), 3652.5, 30)

			a, err := serial.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			b, err := parallel.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			for i := range a {
				Expect(b[i].Solver).To(Equal(a[i].Solver))
				Expect(b[i].Q).To(Equal(a[i].Q))
				Expect(b[i].Energy).To(Equal(a[i].Energy))
			}
		})
	})

	Describe("errors", func() {
		It("rejects invalid configurations before running", func() {
			cases := []func(*sim.Config){
				func(c *sim.Config) { c.Dt = 0 },
				func(c *sim.Config) { c.Dt = -30 },
				func(c *sim.Config) { c.TN = c.T0 },
				func(c *sim.Config) { c.Dt = math.NaN() },
				func(c *sim.Config) { c.Constants.G = 0 },
				func(c *sim.Config) { c.Constants.MinSeparation = -1 },
			}
			for _, mutate := range cases {
				cfg := sim.DefaultConfig()
				mutate(&cfg)
				_, err := sim.New(bodies.SunJupiter(), cfg)
				Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue(), "%v", err)
			}
		})

		It("rejects invalid body sets", func() {
			_, err := sim.Run(ctx, bodies.Set{}, 0, 100, 10)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))

			_, err = sim.Run(ctx, bodies.Set{bodies.Sun(), bodies.Sun()}, 0, 100, 10)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))

			bad := bodies.SunJupiter()
			bad[1].Mass = -1
			_, err = sim.Run(ctx, bad, 0, 100, 10)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("rejects unknown schemes", func() {
			_, err := sim.Run(ctx, bodies.SunJupiter(), 0, 100, 10, integrators.Scheme(9))
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("refuses meshes over the sample limit", func() {
			s := simulator(bodies.SunJupiter(), jovianPeriod, 30, func(c *sim.Config) { c.MaxSamples = 1000 })
			_, err := s.Run(ctx)
			Expect(err).To(MatchError(dynamo.ErrAllocation))
		})

		It("reports coincident bodies as a singularity at step 0", func() {
			set := bodies.Set{
				bodies.New("A", 1, bodies.Vec3{1, 0, 0}, bodies.Vec3{}),
				bodies.New("B", 1, bodies.Vec3{1, 0, 0}, bodies.Vec3{}),
			}
			_, err := sim.Run(ctx, set, 0, 100, 10, integrators.SchemeStormerVerlet)
			Expect(err).To(MatchError(dynamo.ErrSingularity))

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(0))
			Expect(simErr.Solver).To(Equal("stormer-verlet"))

			var sing *dynamo.SingularityError
			Expect(errors.As(err, &sing)).To(BeTrue())
			Expect(sing.BodyI).To(Equal("A"))
			Expect(sing.BodyJ).To(Equal("B"))
		})

		It("aborts mid-run with the failing step when bodies get too close", func() {
			s := simulator(bodies.SunJupiter(), jovianPeriod, 30, func(c *sim.Config) {
				c.Constants.MinSeparation = 5.0
			})
			for _, scheme := range integrators.AllSchemes() {
				_, err := s.Solve(ctx, scheme, s.Initial(), 145)
				Expect(err).To(MatchError(dynamo.ErrSingularity))

				var simErr *dynamo.SimulationError
				Expect(errors.As(err, &simErr)).To(BeTrue())
				Expect(simErr.Step).To(BeNumerically(">", 0))
				Expect(simErr.Step).To(BeNumerically("<", 22))
				Expect(simErr.Time).To(BeNumerically("~", float64(simErr.Step)*30, 1e-9))
			}
		})

		It("stops when the context is cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := sim.Run(cancelled, bodies.SunJupiter(), 0, jovianPeriod, 30)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})

var _ = Describe("MeshRows", func() {
	DescribeTable("counts both ends of the interval",
		func(span, dt float64, want int) {
			rows, err := sim.MeshRows(span, dt)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(Equal(want))
		},
		Entry("partial last step", 365.25, 30.0, 13),
		Entry("exact multiple", 1.0, 0.1, 11),
		Entry("jovian period", 4332.0, 30.0, 145),
		Entry("shorter than dt", 10.0, 30.0, 1),
	)

	It("rejects a non-positive dt", func() {
		_, err := sim.MeshRows(10, 0)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})
})
