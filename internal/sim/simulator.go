package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/orbitsim/internal/bodies"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/physics"
)

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// Simulator owns a barycentric body set and the field built from it. It
// is safe to call Run, Solve and Advance concurrently.
type Simulator struct {
	set    bodies.Set
	cfg    Config
	field  *physics.Gravity
	logger *slog.Logger
}

// New validates the inputs and shifts the set into the barycentric frame.
// The caller's set is left untouched.
func New(set bodies.Set, cfg Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	shifted := set.Barycentric()
	field, err := physics.NewGravity(shifted, cfg.Constants)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		set:    shifted,
		cfg:    cfg,
		field:  field,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Simulator) Bodies() bodies.Set      { return s.set }
func (s *Simulator) Config() Config          { return s.cfg }
func (s *Simulator) Field() *physics.Gravity { return s.field }

// Initial is the barycentric state at T0.
func (s *Simulator) Initial() Snapshot {
	q, p := s.set.Flatten()
	return Snapshot{Time: s.cfg.T0, Q: q, P: p}
}

// Run solves [T0, TN] once per scheme and returns the results in the
// order given. With no schemes, every scheme runs.
func (s *Simulator) Run(ctx context.Context, schemes ...integrators.Scheme) ([]*Result, error) {
	if len(schemes) == 0 {
		schemes = integrators.AllSchemes()
	}
	for _, scheme := range schemes {
		if _, err := integrators.New(scheme); err != nil {
			return nil, err
		}
	}

	rows, err := s.cfg.Rows()
	if err != nil {
		return nil, err
	}
	if err := checkBudget(rows, s.field.Dim(), s.cfg.MaxSamples); err != nil {
		return nil, err
	}

	start := s.Initial()
	s.logger.Debug("run started",
		"bodies", s.field.NumBodies(),
		"schemes", len(schemes),
		"rows", rows,
		"dt", s.cfg.Dt,
		"parallel", s.cfg.Parallel)

	if s.cfg.Parallel && len(schemes) > 1 {
		return s.runParallel(ctx, schemes, start, rows)
	}

	results := make([]*Result, len(schemes))
	for i, scheme := range schemes {
		res, err := s.Solve(ctx, scheme, start, rows)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}

// Solve integrates rows-1 steps of the configured dt from start.
func (s *Simulator) Solve(ctx context.Context, scheme integrators.Scheme, start Snapshot, rows int) (*Result, error) {
	integ, err := integrators.New(scheme)
	if err != nil {
		return nil, err
	}

	width := s.field.Dim()
	if len(start.Q) != width || len(start.P) != width {
		return nil, fmt.Errorf("%w: snapshot has %d/%d coordinates, want %d",
			dynamo.ErrInvalidConfig, len(start.Q), len(start.P), width)
	}
	if err := checkBudget(rows, width, s.cfg.MaxSamples); err != nil {
		return nil, err
	}

	dt := s.cfg.Dt
	res := &Result{
		Solver:          scheme.String(),
		Scheme:          scheme,
		Times:           make([]float64, rows),
		Q:               allocRows(rows, width),
		P:               allocRows(rows, width),
		Energy:          make([]float64, rows),
		AngularMomentum: make([]float64, rows),
		AreaSwept:       make([]float64, rows),
	}
	for k := range res.Times {
		res.Times[k] = start.Time + float64(k)*dt
	}
	copy(res.Q[0], start.Q)
	copy(res.P[0], start.P)

	fail := func(step int, err error) error {
		if errors.Is(err, dynamo.ErrSingularity) {
			s.logger.Warn("singularity", "solver", res.Solver, "step", step, "err", err)
		}
		return &dynamo.SimulationError{Solver: res.Solver, Step: step, Time: res.Times[step], Wrapped: err}
	}

	if err := s.observe(res, 0); err != nil {
		return nil, fail(0, err)
	}

	began := time.Now()
	err = integrators.Sweep(ctx, integ, s.field, res.Q, res.P, dt, func(k int) error {
		return s.observe(res, k)
	})
	if err != nil {
		var stepErr *integrators.StepError
		if errors.As(err, &stepErr) {
			return nil, fail(stepErr.Step, stepErr.Wrapped)
		}
		return nil, fmt.Errorf("%s: %w", res.Solver, err)
	}
	res.Elapsed = time.Since(began)

	s.logger.Debug("solver finished",
		"solver", res.Solver,
		"steps", rows-1,
		"energy_drift", res.EnergyDrift(),
		"elapsed", res.Elapsed)

	return res, nil
}

// Advance integrates span days from a snapshot and hands back the final
// state for the next call. Spans shorter than dt return the snapshot
// unchanged.
func (s *Simulator) Advance(ctx context.Context, scheme integrators.Scheme, from Snapshot, span float64) (*Result, Snapshot, error) {
	rows, err := MeshRows(span, s.cfg.Dt)
	if err != nil {
		return nil, Snapshot{}, err
	}
	res, err := s.Solve(ctx, scheme, from, rows)
	if err != nil {
		return nil, Snapshot{}, err
	}
	return res, res.Final(), nil
}

// observe validates row k and fills its diagnostics.
func (s *Simulator) observe(res *Result, k int) error {
	q, p := res.Q[k], res.P[k]
	if !q.IsValid() || !p.IsValid() {
		return dynamo.ErrInvalidState
	}

	h, err := metrics.Hamiltonian(s.field, q, p)
	if err != nil {
		return err
	}
	res.Energy[k] = h
	res.AngularMomentum[k] = metrics.AngularMomentum(q, p)
	if k > 0 {
		res.AreaSwept[k] = metrics.AreaSwept(res.Q[k-1], q)
	}
	return nil
}

// Run is the one-shot form: default constants, parallel scheme runs.
func Run(ctx context.Context, set bodies.Set, t0, tN, dt float64, schemes ...integrators.Scheme) ([]*Result, error) {
	cfg := DefaultConfig()
	cfg.T0, cfg.TN, cfg.Dt = t0, tN, dt

	s, err := New(set, cfg)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, schemes...)
}
