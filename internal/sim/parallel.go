package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/orbitsim/internal/integrators"
)

// runParallel solves every scheme on its own goroutine. Each run owns its
// arrays and integrator; the field is shared read-only. The first failure
// cancels the remaining runs.
func (s *Simulator) runParallel(ctx context.Context, schemes []integrators.Scheme, start Snapshot, rows int) ([]*Result, error) {
	results := make([]*Result, len(schemes))

	g, gctx := errgroup.WithContext(ctx)
	for i, scheme := range schemes {
		g.Go(func() error {
			res, err := s.Solve(gctx, scheme, start, rows)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
