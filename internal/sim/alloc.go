package sim

import (
	"fmt"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// checkBudget rejects meshes whose Q, P and three diagnostic series would
// exceed limit float64s. A zero limit means DefaultMaxSamples.
func checkBudget(rows, width, limit int) error {
	if limit == 0 {
		limit = DefaultMaxSamples
	}
	perRow := 2*width + 3
	if rows <= 0 || rows > limit/perRow {
		return fmt.Errorf("%w: %d rows of %d bodies (limit %d samples)",
			dynamo.ErrAllocation, rows, width/3, limit)
	}
	return nil
}

// allocRows carves rows×width states out of one contiguous block.
func allocRows(rows, width int) []dynamo.State {
	block := make([]float64, rows*width)
	out := make([]dynamo.State, rows)
	for k := range out {
		out[k] = dynamo.State(block[k*width : (k+1)*width : (k+1)*width])
	}
	return out
}
