package export

import (
	"context"
	"strings"
	"testing"

	"github.com/san-kum/orbitsim/internal/bodies"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/sim"
)

func TestOrbitsSVG(t *testing.T) {
	results, err := sim.Run(context.Background(), bodies.SunJupiterSaturn(), 0, 3650, 30, integrators.SchemeStormerVerlet)
	if err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	if err := OrbitsSVG(&sb, results[0], []string{"Sun", "Jupiter"}, 400); err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	if !strings.HasPrefix(out, "<?xml") || !strings.HasSuffix(strings.TrimSpace(out), "</svg>") {
		t.Error("malformed svg document")
	}
	if got := strings.Count(out, "<path"); got != 3 {
		t.Errorf("paths = %d, want 3", got)
	}
	for _, label := range []string{">Sun<", ">Jupiter<", ">body 2<", "stormer-verlet"} {
		if !strings.Contains(out, label) {
			t.Errorf("missing %q", label)
		}
	}
}

func TestOrbitsSVG_TooShort(t *testing.T) {
	res := &sim.Result{Times: []float64{0}}
	if err := OrbitsSVG(&strings.Builder{}, res, nil, 0); err == nil {
		t.Error("expected error for a single row")
	}
}
