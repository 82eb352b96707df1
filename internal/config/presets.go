package config

import (
	"slices"

	"github.com/san-kum/orbitsim/internal/physics"
)

var (
	sunJupiter       = []BodyConfig{{Name: "Sun"}, {Name: "Jupiter"}}
	sunJupiterSaturn = []BodyConfig{{Name: "Sun"}, {Name: "Jupiter"}, {Name: "Saturn"}}
	allSolvers       = []string{"heun", "rk4", "euler-symplectic", "stormer-verlet"}
)

var Presets = map[string]*Config{
	"sun-jupiter": {
		TN: 365.25, Dt: 30, Parallel: true,
		Solvers: allSolvers, Bodies: sunJupiter,
	},
	"jovian-period": {
		TN: 4332, Dt: 30, Parallel: true,
		Solvers: allSolvers, Bodies: sunJupiter,
	},
	"sun-jupiter-saturn": {
		TN: 3652.5, Dt: 30, Parallel: true,
		Solvers: allSolvers, Bodies: sunJupiterSaturn,
	},
	"outer-century": {
		TN: 36525, Dt: 50, Parallel: true,
		Solvers: []string{"rk4", "stormer-verlet"}, Bodies: sunJupiterSaturn,
	},
}

// GetPreset returns a copy of the named preset with constants filled in,
// or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.G = physics.GaussianG
	cfg.MinSeparation = DefaultMinSeparation
	cfg.Solvers = slices.Clone(p.Solvers)
	cfg.Bodies = slices.Clone(p.Bodies)
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
