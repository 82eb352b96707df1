package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbitsim/internal/bodies"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
)

const (
	DefaultT0            = 0.0
	DefaultTN            = 4332.0
	DefaultDt            = 30.0
	DefaultMinSeparation = 1e-8
)

type Config struct {
	T0            float64      `yaml:"t0"`
	TN            float64      `yaml:"tn"`
	Dt            float64      `yaml:"dt"`
	G             float64      `yaml:"g"`
	MinSeparation float64      `yaml:"min_separation"`
	Parallel      bool         `yaml:"parallel"`
	Solvers       []string     `yaml:"solvers"`
	Bodies        []BodyConfig `yaml:"bodies"`
}

// BodyConfig describes one body. A body given only by name is taken from
// the built-in catalog.
type BodyConfig struct {
	Name     string    `yaml:"name"`
	Mass     float64   `yaml:"mass,omitempty"`
	Position []float64 `yaml:"position,flow,omitempty"`
	Velocity []float64 `yaml:"velocity,flow,omitempty"` // AU/day
}

func DefaultConfig() *Config {
	return &Config{
		T0:            DefaultT0,
		TN:            DefaultTN,
		Dt:            DefaultDt,
		G:             physics.GaussianG,
		MinSeparation: DefaultMinSeparation,
		Parallel:      true,
		Solvers:       schemeNames(integrators.AllSchemes()),
		Bodies:        []BodyConfig{{Name: "Sun"}, {Name: "Jupiter"}},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks everything that can be checked without allocating.
func (c *Config) Validate() error {
	if err := c.SimConfig().Validate(); err != nil {
		return err
	}
	if _, err := c.Schemes(); err != nil {
		return err
	}
	set, err := c.BodySet()
	if err != nil {
		return err
	}
	return set.Validate()
}

func (c *Config) Constants() physics.Constants {
	consts := physics.DefaultConstants()
	consts.G = c.G
	consts.MinSeparation = c.MinSeparation
	return consts
}

func (c *Config) SimConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.T0 = c.T0
	cfg.TN = c.TN
	cfg.Dt = c.Dt
	cfg.Constants = c.Constants()
	cfg.Parallel = c.Parallel
	return cfg
}

func (c *Config) Schemes() ([]integrators.Scheme, error) {
	if len(c.Solvers) == 0 {
		return integrators.AllSchemes(), nil
	}
	return integrators.ParseSchemes(c.Solvers)
}

// BodySet converts the configured bodies, turning velocities into
// momenta.
func (c *Config) BodySet() (bodies.Set, error) {
	set := make(bodies.Set, 0, len(c.Bodies))
	for i, bc := range c.Bodies {
		b, err := bc.body()
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		set = append(set, b)
	}
	return set, nil
}

func (bc BodyConfig) body() (bodies.Body, error) {
	if bc.Mass == 0 && bc.Position == nil && bc.Velocity == nil {
		b, ok := bodies.Lookup(strings.ToLower(bc.Name))
		if !ok {
			return bodies.Body{}, fmt.Errorf("%w: %q is not in the catalog and has no mass", dynamo.ErrInvalidConfig, bc.Name)
		}
		return b, nil
	}

	pos, err := vec3("position", bc.Position)
	if err != nil {
		return bodies.Body{}, err
	}
	vel, err := vec3("velocity", bc.Velocity)
	if err != nil {
		return bodies.Body{}, err
	}
	b := bodies.FromVelocity(bc.Name, bc.Mass, pos, vel)
	return b, b.Validate()
}

func vec3(field string, v []float64) (bodies.Vec3, error) {
	switch len(v) {
	case 0:
		return bodies.Vec3{}, nil
	case 3:
		return bodies.Vec3{v[0], v[1], v[2]}, nil
	}
	return bodies.Vec3{}, fmt.Errorf("%w: %s needs 3 components, got %d", dynamo.ErrInvalidConfig, field, len(v))
}

// FromBodySet builds the file form of a body set.
func FromBodySet(set bodies.Set) []BodyConfig {
	out := make([]BodyConfig, len(set))
	for i, b := range set {
		v := b.Velocity()
		out[i] = BodyConfig{
			Name:     b.Name,
			Mass:     b.Mass,
			Position: b.Position[:],
			Velocity: v[:],
		}
	}
	return out
}

func schemeNames(schemes []integrators.Scheme) []string {
	names := make([]string, len(schemes))
	for i, s := range schemes {
		names[i] = s.String()
	}
	return names
}
