package metrics

import "math"

// RelativeDrift returns |x_last - x_0| / |x_0| for a diagnostic series.
func RelativeDrift(series []float64) float64 {
	if len(series) < 2 || series[0] == 0 {
		return 0
	}
	return math.Abs(series[len(series)-1]-series[0]) / math.Abs(series[0])
}

// MaxRelativeDrift returns the largest |x_k - x_0| / |x_0| over the series.
func MaxRelativeDrift(series []float64) float64 {
	d := NewEnergyDrift()
	for _, v := range series {
		d.Observe(v)
	}
	return d.Value()
}

// EnergyDrift tracks the worst relative deviation from the first
// observed value.
type EnergyDrift struct {
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{}
}

func (e *EnergyDrift) Observe(energy float64) {
	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

// Final is the relative drift of the latest observation.
func (e *EnergyDrift) Final() float64 {
	if e.initialEnergy == 0 {
		return 0
	}
	return math.Abs(e.currentEnergy-e.initialEnergy) / math.Abs(e.initialEnergy)
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
