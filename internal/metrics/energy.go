package metrics

import (
	"math"

	"github.com/san-kum/p3msim/internal/sim"
)

// Energy reports the mean total energy over the observed records.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(r sim.Record) {
	e.totalEnergy += r.Total()
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift reports the largest deviation of the total energy from its
// first observed value, relative to a scale fixed at the first record:
// |potential| plus kinetic energy.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	scale         float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(r sim.Record) {
	energy := r.Total()
	if e.samples == 0 {
		e.initialEnergy = energy
		e.scale = math.Abs(r.Potential) + r.Kinetic
	}
	e.samples++

	if e.scale != 0 {
		drift := math.Abs(energy-e.initialEnergy) / e.scale
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.scale = 0
	e.maxDrift = 0
	e.samples = 0
}
