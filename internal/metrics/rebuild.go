package metrics

import "github.com/san-kum/p3msim/internal/sim"

// RebuildRate is the fraction of integration steps that triggered a
// cell-list rebuild. The initial record is not counted.
type RebuildRate struct {
	name     string
	rebuilds int
	steps    int
}

func NewRebuildRate() *RebuildRate {
	return &RebuildRate{name: "rebuild_rate"}
}

func (m *RebuildRate) Name() string {
	return m.name
}

func (m *RebuildRate) Observe(r sim.Record) {
	if r.Step == 0 {
		return
	}
	m.steps++
	if r.Rebuilt {
		m.rebuilds++
	}
}

func (m *RebuildRate) Value() float64 {
	if m.steps == 0 {
		return 0
	}
	return float64(m.rebuilds) / float64(m.steps)
}

func (m *RebuildRate) Reset() {
	m.rebuilds = 0
	m.steps = 0
}

// Pressure is the running mean of the scalar pressure virial.
type Pressure struct {
	name    string
	sum     float64
	samples int
}

func NewPressure() *Pressure {
	return &Pressure{name: "pressure"}
}

func (p *Pressure) Name() string {
	return p.name
}

func (p *Pressure) Observe(r sim.Record) {
	p.sum += r.Pressure
	p.samples++
}

func (p *Pressure) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.sum / float64(p.samples)
}

func (p *Pressure) Reset() {
	p.sum = 0
	p.samples = 0
}

// Standard returns the metric set the CLI attaches to every run.
func Standard() []sim.Metric {
	return []sim.Metric{NewEnergy(), NewEnergyDrift(), NewNetForce(), NewRebuildRate(), NewPressure()}
}
