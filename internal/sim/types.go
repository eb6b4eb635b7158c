package sim

import (
	"fmt"

	"github.com/san-kum/p3msim/internal/electrostatics"
)

// Record is what metrics and observers see after every step.
type Record struct {
	Step      int
	Time      float64
	Kinetic   float64
	Potential float64
	Pressure  float64
	Pairs     int
	Rebuilt   bool

	// NetForce is the vector sum of all forces; ForceScale the sum of their
	// magnitudes.
	NetForce   [3]float64
	ForceScale float64

	Electrostatics electrostatics.Observables
}

func (r Record) Total() float64 { return r.Kinetic + r.Potential }

type Metric interface {
	Name() string
	Observe(r Record)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(r Record)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Record)

func (f ObserverFunc) OnStep(r Record) { f(r) }

type Config struct {
	Dt    float64
	Steps int
	// CheckEvery runs the decomposition audit every that many steps; 0
	// disables it.
	CheckEvery int
}

type Result struct {
	Records    []Record
	Metrics    map[string]float64
	StepsTaken int
	Rebuilds   int
}

// SimError reports a failure at a given step.
type SimError struct {
	Step int
	Time float64
	Err  error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Err)
}

func (e SimError) Unwrap() error { return e.Err }
