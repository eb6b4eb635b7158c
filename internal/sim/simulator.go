package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/p3msim/internal/cells"
	"github.com/san-kum/p3msim/internal/dynamo"
	"github.com/san-kum/p3msim/internal/electrostatics"
)

// Simulator advances a decomposed particle system with velocity Verlet,
// using the electrostatics engine for forces and the skin criterion for
// cell-list rebuilds.
type Simulator struct {
	dd        *cells.Decomposition
	engine    *electrostatics.Engine
	metrics   []Metric
	observers []Observer
	logger    *slog.Logger
}

func New(dd *cells.Decomposition, engine *electrostatics.Engine, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Simulator{
		dd:        dd,
		engine:    engine,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Decomposition() *cells.Decomposition { return s.dd }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validate(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Records: make([]Record, 0, cfg.Steps+1),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	if s.dd.NeedsRebuild() {
		s.dd.Rebuild()
	}
	start := s.dd.Rebuilds()
	rec, err := s.evaluate(0, 0)
	if err != nil {
		return nil, err
	}
	s.emit(result, rec)

	dt := cfg.Dt
	for i := 1; i <= cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for p := range s.dd.LocalParticles() {
			p.Vel = p.Vel.Add(p.Force.Scale(0.5 * dt / p.Mass))
			p.Pos = p.Pos.Add(p.Vel.Scale(dt))
		}

		rebuilt := false
		if s.dd.NeedsRebuild() {
			s.dd.Rebuild()
			rebuilt = true
			s.logger.Debug("cell lists rebuilt", "step", i, "pairs", s.dd.NumPairs())
		} else {
			s.dd.UpdateGhosts()
		}

		t := float64(i) * dt
		rec, err := s.evaluate(i, t)
		if err != nil {
			return result, SimError{Step: i, Time: t, Err: err}
		}
		rec.Rebuilt = rebuilt

		for p := range s.dd.LocalParticles() {
			p.Vel = p.Vel.Add(p.Force.Scale(0.5 * dt / p.Mass))
		}
		rec.Kinetic = s.kinetic()

		if cfg.CheckEvery > 0 && i%cfg.CheckEvery == 0 {
			if err := s.dd.Check(); err != nil {
				return result, SimError{Step: i, Time: t, Err: err}
			}
		}
		if math.IsNaN(rec.Total()) || math.IsInf(rec.Total(), 0) {
			return result, SimError{Step: i, Time: t, Err: fmt.Errorf("%w: non-finite energy", dynamo.ErrParameterBounds)}
		}

		s.emit(result, rec)
		result.StepsTaken++
	}

	result.Rebuilds = s.dd.Rebuilds() - start
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func (s *Simulator) validate(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, cfg.Dt)
	}
	if cfg.Steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", dynamo.ErrParameterBounds, cfg.Steps)
	}
	if cfg.CheckEvery < 0 {
		return fmt.Errorf("%w: check interval %d", dynamo.ErrParameterBounds, cfg.CheckEvery)
	}
	for p := range s.dd.LocalParticles() {
		if !(p.Mass > 0) {
			return fmt.Errorf("%w: particle %d has mass %g", dynamo.ErrParameterBounds, p.ID, p.Mass)
		}
	}
	return nil
}

func (s *Simulator) evaluate(step int, t float64) (Record, error) {
	obs, err := s.engine.Compute(s.dd)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Step:           step,
		Time:           t,
		Potential:      obs.Energy(),
		Pressure:       obs.Pressure(),
		Pairs:          obs.Pairs,
		Electrostatics: obs,
		Kinetic:        s.kinetic(),
	}
	for p := range s.dd.LocalParticles() {
		for d := 0; d < 3; d++ {
			rec.NetForce[d] += p.Force[d]
		}
		rec.ForceScale += p.Force.Norm()
	}
	return rec, nil
}

func (s *Simulator) kinetic() float64 {
	ke := 0.0
	for p := range s.dd.LocalParticles() {
		ke += 0.5 * p.Mass * p.Vel.Norm2()
	}
	return ke
}

func (s *Simulator) emit(result *Result, rec Record) {
	for _, m := range s.metrics {
		m.Observe(rec)
	}
	for _, o := range s.observers {
		o.OnStep(rec)
	}
	result.Records = append(result.Records, rec)
}
