package electrostatics

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/p3msim/internal/cells"
	"github.com/san-kum/p3msim/internal/dynamo"
	"github.com/san-kum/p3msim/internal/p3m"
)

// Observables is the outcome of one force evaluation.
type Observables struct {
	ShortRange float64
	LongRange  p3m.Result
	// Stress is the electrostatic pressure tensor, short-range virial over
	// volume plus the k-space contribution.
	Stress dynamo.Tensor
	Pairs  int
}

func (o Observables) Energy() float64 { return o.ShortRange + o.LongRange.Energy() }

// Pressure is a third of the stress trace.
func (o Observables) Pressure() float64 { return o.Stress.Trace() / 3 }

type Engine struct {
	method Method
	long   LongRange
	logger *slog.Logger
}

func NewEngine(m Method, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{method: m, logger: logger}
	if lr, err := LongRangeOf(m); err == nil {
		e.long = lr
	}
	return e
}

func (e *Engine) Method() Method { return e.method }

// Compute zeroes all forces on dd, then accumulates the short-range pair
// contribution over the Verlet list, folds ghost forces back onto their
// owners and adds the long-range part when the method has one. The
// decomposition must be rebuilt by the caller when NeedsRebuild reports so.
func (e *Engine) Compute(dd *cells.Decomposition) (Observables, error) {
	rc := e.method.Cutoff()
	if rc > dd.Cutoff() {
		return Observables{}, fmt.Errorf("%w: method cutoff %g exceeds decomposition cutoff %g",
			dynamo.ErrInvalidCutoff, rc, dd.Cutoff())
	}

	dd.ResetForces()

	var obs Observables
	var virial dynamo.Tensor
	if rc > 0 {
		rc2 := rc * rc
		dd.ForEachPair(func(a, b *dynamo.Particle, d dynamo.Vec3, dist2 float64) {
			if dist2 >= rc2 || dist2 == 0 {
				return
			}
			qq := a.Q * b.Q
			if qq == 0 {
				return
			}
			energy, f := e.method.Pair(qq, math.Sqrt(dist2))
			force := d.Scale(f)
			a.Force = a.Force.Add(force)
			b.Force = b.Force.Sub(force)
			obs.ShortRange += energy
			virial.AddOuter(force, d, 1)
			obs.Pairs++
		})
	}
	dd.CollectGhostForces()
	obs.Stress = virial.Scale(1 / dd.Box().Volume())

	if e.long != nil {
		lr, err := e.long.Solve(dd)
		if err != nil {
			return Observables{}, fmt.Errorf("%s long-range solve: %w", e.method.Name(), err)
		}
		obs.LongRange = lr
		obs.Stress.Add(lr.Stress)
	}

	e.logger.Debug("electrostatics evaluated",
		"method", e.method.Name(), "pairs", obs.Pairs, "energy", obs.Energy())
	return obs, nil
}

// LongRangeEnergy evaluates only the long-range energy.
func (e *Engine) LongRangeEnergy(ps p3m.Particles) (float64, error) {
	if e.long == nil {
		return 0, fmt.Errorf("%w: %s has no long-range part", dynamo.ErrNotSupported, e.method.Name())
	}
	return e.long.Energy(ps)
}
