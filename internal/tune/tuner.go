package tune

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/p3msim/internal/dynamo"
	"github.com/san-kum/p3msim/internal/p3m"
)

// AccuracyEstimator predicts the RMS force error of the mesh part for a
// parameter set, n particles and Σq².
type AccuracyEstimator interface {
	KSpaceError(p p3m.Params, n int, sumQ2 float64) float64
}

type EstimatorFunc func(p p3m.Params, n int, sumQ2 float64) float64

func (f EstimatorFunc) KSpaceError(p p3m.Params, n int, sumQ2 float64) float64 { return f(p, n, sumQ2) }

// HockneyEastwood is the closed-form estimate shipped with the solver.
var HockneyEastwood AccuracyEstimator = EstimatorFunc(p3m.KSpaceError)

// System is what the tuner needs to know about the particles.
type System struct {
	N         int
	SumQ2     float64
	Box       dynamo.Box
	Prefactor float64
}

// SystemOf summarises charges.
func SystemOf(charges []float64, box dynamo.Box, prefactor float64) System {
	q2 := make([]float64, len(charges))
	floats.MulTo(q2, charges, charges)
	return System{N: len(charges), SumQ2: floats.Sum(q2), Box: box, Prefactor: prefactor}
}

func (s System) Validate() error {
	if err := s.Box.Validate(); err != nil {
		return err
	}
	if s.N <= 0 || !(s.SumQ2 > 0) {
		return fmt.Errorf("%w: nothing to tune for n=%d Σq²=%g", dynamo.ErrParameterBounds, s.N, s.SumQ2)
	}
	return nil
}

// Candidate is one evaluated grid point.
type Candidate struct {
	Params    p3m.Params
	Cutoff    float64
	RealSpace float64
	KSpace    float64
	Total     float64
	Cost      float64
}

// CostModel estimates the relative runtime of one force evaluation.
type CostModel func(c Candidate, s System) float64

// DefaultCost counts pair interactions inside the cutoff, assignment
// stencil points and FFT work with unit weights.
func DefaultCost(c Candidate, s System) float64 {
	density := float64(s.N) / s.Box.Volume()
	pairs := 0.5 * float64(s.N) * density * 4 * math.Pi / 3 * c.Cutoff * c.Cutoff * c.Cutoff

	cao := float64(c.Params.CAO)
	assign := 4 * float64(s.N) * cao * cao * cao

	m := float64(c.Params.Mesh[0] * c.Params.Mesh[1] * c.Params.Mesh[2])
	fft := 4 * m * math.Log2(math.Max(m, 2))
	return pairs + assign + fft
}

type Option func(*Tuner)

func WithEstimator(e AccuracyEstimator) Option { return func(t *Tuner) { t.estimator = e } }
func WithCost(c CostModel) Option              { return func(t *Tuner) { t.cost = c } }
func WithLogger(l *slog.Logger) Option         { return func(t *Tuner) { t.logger = l } }

// Tuner picks P3M parameters that meet an accuracy target at minimum
// estimated cost. For each cutoff α is chosen so the real-space error is
// target/√2; mesh and order must then keep the k-space error below the
// same share.
type Tuner struct {
	estimator AccuracyEstimator
	cost      CostModel
	logger    *slog.Logger
}

func NewTuner(opts ...Option) *Tuner {
	t := &Tuner{
		estimator: HockneyEastwood,
		cost:      DefaultCost,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Evaluate builds the candidate for one grid point.
func (t *Tuner) Evaluate(s System, target, rc float64, mesh, cao int) Candidate {
	alpha := p3m.AlphaForRealSpaceError(s.Prefactor, s.SumQ2, s.N, rc, target/math.Sqrt2, s.Box.L)
	if alpha == 0 {
		alpha = 1 / rc
	}

	p := p3m.Params{
		Mesh:      MeshFor(s.Box, mesh),
		CAO:       cao,
		Alpha:     alpha,
		Box:       s.Box,
		Prefactor: s.Prefactor,
	}
	c := Candidate{
		Params:    p,
		Cutoff:    rc,
		RealSpace: p3m.RealSpaceError(s.Prefactor, s.SumQ2, s.N, rc, alpha, s.Box.L),
		KSpace:    t.estimator.KSpaceError(p, s.N, s.SumQ2),
	}
	c.Total = math.Hypot(c.RealSpace, c.KSpace)
	c.Cost = t.cost(c, s)
	return c
}

// Tune searches grid for the cheapest parameters with total estimated RMS
// force error at most target.
func (t *Tuner) Tune(ctx context.Context, s System, target float64, grid *GridSearch) (Candidate, error) {
	if err := s.Validate(); err != nil {
		return Candidate{}, err
	}
	if err := grid.Validate(); err != nil {
		return Candidate{}, err
	}
	if !(target > 0) {
		return Candidate{}, fmt.Errorf("%w: accuracy target %g", dynamo.ErrParameterBounds, target)
	}

	half := s.Box.MinLength() / 2
	evaluate := func(rc float64, mesh, cao int) (Candidate, error) {
		if rc > half {
			return Candidate{Cutoff: rc, Total: math.Inf(1)}, nil
		}
		return t.Evaluate(s, target, rc, mesh, cao), nil
	}

	visit := func(c Candidate) {
		t.logger.Debug("tuning candidate",
			"cutoff", c.Cutoff, "mesh", c.Params.Mesh, "cao", c.Params.CAO, "alpha", c.Params.Alpha,
			"error", c.Total, "cost", c.Cost)
	}

	best, found, err := grid.Search(ctx, evaluate, target, visit)
	if err != nil {
		return Candidate{}, err
	}
	if !found {
		return Candidate{}, fmt.Errorf("%w: no grid point reaches accuracy %g", dynamo.ErrParameterBounds, target)
	}

	t.logger.Info("tuned p3m",
		"cutoff", best.Cutoff, "mesh", best.Params.Mesh, "cao", best.Params.CAO, "alpha", best.Params.Alpha,
		"error", best.Total)
	return best, nil
}
