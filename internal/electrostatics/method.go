package electrostatics

import (
	"fmt"
	"math"

	"github.com/san-kum/p3msim/internal/dynamo"
	"github.com/san-kum/p3msim/internal/p3m"
)

// Method is a Coulomb interaction selected once at configuration time.
// Pair evaluates the short-range law for the charge product qq at distance
// r < Cutoff: the pair energy and the factor f such that the force on the
// first particle is f times the separation vector.
type Method interface {
	Name() string
	Cutoff() float64
	Pair(qq, r float64) (energy, f float64)
}

// LongRange is implemented by methods with a reciprocal-space part. Solve
// adds forces to ps; Energy leaves them untouched.
type LongRange interface {
	Method
	Solve(ps p3m.Particles) (p3m.Result, error)
	Energy(ps p3m.Particles) (float64, error)
}

// LongRangeOf returns the long-range capability of m, or ErrNotSupported.
func LongRangeOf(m Method) (LongRange, error) {
	lr, ok := m.(LongRange)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no long-range part", dynamo.ErrNotSupported, m.Name())
	}
	return lr, nil
}

// P3M pairs the erfc-screened real-space sum with the mesh solver.
type P3M struct {
	prefactor float64
	cutoff    float64
	solver    *p3m.Solver
}

func NewP3M(cutoff float64, params p3m.Params, opts ...p3m.Option) (*P3M, error) {
	if cutoff < 0 || math.IsNaN(cutoff) {
		return nil, fmt.Errorf("%w: %g", dynamo.ErrInvalidCutoff, cutoff)
	}
	s, err := p3m.NewSolver(params, opts...)
	if err != nil {
		return nil, err
	}
	return &P3M{prefactor: params.Prefactor, cutoff: cutoff, solver: s}, nil
}

func (m *P3M) Name() string        { return "p3m" }
func (m *P3M) Cutoff() float64     { return m.cutoff }
func (m *P3M) Solver() *p3m.Solver { return m.solver }
func (m *P3M) Params() p3m.Params  { return m.solver.Params() }
func (m *P3M) Alpha() float64      { return m.solver.Params().Alpha }

// SetParams retunes the mesh solver; the cached influence function is
// rebuilt on the next solve.
func (m *P3M) SetParams(p p3m.Params) error {
	if err := m.solver.SetParams(p); err != nil {
		return err
	}
	m.prefactor = p.Prefactor
	return nil
}

func (m *P3M) Pair(qq, r float64) (float64, float64) {
	alpha := m.Alpha()
	ar := alpha * r
	erfc := math.Erfc(ar)
	e := m.prefactor * qq * erfc / r
	f := m.prefactor * qq * (erfc/r + 2*alpha/math.SqrtPi*math.Exp(-ar*ar)) / (r * r)
	return e, f
}

func (m *P3M) Solve(ps p3m.Particles) (p3m.Result, error) {
	return m.solver.Compute(ps)
}

func (m *P3M) Energy(ps p3m.Particles) (float64, error) {
	return m.solver.Energy(ps)
}

// DebyeHuckel is the screened Coulomb law exp(-κr)/r, truncated at the cutoff.
type DebyeHuckel struct {
	prefactor float64
	kappa     float64
	cutoff    float64
}

func NewDebyeHuckel(prefactor, kappa, cutoff float64) (*DebyeHuckel, error) {
	if kappa < 0 || math.IsNaN(kappa) {
		return nil, fmt.Errorf("%w: kappa %g", dynamo.ErrParameterBounds, kappa)
	}
	if cutoff < 0 || math.IsNaN(cutoff) {
		return nil, fmt.Errorf("%w: %g", dynamo.ErrInvalidCutoff, cutoff)
	}
	return &DebyeHuckel{prefactor: prefactor, kappa: kappa, cutoff: cutoff}, nil
}

func (m *DebyeHuckel) Name() string    { return "debye-huckel" }
func (m *DebyeHuckel) Cutoff() float64 { return m.cutoff }

func (m *DebyeHuckel) Pair(qq, r float64) (float64, float64) {
	screen := math.Exp(-m.kappa * r)
	e := m.prefactor * qq * screen / r
	return e, m.prefactor * qq * screen * (1 + m.kappa*r) / (r * r * r)
}

// ReactionField treats the medium beyond the cutoff as a dielectric
// continuum with permittivity epsilon2 and inverse screening length kappa.
type ReactionField struct {
	prefactor float64
	cutoff    float64
	b         float64
}

func NewReactionField(prefactor, kappa, epsilon1, epsilon2, cutoff float64) (*ReactionField, error) {
	if !(cutoff > 0) {
		return nil, fmt.Errorf("%w: reaction field needs a positive cutoff, got %g", dynamo.ErrInvalidCutoff, cutoff)
	}
	if !(epsilon1 > 0) || !(epsilon2 > 0) || kappa < 0 {
		return nil, fmt.Errorf("%w: epsilon1 %g epsilon2 %g kappa %g", dynamo.ErrParameterBounds, epsilon1, epsilon2, kappa)
	}
	kr := kappa * cutoff
	b := (2*(epsilon1-epsilon2)*(1+kr) - epsilon2*kr*kr) /
		((epsilon1+2*epsilon2)*(1+kr) + epsilon2*kr*kr)
	return &ReactionField{prefactor: prefactor, cutoff: cutoff, b: b}, nil
}

func (m *ReactionField) Name() string    { return "reaction-field" }
func (m *ReactionField) Cutoff() float64 { return m.cutoff }

// B is the reaction field coefficient.
func (m *ReactionField) B() float64 { return m.b }

func (m *ReactionField) Pair(qq, r float64) (float64, float64) {
	rc3 := m.cutoff * m.cutoff * m.cutoff
	e := m.prefactor * qq * (1/r - m.b*r*r/(2*rc3) - (1-m.b/2)/m.cutoff)
	f := m.prefactor * qq * (1/(r*r*r) + m.b/rc3)
	return e, f
}

// None disables electrostatics.
type None struct{}

func (None) Name() string                             { return "none" }
func (None) Cutoff() float64                          { return 0 }
func (None) Pair(float64, float64) (float64, float64) { return 0, 0 }
