package p3m

import (
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/p3msim/internal/dynamo"
	"github.com/san-kum/p3msim/internal/interpolation"
)

// Particles is the particle view the solver reads charges from and writes
// forces to. dynamo.Particles and cells.Decomposition implement it.
type Particles interface {
	Len() int
	Position(i int) dynamo.Vec3
	Charge(i int) float64
	AddForce(i int, f dynamo.Vec3)
}

// Result collects the long-range energy terms and the k-space pressure
// tensor (virial over volume, neutralization included).
type Result struct {
	KSpace         float64
	Self           float64
	Neutralization float64
	Stress         dynamo.Tensor
}

func (r Result) Energy() float64 { return r.KSpace + r.Self + r.Neutralization }

type Option func(*Solver)

func WithTransformer(t Transformer) Option {
	return func(s *Solver) { s.fft = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) { s.logger = l }
}

// Solver runs the assign, transform, scale, inverse, gather pipeline. The
// influence function and the assignment weights are cached by parameter set
// and rebuilt on the first solve after any of them changed.
type Solver struct {
	params Params
	fft    Transformer
	logger *slog.Logger

	cached     bool
	key        cacheKey
	recomputes int
	dop        DOp
	infl       *Influence
	assign     *interpolation.Cached

	rho    *Mesh
	fields [3]*Mesh
	q      []float64
	forces []dynamo.Vec3
}

func NewSolver(p Params, opts ...Option) (*Solver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{
		params: p,
		fft:    DSPTransformer{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Solver) Params() Params { return s.params }

// Recomputes counts influence function rebuilds.
func (s *Solver) Recomputes() int { return s.recomputes }

// SetParams validates and installs p. Cached tables are checked against the
// new parameters before the next solve.
func (s *Solver) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = p
	return nil
}

// Influence returns the influence function for the current parameters.
func (s *Solver) Influence() (*Influence, error) {
	if err := s.prepare(); err != nil {
		return nil, err
	}
	return s.infl, nil
}

func (s *Solver) prepare() error {
	k := s.params.key()
	if s.cached && k == s.key {
		return nil
	}
	p := s.params

	var w interpolation.Weights
	spline, err := interpolation.NewSpline(p.CAO)
	if err != nil {
		return err
	}
	w = spline
	if p.Tabulate > 0 {
		if w, err = interpolation.NewTabulated(spline, p.Tabulate); err != nil {
			return err
		}
	}
	assign, err := interpolation.NewCached(w, interpolation.Grid{Spacing: p.Spacing()})
	if err != nil {
		return err
	}

	s.dop = NewDOp(p.Mesh)
	s.infl = NewInfluence(p.Mesh, p.Box.L, p.Alpha, p.CAO, p.Aliasing, s.dop)
	s.assign = assign
	if s.rho == nil || s.rho.Dims() != p.Mesh {
		s.rho = NewMesh(p.Mesh)
		for d := range s.fields {
			s.fields[d] = NewMesh(p.Mesh)
		}
	}
	s.key = k
	s.cached = true
	s.recomputes++

	s.logger.Debug("influence function rebuilt",
		"mesh", p.Mesh, "cao", p.CAO, "alpha", p.Alpha, "aliasing", p.Aliasing, "box", p.Box.L)
	return nil
}

// AssignCharges spreads the particle charges onto the mesh and returns it in
// real space. The mesh is owned by the solver and reused by the next call.
func (s *Solver) AssignCharges(ps Particles) (*Mesh, error) {
	if err := s.prepare(); err != nil {
		return nil, err
	}
	n := ps.Len()
	if cap(s.q) < n {
		s.q = make([]float64, n)
	}
	s.q = s.q[:n]
	for i := range s.q {
		s.q[i] = ps.Charge(i)
	}

	s.rho.Zero()
	s.assign.Interpolate(ps, func(p int, ind [3]int, w float64) {
		s.rho.Add(ind, s.q[p]*w)
	})
	return s.rho, nil
}

func (s *Solver) spread(ps Particles) error {
	if _, err := s.AssignCharges(ps); err != nil {
		return err
	}
	if err := s.fft.Forward(s.rho); err != nil {
		return fmt.Errorf("p3m: forward transform: %w", err)
	}
	return nil
}

// Energy returns the long-range energy without touching forces.
func (s *Solver) Energy(ps Particles) (float64, error) {
	r, err := s.solve(ps, false)
	if err != nil {
		return 0, err
	}
	return r.Energy(), nil
}

// Stress returns the k-space pressure tensor.
func (s *Solver) Stress(ps Particles) (dynamo.Tensor, error) {
	r, err := s.solve(ps, false)
	if err != nil {
		return dynamo.Tensor{}, err
	}
	return r.Stress, nil
}

// AddForces adds the long-range force to every particle.
func (s *Solver) AddForces(ps Particles) error {
	_, err := s.solve(ps, true)
	return err
}

// Compute evaluates energy, stress and forces from a single assignment.
func (s *Solver) Compute(ps Particles) (Result, error) {
	return s.solve(ps, true)
}

func (s *Solver) solve(ps Particles, forces bool) (Result, error) {
	if err := s.spread(ps); err != nil {
		return Result{}, err
	}
	p := s.params
	vol := p.Box.Volume()
	if vol == 0 {
		return Result{}, fmt.Errorf("%w: zero volume", dynamo.ErrInvalidBox)
	}

	var r Result
	r.KSpace, r.Stress = s.kspace()

	sumQ := floats.Sum(s.q)
	sumQ2 := floats.Dot(s.q, s.q)
	r.Self = -p.Prefactor * p.Alpha / math.SqrtPi * sumQ2
	r.Neutralization = -p.Prefactor * math.Pi * sumQ * sumQ / (2 * vol * p.Alpha * p.Alpha)
	for a := 0; a < 3; a++ {
		r.Stress[a][a] += r.Neutralization / vol
	}

	if forces {
		if err := s.addForces(ps); err != nil {
			return Result{}, err
		}
	}
	return r, nil
}

// kspace sums the mesh energy and its virial over the transformed charges.
func (s *Solver) kspace() (float64, dynamo.Tensor) {
	p := s.params
	mesh := p.Mesh
	vol := p.Box.Volume()
	table := s.infl.EnergyTable()
	pi2a2 := math.Pi * math.Pi / (p.Alpha * p.Alpha)

	var energy float64
	var virial dynamo.Tensor
	for x := 0; x < mesh[0]; x++ {
		for y := 0; y < mesh[1]; y++ {
			for z := 0; z < mesh[2]; z++ {
				i := (x*mesh[1]+y)*mesh[2] + z
				if table[i] == 0 {
					continue
				}
				rho := s.rho.data[i]
				e := table[i] * (real(rho)*real(rho) + imag(rho)*imag(rho))
				energy += e

				k := dynamo.Vec3{
					float64(s.infl.Shift(0, x)) / p.Box.L[0],
					float64(s.infl.Shift(1, y)) / p.Box.L[1],
					float64(s.infl.Shift(2, z)) / p.Box.L[2],
				}
				k2 := k.Norm2()
				for a := 0; a < 3; a++ {
					virial[a][a] += e
				}
				virial.AddOuter(k, k, -2*e*(1/k2+pi2a2))
			}
		}
	}

	scale := p.Prefactor / (2 * vol)
	return scale * energy, virial.Scale(scale / vol)
}

func (s *Solver) addForces(ps Particles) error {
	if err := s.assign.Check(ps.Len()); err != nil {
		return fmt.Errorf("p3m: gather: %w", err)
	}
	p := s.params
	mesh := p.Mesh
	table := s.infl.ForceTable()

	for x := 0; x < mesh[0]; x++ {
		for y := 0; y < mesh[1]; y++ {
			for z := 0; z < mesh[2]; z++ {
				n := [3]int{x, y, z}
				i := (x*mesh[1]+y)*mesh[2] + z
				rho := s.rho.data[i]
				for d := 0; d < 3; d++ {
					op := float64(s.dop[d][n[d]]) / p.Box.L[d]
					s.fields[d].data[i] = complex(0, -2*math.Pi*op*table[i]) * rho
				}
			}
		}
	}

	var g errgroup.Group
	for d := 0; d < 3; d++ {
		field := s.fields[d]
		g.Go(func() error { return s.fft.Inverse(field) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("p3m: inverse transform: %w", err)
	}

	n := ps.Len()
	if cap(s.forces) < n {
		s.forces = make([]dynamo.Vec3, n)
	}
	s.forces = s.forces[:n]
	clear(s.forces)

	s.assign.InterpolateFromCache(func(part int, ind [3]int, w float64) {
		j := s.rho.Index(ind)
		for d := 0; d < 3; d++ {
			s.forces[part][d] += w * real(s.fields[d].data[j])
		}
	})

	scale := p.Prefactor * float64(s.rho.Len()) / p.Box.Volume()
	for i, f := range s.forces {
		ps.AddForce(i, f.Scale(scale*s.q[i]))
	}
	return nil
}
