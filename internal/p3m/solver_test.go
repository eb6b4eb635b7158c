package p3m

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/san-kum/p3msim/internal/dynamo"
)

func chargedCloud(n int, box dynamo.Box, seed uint64) dynamo.Particles {
	rng := rand.New(rand.NewSource(seed))
	ps := make(dynamo.Particles, n)
	for i := range ps {
		ps[i].ID = i
		for d := 0; d < 3; d++ {
			ps[i].Pos[d] = rng.Float64() * box.L[d]
		}
		ps[i].Q = float64(1 - 2*(i%2))
	}
	return ps
}

func testParams() Params {
	return Params{
		Mesh:      [3]int{32, 32, 32},
		CAO:       5,
		Alpha:     0.6,
		Box:       dynamo.CubicBox(10),
		Aliasing:  1,
		Prefactor: 1,
	}
}

func rms(vs []dynamo.Vec3) float64 {
	s := 0.0
	for _, v := range vs {
		s += v.Norm2()
	}
	return math.Sqrt(s / float64(len(vs)))
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
		want   error
	}{
		{"valid", func(*Params) {}, nil},
		{"zero mesh", func(p *Params) { p.Mesh[1] = 0 }, dynamo.ErrInvalidMesh},
		{"order too high", func(p *Params) { p.CAO = 8 }, dynamo.ErrInvalidOrder},
		{"order zero", func(p *Params) { p.CAO = 0 }, dynamo.ErrInvalidOrder},
		{"zero alpha", func(p *Params) { p.Alpha = 0 }, dynamo.ErrInvalidAlpha},
		{"nan alpha", func(p *Params) { p.Alpha = math.NaN() }, dynamo.ErrInvalidAlpha},
		{"flat box", func(p *Params) { p.Box.L[2] = 0 }, dynamo.ErrInvalidBox},
		{"negative aliasing", func(p *Params) { p.Aliasing = -1 }, dynamo.ErrParameterBounds},
		{"negative table", func(p *Params) { p.Tabulate = -5 }, dynamo.ErrParameterBounds},
		{"inf prefactor", func(p *Params) { p.Prefactor = math.Inf(1) }, dynamo.ErrParameterBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.modify(&p)
			err := p.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			_, err = NewSolver(p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSolver_TotalCharge(t *testing.T) {
	p := testParams()
	p.Mesh = [3]int{16, 12, 10}
	p.Box = dynamo.Box{L: dynamo.Vec3{10, 8, 6}}

	ps := chargedCloud(101, p.Box, 3)
	for i := range ps {
		ps[i].Q = 0.1 * float64(i%7-3)
	}
	want := 0.0
	for _, pt := range ps {
		want += pt.Q
	}

	for order := 1; order <= 7; order++ {
		p.CAO = order
		s, err := NewSolver(p)
		require.NoError(t, err)
		m, err := s.AssignCharges(ps)
		require.NoError(t, err)

		sum := 0.0
		for _, v := range realParts(m) {
			sum += v
		}
		assert.InDelta(t, want, sum, 1e-12, "order %d", order)
	}
}

func TestSolver_CacheInvalidation(t *testing.T) {
	p := testParams()
	p.Mesh = [3]int{8, 8, 8}
	ps := chargedCloud(10, p.Box, 4)

	s, err := NewSolver(p)
	require.NoError(t, err)
	assert.Zero(t, s.Recomputes())

	e1, err := s.Energy(ps)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Recomputes())

	e2, err := s.Energy(ps)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Recomputes())
	assert.Equal(t, e1, e2, "evaluation is deterministic")

	require.NoError(t, s.SetParams(p))
	_, err = s.Energy(ps)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Recomputes(), "same parameters keep the cache")

	steps := []func(*Params){
		func(p *Params) { p.Alpha = 0.7 },
		func(p *Params) { p.Box = dynamo.CubicBox(11) },
		func(p *Params) { p.Mesh = [3]int{8, 8, 12} },
		func(p *Params) { p.CAO = 3 },
	}
	for i, step := range steps {
		step(&p)
		require.NoError(t, s.SetParams(p))
		_, err := s.Energy(ps)
		require.NoError(t, err)
		assert.Equal(t, i+2, s.Recomputes())
	}

	assert.ErrorIs(t, s.SetParams(Params{}), dynamo.ErrInvalidMesh)
	assert.Equal(t, p, s.Params(), "rejected parameters are not installed")
}

func TestSolver_MatchesEwald(t *testing.T) {
	p := testParams()
	ps := chargedCloud(20, p.Box, 5)

	wantE, wantF, err := EwaldReciprocal(ps, p.Box, p.Alpha, p.Prefactor, [3]int{12, 12, 12})
	require.NoError(t, err)

	s, err := NewSolver(p)
	require.NoError(t, err)
	ps.ResetForces()
	r, err := s.Compute(ps)
	require.NoError(t, err)

	assert.InDelta(t, wantE, r.KSpace, 1e-4*math.Max(1, math.Abs(wantE)))

	diff := make([]dynamo.Vec3, len(ps))
	for i := range ps {
		diff[i] = ps[i].Force.Sub(wantF[i])
	}
	assert.Less(t, rms(diff), 1e-3*rms(wantF))
}

func TestSolver_NetForceVanishes(t *testing.T) {
	p := testParams()
	p.Mesh = [3]int{16, 16, 16}
	p.CAO = 3
	ps := chargedCloud(50, p.Box, 6)

	s, err := NewSolver(p)
	require.NoError(t, err)
	require.NoError(t, s.AddForces(ps))

	var net dynamo.Vec3
	for _, pt := range ps {
		net = net.Add(pt.Force)
	}
	scale := 0.0
	for _, pt := range ps {
		scale += pt.Force.Norm()
	}
	require.Positive(t, scale)
	assert.Less(t, net.Norm(), 1e-10*scale)
}

func TestSolver_SelfAndNeutralization(t *testing.T) {
	p := testParams()
	p.Mesh = [3]int{8, 8, 8}
	ps := dynamo.Particles{{Pos: dynamo.Vec3{1, 2, 3}, Q: 2}}

	s, err := NewSolver(p)
	require.NoError(t, err)
	r, err := s.Compute(ps)
	require.NoError(t, err)

	vol := p.Box.Volume()
	assert.InDelta(t, -p.Alpha/math.SqrtPi*4, r.Self, 1e-14)
	assert.InDelta(t, -math.Pi*4/(2*vol*p.Alpha*p.Alpha), r.Neutralization, 1e-14)
	assert.InDelta(t, r.KSpace+r.Self+r.Neutralization, r.Energy(), 1e-14)

	e, err := s.Energy(ps)
	require.NoError(t, err)
	assert.InDelta(t, r.Energy(), e, 1e-14)
}

func TestSolver_StressSymmetric(t *testing.T) {
	p := testParams()
	p.Mesh = [3]int{16, 12, 8}
	p.Box = dynamo.Box{L: dynamo.Vec3{10, 9, 8}}
	ps := chargedCloud(30, p.Box, 7)

	s, err := NewSolver(p)
	require.NoError(t, err)
	st, err := s.Stress(ps)
	require.NoError(t, err)
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			assert.InDelta(t, st[a][b], st[b][a], 1e-14)
		}
	}
	assert.NotZero(t, st.Trace())

	sym := st.Sym()
	assert.InDelta(t, st[0][1], sym.At(0, 1), 1e-14)
}

func TestSolver_TabulatedWeights(t *testing.T) {
	p := testParams()
	p.Mesh = [3]int{16, 16, 16}
	ps := chargedCloud(20, p.Box, 8)

	direct, err := NewSolver(p)
	require.NoError(t, err)
	want, err := direct.Energy(ps)
	require.NoError(t, err)

	p.Tabulate = 20000
	tab, err := NewSolver(p)
	require.NoError(t, err)
	got, err := tab.Energy(ps)
	require.NoError(t, err)

	assert.InDelta(t, want, got, 1e-3*math.Abs(want))
}

var errBrokenFFT = errors.New("broken transform")

type brokenTransformer struct{ DSPTransformer }

func (brokenTransformer) Inverse(*Mesh) error { return errBrokenFFT }

func TestSolver_TransformFailure(t *testing.T) {
	p := testParams()
	p.Mesh = [3]int{8, 8, 8}
	s, err := NewSolver(p, WithTransformer(brokenTransformer{}))
	require.NoError(t, err)

	ps := chargedCloud(4, p.Box, 9)
	_, err = s.Energy(ps)
	assert.NoError(t, err, "energy needs only the forward transform")
	assert.ErrorIs(t, s.AddForces(ps), errBrokenFFT)
}

func TestSolver_GatherRejectsStaleCache(t *testing.T) {
	p := testParams()
	p.Mesh = [3]int{8, 8, 8}
	s, err := NewSolver(p)
	require.NoError(t, err)

	require.NoError(t, s.spread(chargedCloud(4, p.Box, 1)))
	grown := chargedCloud(6, p.Box, 1)
	assert.ErrorIs(t, s.addForces(grown), dynamo.ErrIntegrity)
	for _, pt := range grown {
		assert.Equal(t, dynamo.Vec3{}, pt.Force, "no force gathered from a stale cache")
	}
}
