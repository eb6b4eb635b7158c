package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }

func (v Vec3) Scale(f float64) Vec3 { return Vec3{v[0] * f, v[1] * f, v[2] * f} }

func (v Vec3) Dot(o Vec3) float64 { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }
func (v Vec3) Norm2() float64     { return v.Dot(v) }
func (v Vec3) Norm() float64      { return math.Sqrt(v.Norm2()) }

func (v Vec3) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Particle is a charged point particle. A negative ID marks an unused slot.
type Particle struct {
	ID    int
	Pos   Vec3
	Vel   Vec3
	Force Vec3
	Q     float64
	Mass  float64
	// Image counts how many box lengths Pos has been folded by, so that
	// Pos + Image*L is the unfolded trajectory.
	Image [3]int
}

func (p *Particle) Valid() bool { return p.ID >= 0 }

func (p *Particle) Unfolded(b Box) Vec3 {
	var u Vec3
	for d := 0; d < 3; d++ {
		u[d] = p.Pos[d] + float64(p.Image[d])*b.L[d]
	}
	return u
}

// Particles adapts a particle slice to the position/charge accessors used by
// the charge-assignment and mesh code.
type Particles []Particle

func (ps Particles) Len() int               { return len(ps) }
func (ps Particles) Position(i int) Vec3    { return ps[i].Pos }
func (ps Particles) Charge(i int) float64   { return ps[i].Q }
func (ps Particles) AddForce(i int, f Vec3) { ps[i].Force = ps[i].Force.Add(f) }

func (ps Particles) ResetForces() {
	for i := range ps {
		ps[i].Force = Vec3{}
	}
}

type Box struct {
	L Vec3
}

func NewBox(lx, ly, lz float64) (Box, error) {
	b := Box{L: Vec3{lx, ly, lz}}
	if err := b.Validate(); err != nil {
		return Box{}, err
	}
	return b, nil
}

func CubicBox(l float64) Box { return Box{L: Vec3{l, l, l}} }

func (b Box) Validate() error {
	for d, l := range b.L {
		if !(l > 0) || math.IsInf(l, 0) {
			return fmt.Errorf("%w: box length %d is %g", ErrInvalidBox, d, l)
		}
	}
	if b.Volume() == 0 {
		return fmt.Errorf("%w: zero volume", ErrInvalidBox)
	}
	return nil
}

func (b Box) Volume() float64 { return b.L[0] * b.L[1] * b.L[2] }

func (b Box) MinLength() float64 { return math.Min(b.L[0], math.Min(b.L[1], b.L[2])) }

// Fold maps pos into [0, L) per axis and reports how many box lengths were
// removed along each axis.
func (b Box) Fold(pos Vec3) (Vec3, [3]int) {
	var img [3]int
	for d := 0; d < 3; d++ {
		n := math.Floor(pos[d] / b.L[d])
		pos[d] -= n * b.L[d]
		// Rounding can land exactly on L for tiny negative inputs.
		if pos[d] >= b.L[d] {
			pos[d] -= b.L[d]
			n++
		}
		img[d] = int(n)
	}
	return pos, img
}

// MinImage returns the shortest periodic representative of the separation d.
func (b Box) MinImage(d Vec3) Vec3 {
	for i := 0; i < 3; i++ {
		d[i] -= b.L[i] * math.Round(d[i]/b.L[i])
	}
	return d
}

// Tensor is a dense 3x3 tensor, row-major.
type Tensor [3][3]float64

func (t *Tensor) AddOuter(a, b Vec3, s float64) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] += s * a[i] * b[j]
		}
	}
}

func (t *Tensor) Add(o Tensor) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] += o[i][j]
		}
	}
}

func (t Tensor) Scale(f float64) Tensor {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] *= f
		}
	}
	return t
}

func (t Tensor) Trace() float64 { return t[0][0] + t[1][1] + t[2][2] }

// Sym returns the symmetric part of t as a gonum matrix.
func (t Tensor) Sym() *mat.SymDense {
	s := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			s.SetSym(i, j, 0.5*(t[i][j]+t[j][i]))
		}
	}
	return s
}

// Principal returns the eigenvalues of the symmetric part of t in
// ascending order.
func (t Tensor) Principal() (Vec3, error) {
	var eig mat.EigenSym
	if !eig.Factorize(t.Sym(), false) {
		return Vec3{}, fmt.Errorf("%w: tensor eigen decomposition did not converge", ErrIntegrity)
	}
	var v Vec3
	copy(v[:], eig.Values(nil))
	return v, nil
}

// Flat returns the nine components in row-major order.
func (t Tensor) Flat() [9]float64 {
	var f [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			f[3*i+j] = t[i][j]
		}
	}
	return f
}
