package interpolation

import (
	"fmt"
	"math"

	"github.com/san-kum/p3msim/internal/dynamo"
)

// Positions is the read-only particle view needed for assignment.
type Positions interface {
	Len() int
	Position(i int) dynamo.Vec3
}

// Kernel receives the particle index, the (unwrapped) mesh index of one
// support point and its weight.
type Kernel func(p int, ind [3]int, w float64)

// Grid places the mesh: point n along axis d sits at Offset[d] + n*Spacing[d].
type Grid struct {
	Spacing dynamo.Vec3
	Offset  dynamo.Vec3
}

func (g Grid) Validate() error {
	for d := 0; d < 3; d++ {
		if !(g.Spacing[d] > 0) || math.IsInf(g.Spacing[d], 0) {
			return fmt.Errorf("%w: mesh spacing %v", dynamo.ErrInvalidMesh, g.Spacing)
		}
	}
	if !g.Offset.IsValid() {
		return fmt.Errorf("%w: mesh offset %v", dynamo.ErrInvalidMesh, g.Offset)
	}
	return nil
}

// Index returns the lower left corner of the assignment cube of a particle
// at pos and its distance to the nearest mesh point, in units of the spacing,
// in [-0.5, 0.5).
func Index(pos dynamo.Vec3, g Grid, order int) (ll [3]int, dist [3]float64) {
	shift := 0.0
	if order%2 == 0 {
		shift = 0.5
	}
	for d := 0; d < 3; d++ {
		nmp := (pos[d]-g.Offset[d])/g.Spacing[d] + shift
		ind := math.Floor(nmp + 0.5)
		dist[d] = nmp - ind
		ll[d] = int(ind) - order/2
	}
	return ll, dist
}

// Interpolator recomputes the weights on every call.
type Interpolator struct {
	w    Weights
	grid Grid
}

func New(w Weights, g Grid) (*Interpolator, error) {
	if err := ValidateOrder(w.Order()); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Interpolator{w: w, grid: g}, nil
}

func (ip *Interpolator) Order() int { return ip.w.Order() }
func (ip *Interpolator) Grid() Grid { return ip.grid }

// Interpolate calls k for every particle and every point of its support cube.
func (ip *Interpolator) Interpolate(ps Positions, k Kernel) {
	order := ip.w.Order()
	var wx, wy, wz [MaxOrder]float64

	for p := 0; p < ps.Len(); p++ {
		ll, dist := Index(ps.Position(p), ip.grid, order)
		for i := 0; i < order; i++ {
			wx[i] = ip.w.Weight(i, dist[0])
			wy[i] = ip.w.Weight(i, dist[1])
			wz[i] = ip.w.Weight(i, dist[2])
		}
		visitCube(p, ll, order, wx[:order], wy[:order], wz[:order], k)
	}
}

func visitCube(p int, ll [3]int, order int, wx, wy, wz []float64, k Kernel) {
	var ind [3]int
	for i := 0; i < order; i++ {
		ind[0] = ll[0] + i
		x := wx[i]
		for j := 0; j < order; j++ {
			ind[1] = ll[1] + j
			xy := x * wy[j]
			for l := 0; l < order; l++ {
				ind[2] = ll[2] + l
				k(p, ind, xy*wz[l])
			}
		}
	}
}
