package interpolation

import (
	"fmt"

	"github.com/san-kum/p3msim/internal/dynamo"
)

// Cached stores the per-axis weights and the lower left corner of every
// particle seen by the last Interpolate so that a later gather over the same
// particle ordering skips the weight evaluation.
type Cached struct {
	w     Weights
	grid  Grid
	order int

	weights []float64 // [particle][axis][i]
	ll      [][3]int
}

func NewCached(w Weights, g Grid) (*Cached, error) {
	if err := ValidateOrder(w.Order()); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Cached{w: w, grid: g, order: w.Order()}, nil
}

func (c *Cached) Order() int { return c.order }
func (c *Cached) Grid() Grid { return c.grid }

// Len is the number of particles in the cache.
func (c *Cached) Len() int { return len(c.ll) }

// Interpolate computes and stores the weights, then calls k exactly like
// Interpolator.Interpolate.
func (c *Cached) Interpolate(ps Positions, k Kernel) {
	n, order := ps.Len(), c.order
	stride := 3 * order
	c.weights = resize(c.weights, n*stride)
	c.ll = resize(c.ll, n)

	for p := 0; p < n; p++ {
		ll, dist := Index(ps.Position(p), c.grid, order)
		c.ll[p] = ll
		w := c.weights[p*stride : (p+1)*stride]
		for d := 0; d < 3; d++ {
			for i := 0; i < order; i++ {
				w[d*order+i] = c.w.Weight(i, dist[d])
			}
		}
	}
	c.InterpolateFromCache(k)
}

// InterpolateFromCache replays the cached support cubes.
func (c *Cached) InterpolateFromCache(k Kernel) {
	order := c.order
	stride := 3 * order
	for p, ll := range c.ll {
		w := c.weights[p*stride : (p+1)*stride]
		visitCube(p, ll, order, w[:order], w[order:2*order], w[2*order:], k)
	}
}

// Check reports whether the cache was filled for n particles.
func (c *Cached) Check(n int) error {
	if len(c.ll) != n {
		return fmt.Errorf("%w: weight cache holds %d particles, want %d", dynamo.ErrIntegrity, len(c.ll), n)
	}
	return nil
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
