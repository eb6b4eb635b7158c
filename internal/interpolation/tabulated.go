package interpolation

import (
	"fmt"
	"math"

	"github.com/san-kum/p3msim/internal/dynamo"
)

// Tabulated samples a Weights function at 2n+1 equidistant points
// x_k = -0.5 + k/(2n) and answers lookups with the nearest sample.
//
// The lookup position differs from x by at most 1/(4n), so the weight error
// is bounded by that times the largest slope of the spline (at most 1 for
// every supported order). MaxError reports the bound.
type Tabulated struct {
	order int
	n     int
	data  []float64 // [sample][i]
}

func NewTabulated(w Weights, n int) (*Tabulated, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: table resolution %d", dynamo.ErrParameterBounds, n)
	}
	order := w.Order()
	if err := ValidateOrder(order); err != nil {
		return nil, err
	}

	samples := 2*n + 1
	t := &Tabulated{order: order, n: n, data: make([]float64, samples*order)}
	for k := 0; k < samples; k++ {
		x := -0.5 + float64(k)/float64(2*n)
		for i := 0; i < order; i++ {
			t.data[k*order+i] = w.Weight(i, x)
		}
	}
	return t, nil
}

func (t *Tabulated) Order() int      { return t.order }
func (t *Tabulated) Resolution() int { return t.n }

// MaxError bounds the absolute difference to the sampled function.
func (t *Tabulated) MaxError() float64 { return 1 / float64(4*t.n) }

func (t *Tabulated) Weight(i int, x float64) float64 {
	k := int(math.Floor((x+0.5)*float64(2*t.n) + 0.5))
	k = max(0, min(k, 2*t.n))
	return t.data[k*t.order+i]
}
