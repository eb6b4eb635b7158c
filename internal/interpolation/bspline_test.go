package interpolation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/p3msim/internal/dynamo"
)

func TestValidateOrder(t *testing.T) {
	for order := 1; order <= MaxOrder; order++ {
		assert.NoError(t, ValidateOrder(order), "order %d", order)
	}
	assert.ErrorIs(t, ValidateOrder(0), dynamo.ErrInvalidOrder)
	assert.ErrorIs(t, ValidateOrder(8), dynamo.ErrInvalidOrder)

	_, err := NewSpline(9)
	assert.ErrorIs(t, err, dynamo.ErrInvalidOrder)
}

func TestBSpline_PartitionOfUnity(t *testing.T) {
	for order := 1; order <= MaxOrder; order++ {
		for k := 0; k <= 100; k++ {
			x := -0.5 + float64(k)/100
			sum := 0.0
			for i := 0; i < order; i++ {
				w := BSpline(order, i, x)
				assert.GreaterOrEqual(t, w, -1e-15, "order %d i %d x %g", order, i, x)
				sum += w
			}
			assert.InDelta(t, 1.0, sum, 1e-12, "order %d x %g", order, x)
		}
	}
}

func TestBSpline_Mirror(t *testing.T) {
	for order := 1; order <= MaxOrder; order++ {
		for _, x := range []float64{-0.5, -0.31, -0.1, 0, 0.07, 0.25, 0.49} {
			for i := 0; i < order; i++ {
				assert.InDelta(t, BSpline(order, i, x), BSpline(order, order-1-i, -x), 1e-14,
					"order %d i %d x %g", order, i, x)
			}
		}
	}
}

func TestBSpline_OutOfRange(t *testing.T) {
	assert.Zero(t, BSpline(3, 3, 0.1))
	assert.Zero(t, BSpline(3, -1, 0.1))
	assert.Zero(t, BSpline(8, 0, 0.1))
}

func TestTabulated(t *testing.T) {
	for order := 1; order <= MaxOrder; order++ {
		s, err := NewSpline(order)
		require.NoError(t, err)
		tab, err := NewTabulated(s, 1000)
		require.NoError(t, err)
		assert.Equal(t, order, tab.Order())

		// samples are exact
		for k := 0; k <= 2000; k += 50 {
			x := -0.5 + float64(k)/2000
			for i := 0; i < order; i++ {
				assert.InDelta(t, s.Weight(i, x), tab.Weight(i, x), 1e-15)
			}
		}

		worst := 0.0
		for k := 0; k <= 997; k++ {
			x := -0.5 + float64(k)/997
			for i := 0; i < order; i++ {
				worst = math.Max(worst, math.Abs(s.Weight(i, x)-tab.Weight(i, x)))
			}
		}
		assert.LessOrEqual(t, worst, tab.MaxError(), "order %d", order)
	}

	s, _ := NewSpline(3)
	_, err := NewTabulated(s, 0)
	assert.ErrorIs(t, err, dynamo.ErrParameterBounds)
}
