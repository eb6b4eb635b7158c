package p3m

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func realParts(m *Mesh) []float64 {
	out := make([]float64, len(m.data))
	for i, v := range m.data {
		out[i] = real(v)
	}
	return out
}

func randomMesh(dims [3]int, seed uint64) *Mesh {
	rng := rand.New(rand.NewSource(seed))
	m := NewMesh(dims)
	for i := range m.data {
		m.data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	return m
}

func naiveDFT(m *Mesh) []complex128 {
	dims := m.dims
	out := make([]complex128, len(m.data))
	for kx := 0; kx < dims[0]; kx++ {
		for ky := 0; ky < dims[1]; ky++ {
			for kz := 0; kz < dims[2]; kz++ {
				var sum complex128
				for x := 0; x < dims[0]; x++ {
					for y := 0; y < dims[1]; y++ {
						for z := 0; z < dims[2]; z++ {
							arg := -2 * math.Pi * (float64(kx*x)/float64(dims[0]) +
								float64(ky*y)/float64(dims[1]) + float64(kz*z)/float64(dims[2]))
							sum += m.data[(x*dims[1]+y)*dims[2]+z] * cmplx.Exp(complex(0, arg))
						}
					}
				}
				out[(kx*dims[1]+ky)*dims[2]+kz] = sum
			}
		}
	}
	return out
}

func TestDSPTransformer_MatchesDFT(t *testing.T) {
	m := randomMesh([3]int{4, 3, 5}, 1)
	want := naiveDFT(m)

	require.NoError(t, DSPTransformer{}.Forward(m))
	for i := range want {
		assert.InDelta(t, real(want[i]), real(m.data[i]), 1e-10)
		assert.InDelta(t, imag(want[i]), imag(m.data[i]), 1e-10)
	}
}

func TestDSPTransformer_RoundTrip(t *testing.T) {
	for _, dims := range [][3]int{{8, 8, 8}, {6, 1, 10}, {1, 1, 1}} {
		m := randomMesh(dims, 2)
		orig := append([]complex128(nil), m.data...)

		require.NoError(t, DSPTransformer{}.Forward(m))
		require.NoError(t, DSPTransformer{}.Inverse(m))
		for i := range orig {
			assert.InDelta(t, 0, cmplx.Abs(orig[i]-m.data[i]), 1e-12, "dims %v", dims)
		}
	}
}

func TestMesh_Index(t *testing.T) {
	m := NewMesh([3]int{4, 5, 6})
	assert.Equal(t, 0, m.Index([3]int{0, 0, 0}))
	assert.Equal(t, m.Index([3]int{1, 2, 3}), m.Index([3]int{-3, 7, -3}))
	assert.Equal(t, (3*5+4)*6+5, m.Index([3]int{-1, -1, -1}))

	m.Add([3]int{-1, 0, 0}, 2)
	m.Add([3]int{3, 5, 6}, 1)
	assert.Equal(t, complex(3, 0), m.At(m.Index([3]int{3, 0, 0})))

	m.Zero()
	for _, v := range realParts(m) {
		assert.Zero(t, v)
	}
}
