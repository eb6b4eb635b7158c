package p3m

import (
	"fmt"

	"github.com/mjibson/go-dsp/fft"
)

// Transformer is the 3-D Fourier transform collaborator. Forward uses the
// e^{-2πi n·m/M} convention; Inverse includes the 1/N normalization.
type Transformer interface {
	Forward(m *Mesh) error
	Inverse(m *Mesh) error
}

// DSPTransformer applies one-dimensional go-dsp transforms line by line
// along each axis.
type DSPTransformer struct{}

func (DSPTransformer) Forward(m *Mesh) error { return transform3D(m, fft.FFT) }
func (DSPTransformer) Inverse(m *Mesh) error { return transform3D(m, fft.IFFT) }

func transform3D(m *Mesh, line func([]complex128) []complex128) error {
	dims := m.dims
	if len(m.data) != dims[0]*dims[1]*dims[2] {
		return fmt.Errorf("p3m: mesh holds %d values for dims %v", len(m.data), dims)
	}
	stride := [3]int{dims[1] * dims[2], dims[2], 1}

	for axis := 0; axis < 3; axis++ {
		n := dims[axis]
		if n == 1 {
			continue
		}
		a, b := (axis+1)%3, (axis+2)%3
		buf := make([]complex128, n)
		for i := 0; i < dims[a]; i++ {
			for j := 0; j < dims[b]; j++ {
				base := i*stride[a] + j*stride[b]
				for k := 0; k < n; k++ {
					buf[k] = m.data[base+k*stride[axis]]
				}
				out := line(buf)
				if len(out) != n {
					return fmt.Errorf("p3m: transform returned %d values for a line of %d", len(out), n)
				}
				for k := 0; k < n; k++ {
					m.data[base+k*stride[axis]] = out[k]
				}
			}
		}
	}
	return nil
}
