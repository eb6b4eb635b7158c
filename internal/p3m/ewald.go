package p3m

import (
	"fmt"
	"math"

	"github.com/san-kum/p3msim/internal/dynamo"
)

// EwaldReciprocal evaluates the reciprocal-space Ewald energy and forces by
// direct summation over all modes with |n_d| <= kmax[d]. It scales as
// N·Πkmax and serves as the reference the mesh solver is checked against.
func EwaldReciprocal(ps Particles, box dynamo.Box, alpha, prefactor float64, kmax [3]int) (float64, []dynamo.Vec3, error) {
	if err := box.Validate(); err != nil {
		return 0, nil, err
	}
	if !(alpha > 0) {
		return 0, nil, fmt.Errorf("%w: %g", dynamo.ErrInvalidAlpha, alpha)
	}

	n := ps.Len()
	pos := make([]dynamo.Vec3, n)
	q := make([]float64, n)
	for i := range pos {
		pos[i] = ps.Position(i)
		q[i] = ps.Charge(i)
	}

	vol := box.Volume()
	forces := make([]dynamo.Vec3, n)
	phase := make([]complex128, n)
	energy := 0.0

	for nx := -kmax[0]; nx <= kmax[0]; nx++ {
		for ny := -kmax[1]; ny <= kmax[1]; ny++ {
			for nz := -kmax[2]; nz <= kmax[2]; nz++ {
				k := dynamo.Vec3{float64(nx) / box.L[0], float64(ny) / box.L[1], float64(nz) / box.L[2]}
				g := GEwald(alpha, k.Norm2())
				if g == 0 {
					continue
				}

				var sRe, sIm float64
				for i := range pos {
					arg := 2 * math.Pi * k.Dot(pos[i])
					sin, cos := math.Sincos(arg)
					phase[i] = complex(cos, sin)
					sRe += q[i] * cos
					sIm += q[i] * sin
				}
				energy += g * (sRe*sRe + sIm*sIm)

				for i := range pos {
					// Im(e^{2πik·r_i} S*)
					im := imag(phase[i])*sRe - real(phase[i])*sIm
					forces[i] = forces[i].Add(k.Scale(2 * prefactor * q[i] / vol * g * im))
				}
			}
		}
	}
	return prefactor / (2 * math.Pi * vol) * energy, forces, nil
}
