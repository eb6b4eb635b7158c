package p3m

import "math"

// sincTaylorCutoff is the |x| below which Sinc uses its Taylor expansion.
const sincTaylorCutoff = 0.1

const (
	sincC2 = -0.1666666666667e-0
	sincC4 = 0.8333333333333e-2
	sincC6 = -0.1984126984127e-3
	sincC8 = 0.2755731922399e-5
)

// Sinc returns sin(πx)/(πx).
func Sinc(x float64) float64 {
	if math.Abs(x) <= sincTaylorCutoff {
		p2 := (math.Pi * x) * (math.Pi * x)
		return 1 + p2*(sincC2+p2*(sincC4+p2*(sincC6+p2*sincC8)))
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// BSplineHat is the Fourier transform of the order-p assignment kernel at
// the mesh-normalized frequency x.
func BSplineHat(order int, x float64) float64 {
	s := Sinc(x)
	r := 1.0
	for i := 0; i < order; i++ {
		r *= s
	}
	return r
}
