package p3m

import "math"

// gEwaldLimit is the exponent beyond which GEwald is treated as zero.
const gEwaldLimit = 30.0

// GEwald is the continuum reciprocal-space Ewald Green's function
// exp(-π²k²/α²)/k² for k² = |n/L|².
func GEwald(alpha, k2 float64) float64 {
	if k2 == 0 {
		return 0
	}
	exponent := math.Pi * math.Pi * k2 / (alpha * alpha)
	if exponent >= gEwaldLimit {
		return 0
	}
	return math.Exp(-exponent) / k2
}
