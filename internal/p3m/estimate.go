package p3m

import (
	"math"
)

// RealSpaceError is the Kolafa-Perram estimate of the RMS force error of
// the real-space Ewald sum truncated at rc.
func RealSpaceError(prefactor, sumQ2 float64, n int, rc, alpha float64, box [3]float64) float64 {
	vol := box[0] * box[1] * box[2]
	return 2 * prefactor * sumQ2 * math.Exp(-alpha*alpha*rc*rc) / math.Sqrt(float64(n)*rc*vol)
}

// AlphaForRealSpaceError inverts RealSpaceError: the smallest α whose
// real-space error does not exceed target. It returns 0 when every α does.
func AlphaForRealSpaceError(prefactor, sumQ2 float64, n int, rc, target float64, box [3]float64) float64 {
	vol := box[0] * box[1] * box[2]
	x := 2 * prefactor * sumQ2 / (target * math.Sqrt(float64(n)*rc*vol))
	if x <= 1 {
		return 0
	}
	return math.Sqrt(math.Log(x)) / rc
}

// KSpaceError estimates the RMS force error of the ik mesh solver with the
// Hockney-Eastwood closed form. Non-cubic boxes use the geometric mean
// length.
func KSpaceError(p Params, n int, sumQ2 float64) float64 {
	if n == 0 || sumQ2 == 0 {
		return 0
	}
	l := math.Cbrt(p.Box.Volume())
	alphaL := p.Alpha * l
	mesh := p.Mesh

	heQ := 0.0
	for nx := -mesh[0] / 2; nx < (mesh[0]+1)/2; nx++ {
		ctanX := cotangentSum(nx, mesh[0], p.CAO)
		for ny := -mesh[1] / 2; ny < (mesh[1]+1)/2; ny++ {
			ctanY := cotangentSum(ny, mesh[1], p.CAO)
			for nz := -mesh[2] / 2; nz < (mesh[2]+1)/2; nz++ {
				if nx == 0 && ny == 0 && nz == 0 {
					continue
				}
				n2 := float64(nx*nx + ny*ny + nz*nz)
				cs := ctanX * ctanY * cotangentSum(nz, mesh[2], p.CAO)
				a1, a2 := tuneAliasingSums([3]int{nx, ny, nz}, mesh, p.CAO, alphaL)
				d := a1 - (a2/cs)*(a2/cs)/n2
				if d > 0 && math.Abs(d/a1) > 1e-14 {
					heQ += d
				}
			}
		}
	}
	return 2 * p.Prefactor * sumQ2 * math.Sqrt(heQ/float64(n)) / (l * l)
}

// TotalError combines real-space and k-space estimates in quadrature.
func TotalError(p Params, n int, sumQ2, rc float64) float64 {
	rs := RealSpaceError(p.Prefactor, sumQ2, n, rc, p.Alpha, p.Box.L)
	ks := KSpaceError(p, n, sumQ2)
	return math.Hypot(rs, ks)
}

func tuneAliasingSums(n, mesh [3]int, cao int, alphaL float64) (alias1, alias2 float64) {
	factor := (math.Pi / alphaL) * (math.Pi / alphaL)
	var nm [3]float64
	for d := 0; d < 3; d++ {
		nm[d] = float64(n[d])
	}
	nm2 := nm[0]*nm[0] + nm[1]*nm[1] + nm[2]*nm[2]
	ex := math.Exp(-factor * nm2)
	u := Sinc(nm[0]/float64(mesh[0])) * Sinc(nm[1]/float64(mesh[1])) * Sinc(nm[2]/float64(mesh[2]))
	u2 := math.Pow(u, 2*float64(cao))

	alias1 = ex * ex / nm2
	alias2 = u2 * ex * (float64(n[0])*nm[0] + float64(n[1])*nm[1] + float64(n[2])*nm[2]) / nm2
	return alias1, alias2
}

// cotangentSum is the closed form of Σ_m Ŵ²(n/M + m) for the B-spline of
// the given order.
func cotangentSum(n, mesh, cao int) float64 {
	c := math.Cos(math.Pi * float64(n) / float64(mesh))
	c *= c
	switch cao {
	case 1:
		return 1
	case 2:
		return (1 + 2*c) / 3
	case 3:
		return (2 + c*(11+2*c)) / 15
	case 4:
		return (17 + c*(180+c*(114+4*c))) / 315
	case 5:
		return (62 + c*(1072+c*(1452+c*(247+2*c)))) / 2835
	case 6:
		return (1382 + c*(35396+c*(83021+c*(34096+c*(2026+4*c))))) / 155925
	case 7:
		return (21844 + c*(776661+c*(2801040+c*(2123860+c*(349500+c*(8166+4*c)))))) / 6081075
	}
	return 0
}
