package p3m

// AliasingSum visits the (2m+1)³ periodic images of a mesh mode together with
// the squared assignment transform of each image.
type AliasingSum struct {
	mesh  [3]int
	order int
	m     int
	shift [3][]int
}

func NewAliasingSum(mesh [3]int, order, m int) *AliasingSum {
	a := &AliasingSum{mesh: mesh, order: order, m: m}
	for d := 0; d < 3; d++ {
		md := mesh[d]
		a.shift[d] = make([]int, md)
		for j := 1; j <= md/2; j++ {
			a.shift[d][j] = j
			a.shift[d][md-j] = -j
		}
	}
	return a
}

// Shift maps mesh index n on axis d to its signed frequency.
func (a *AliasingSum) Shift(d, n int) int { return a.shift[d][n] }

// Visit calls fn with every image frequency nm of mode n and its weight
// Ŵ²(nm_x) Ŵ²(nm_y) Ŵ²(nm_z).
func (a *AliasingSum) Visit(n [3]int, fn func(nm [3]int, w float64)) {
	var nm [3]int
	for mx := -a.m; mx <= a.m; mx++ {
		nm[0] = a.shift[0][n[0]] + a.mesh[0]*mx
		wx := BSplineHat(a.order, float64(nm[0])/float64(a.mesh[0]))
		sx := wx * wx
		for my := -a.m; my <= a.m; my++ {
			nm[1] = a.shift[1][n[1]] + a.mesh[1]*my
			wy := BSplineHat(a.order, float64(nm[1])/float64(a.mesh[1]))
			sxy := sx * wy * wy
			for mz := -a.m; mz <= a.m; mz++ {
				nm[2] = a.shift[2][n[2]] + a.mesh[2]*mz
				wz := BSplineHat(a.order, float64(nm[2])/float64(a.mesh[2]))
				fn(nm, sxy*wz*wz)
			}
		}
	}
}
