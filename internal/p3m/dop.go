package p3m

// DOp holds, per axis, the signed wavenumber used for ik differentiation.
// Index 0 and the Nyquist index of even meshes map to 0.
type DOp [3][]int

func NewDOp(mesh [3]int) DOp {
	var op DOp
	for d := 0; d < 3; d++ {
		m := mesh[d]
		op[d] = make([]int, m)
		for j := 1; j < (m+1)/2; j++ {
			op[d][j] = j
			op[d][m-j] = -j
		}
	}
	return op
}
