package p3m

// Mesh is a periodic complex grid stored x-major: (x*My+y)*Mz+z.
type Mesh struct {
	dims [3]int
	data []complex128
}

func NewMesh(dims [3]int) *Mesh {
	return &Mesh{dims: dims, data: make([]complex128, dims[0]*dims[1]*dims[2])}
}

func (m *Mesh) Dims() [3]int            { return m.dims }
func (m *Mesh) Len() int                { return len(m.data) }
func (m *Mesh) Data() []complex128      { return m.data }
func (m *Mesh) At(i int) complex128     { return m.data[i] }
func (m *Mesh) Set(i int, v complex128) { m.data[i] = v }

// Index wraps a mesh index triple into the flat layout.
func (m *Mesh) Index(ind [3]int) int {
	var w [3]int
	for d := 0; d < 3; d++ {
		w[d] = ind[d] % m.dims[d]
		if w[d] < 0 {
			w[d] += m.dims[d]
		}
	}
	return (w[0]*m.dims[1]+w[1])*m.dims[2] + w[2]
}

// Add accumulates v at the wrapped index.
func (m *Mesh) Add(ind [3]int, v float64) {
	m.data[m.Index(ind)] += complex(v, 0)
}

// Zero clears every coefficient.
func (m *Mesh) Zero() {
	clear(m.data)
}

