package cells

import (
	"fmt"
	"iter"
	"math"

	"github.com/san-kum/p3msim/internal/dynamo"
)

// maxCellsPerAxis bounds the inner grid when the interaction range is tiny
// compared to the box.
const maxCellsPerAxis = 64

// Decomposition owns the cell arena: inner cells plus one ghost layer.
type Decomposition struct {
	box    dynamo.Box
	cutoff float64
	skin   float64

	dims     [3]int // inner cells per axis
	cellSize dynamo.Vec3
	cells    []Cell
	inner    []int
	ghosts   []int

	index  map[int]PartRef
	locals []PartRef

	dirty    bool
	rebuilds int
}

// New creates an empty decomposition. A zero cutoff and skin yields a single
// inner cell and no pairs.
func New(box dynamo.Box, cutoff, skin float64) (*Decomposition, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if cutoff < 0 || math.IsNaN(cutoff) {
		return nil, fmt.Errorf("%w: cutoff %g", dynamo.ErrInvalidCutoff, cutoff)
	}
	if skin < 0 || math.IsNaN(skin) {
		return nil, fmt.Errorf("%w: skin %g", dynamo.ErrInvalidCutoff, skin)
	}
	rng := cutoff + skin
	if rng > 0.5*box.MinLength() {
		return nil, fmt.Errorf("%w: cutoff+skin %g exceeds half the smallest box length %g",
			dynamo.ErrInvalidCutoff, rng, 0.5*box.MinLength())
	}

	dd := &Decomposition{
		box:    box,
		cutoff: cutoff,
		skin:   skin,
		index:  make(map[int]PartRef),
		dirty:  true,
	}
	for d := 0; d < 3; d++ {
		n := 1
		if rng > 0 {
			n = int(box.L[d] / rng)
		}
		dd.dims[d] = max(1, min(n, maxCellsPerAxis))
		dd.cellSize[d] = box.L[d] / float64(dd.dims[d])
	}
	dd.initTopology()
	return dd, nil
}

func (dd *Decomposition) Box() dynamo.Box       { return dd.box }
func (dd *Decomposition) Cutoff() float64       { return dd.cutoff }
func (dd *Decomposition) Skin() float64         { return dd.skin }
func (dd *Decomposition) Dims() [3]int          { return dd.dims }
func (dd *Decomposition) CellSize() dynamo.Vec3 { return dd.cellSize }
func (dd *Decomposition) Rebuilds() int         { return dd.rebuilds }
func (dd *Decomposition) NumParticles() int     { return len(dd.locals) }

// Cells exposes the arena. Inner and ghost cells are told apart by their flags.
func (dd *Decomposition) Cells() []Cell { return dd.cells }

func (dd *Decomposition) flat(g [3]int) int {
	w := [3]int{dd.dims[0] + 2, dd.dims[1] + 2, dd.dims[2] + 2}
	return ((g[0]+1)*w[1]+(g[1]+1))*w[2] + (g[2] + 1)
}

// halfShell lists the 13 neighbor offsets that come after (0,0,0) in
// z-major lexicographic order. Pairing each cell only with these counts every
// adjacent cell pair exactly once.
var halfShell = func() [][3]int {
	var out [][3]int
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dz > 0 || (dz == 0 && dy > 0) || (dz == 0 && dy == 0 && dx > 0) {
					out = append(out, [3]int{dx, dy, dz})
				}
			}
		}
	}
	return out
}()

func (dd *Decomposition) initTopology() {
	w := [3]int{dd.dims[0] + 2, dd.dims[1] + 2, dd.dims[2] + 2}
	dd.cells = make([]Cell, w[0]*w[1]*w[2])

	for x := -1; x <= dd.dims[0]; x++ {
		for y := -1; y <= dd.dims[1]; y++ {
			for z := -1; z <= dd.dims[2]; z++ {
				g := [3]int{x, y, z}
				idx := dd.flat(g)
				c := &dd.cells[idx]
				c.dd = dd
				c.index = idx
				c.coord = g

				ghost := false
				for d := 0; d < 3; d++ {
					if g[d] < 0 || g[d] >= dd.dims[d] {
						ghost = true
						c.shift[d] = dd.box.L[d] * math.Floor(float64(g[d])/float64(dd.dims[d]))
					}
				}
				c.SetGhost(ghost)
				c.SetInner(!ghost)
				if ghost {
					dd.ghosts = append(dd.ghosts, idx)
				} else {
					dd.inner = append(dd.inner, idx)
				}
			}
		}
	}

	for _, idx := range dd.inner {
		c := &dd.cells[idx]
		for _, off := range halfShell {
			n := [3]int{c.coord[0] + off[0], c.coord[1] + off[1], c.coord[2] + off[2]}
			c.neighbors = append(c.neighbors, dd.flat(n))
		}
	}
}

// owner maps a ghost cell coordinate to the inner cell it mirrors.
func (dd *Decomposition) owner(g [3]int) int {
	for d := 0; d < 3; d++ {
		g[d] = ((g[d] % dd.dims[d]) + dd.dims[d]) % dd.dims[d]
	}
	return dd.flat(g)
}

func (dd *Decomposition) cellOf(pos dynamo.Vec3) int {
	var g [3]int
	for d := 0; d < 3; d++ {
		g[d] = min(int(pos[d]/dd.cellSize[d]), dd.dims[d]-1)
	}
	return dd.flat(g)
}

// Add inserts a particle into the cell containing its folded position. The
// pair list is stale until the next Rebuild.
func (dd *Decomposition) Add(p dynamo.Particle) error {
	if !p.Valid() {
		return fmt.Errorf("%w: particle id %d", dynamo.ErrParameterBounds, p.ID)
	}
	if _, ok := dd.index[p.ID]; ok {
		return fmt.Errorf("%w: duplicate particle id %d", dynamo.ErrParameterBounds, p.ID)
	}
	if !p.Pos.IsValid() {
		return fmt.Errorf("%w: particle %d has non-finite position", dynamo.ErrParameterBounds, p.ID)
	}

	pos, img := dd.box.Fold(p.Pos)
	p.Pos = pos
	for d := 0; d < 3; d++ {
		p.Image[d] += img[d]
	}

	c := &dd.cells[dd.cellOf(p.Pos)]
	c.parts = append(c.parts, p)
	c.built = append(c.built, p.Pos)
	ref := PartRef{Cell: c.index, Index: len(c.parts) - 1}
	dd.index[p.ID] = ref
	dd.locals = append(dd.locals, ref)
	dd.dirty = true
	return nil
}

// Particle looks up a local particle by id.
func (dd *Decomposition) Particle(id int) (*dynamo.Particle, bool) {
	ref, ok := dd.index[id]
	if !ok {
		return nil, false
	}
	return dd.at(ref), true
}

func (dd *Decomposition) at(r PartRef) *dynamo.Particle {
	return &dd.cells[r.Cell].parts[r.Index]
}

// LocalParticles yields every particle owned by an inner cell.
func (dd *Decomposition) LocalParticles() iter.Seq[*dynamo.Particle] {
	return func(yield func(*dynamo.Particle) bool) {
		for _, r := range dd.locals {
			if !yield(dd.at(r)) {
				return
			}
		}
	}
}

// Snapshot copies the local particles, ordered by id.
func (dd *Decomposition) Snapshot() dynamo.Particles {
	out := make(dynamo.Particles, 0, len(dd.locals))
	for p := range dd.LocalParticles() {
		out = append(out, *p)
	}
	sortByID(out)
	return out
}

// Len, Position, Charge and AddForce let the mesh solver read and update
// local particles in place.
func (dd *Decomposition) Len() int                   { return len(dd.locals) }
func (dd *Decomposition) Position(i int) dynamo.Vec3 { return dd.at(dd.locals[i]).Pos }
func (dd *Decomposition) Charge(i int) float64       { return dd.at(dd.locals[i]).Q }

func (dd *Decomposition) AddForce(i int, f dynamo.Vec3) {
	p := dd.at(dd.locals[i])
	p.Force = p.Force.Add(f)
}

// NeedsRebuild reports whether some particle moved more than skin/2 since the
// last rebuild, or particles were added.
func (dd *Decomposition) NeedsRebuild() bool {
	if dd.dirty {
		return true
	}
	limit := 0.25 * dd.skin * dd.skin
	for _, idx := range dd.inner {
		c := &dd.cells[idx]
		for i := range c.parts {
			if c.parts[i].Pos.Sub(c.built[i]).Norm2() > limit {
				return true
			}
		}
	}
	return false
}

// Rebuild folds positions back into the box, re-sorts particles into cells,
// refreshes the ghost layer and rebuilds the Verlet lists. Particle pointers
// obtained before the call are invalid afterwards.
func (dd *Decomposition) Rebuild() {
	all := make([]dynamo.Particle, 0, len(dd.locals))
	for _, r := range dd.locals {
		all = append(all, *dd.at(r))
	}

	counts := make([]int, len(dd.cells))
	target := make([]int, len(all))
	for i := range all {
		pos, img := dd.box.Fold(all[i].Pos)
		all[i].Pos = pos
		for d := 0; d < 3; d++ {
			all[i].Image[d] += img[d]
		}
		target[i] = dd.cellOf(pos)
		counts[target[i]]++
	}

	for i := range dd.cells {
		c := &dd.cells[i]
		c.clear()
		if c.IsInner() && cap(c.parts) != counts[i] {
			c.Resize(counts[i])
		}
		c.parts = c.parts[:0]
		c.built = c.built[:0]
	}

	clear(dd.index)
	dd.locals = dd.locals[:0]
	for i, p := range all {
		c := &dd.cells[target[i]]
		c.parts = append(c.parts, p)
		c.built = append(c.built, p.Pos)
		ref := PartRef{Cell: c.index, Index: len(c.parts) - 1}
		dd.index[p.ID] = ref
		dd.locals = append(dd.locals, ref)
	}

	dd.fillGhosts()
	dd.buildVerletLists()
	dd.dirty = false
	dd.rebuilds++
}

func (dd *Decomposition) fillGhosts() {
	for _, idx := range dd.ghosts {
		g := &dd.cells[idx]
		src := &dd.cells[dd.owner(g.coord)]
		for i := range src.parts {
			cp := src.parts[i]
			cp.Pos = cp.Pos.Add(g.shift)
			cp.Force = dynamo.Vec3{}
			g.parts = append(g.parts, cp)
			g.origins = append(g.origins, PartRef{Cell: src.index, Index: i})
		}
	}
}

// UpdateGhosts copies current owner positions and charges into the ghost
// copies without changing the cell layout.
func (dd *Decomposition) UpdateGhosts() {
	for _, idx := range dd.ghosts {
		g := &dd.cells[idx]
		for i, o := range g.origins {
			src := dd.at(o)
			g.parts[i].Pos = src.Pos.Add(g.shift)
			g.parts[i].Q = src.Q
			g.parts[i].Vel = src.Vel
		}
	}
}

// ResetForces zeroes forces on local particles and ghost copies.
func (dd *Decomposition) ResetForces() {
	for i := range dd.cells {
		c := &dd.cells[i]
		for j := range c.parts {
			c.parts[j].Force = dynamo.Vec3{}
		}
	}
}

// CollectGhostForces adds the forces accumulated on ghost copies to their
// owners and clears the copies.
func (dd *Decomposition) CollectGhostForces() {
	for _, idx := range dd.ghosts {
		g := &dd.cells[idx]
		for i, o := range g.origins {
			src := dd.at(o)
			src.Force = src.Force.Add(g.parts[i].Force)
			g.parts[i].Force = dynamo.Vec3{}
		}
	}
}
