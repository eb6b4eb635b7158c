package cells

import (
	"iter"

	"github.com/san-kum/p3msim/internal/dynamo"
)

type cellFlags uint8

const (
	flagGhost cellFlags = 1 << iota
	flagInner
)

// PartRef addresses a particle slot in the cell arena.
type PartRef struct {
	Cell  int
	Index int
}

// Pair is an entry of a Verlet list.
type Pair struct {
	A, B PartRef
}

// Cell is an ordered bucket of particles. Ghost cells hold copies only; the
// authoritative particle is found through origins.
type Cell struct {
	dd    *Decomposition
	index int
	coord [3]int
	flags cellFlags

	parts     []dynamo.Particle
	neighbors []int
	pairs     []Pair

	// positions at the last rebuild, aligned with parts
	built []dynamo.Vec3

	// ghost bookkeeping: owner of every copy and the image shift applied to it
	origins []PartRef
	shift   dynamo.Vec3
}

func (c *Cell) SetGhost(v bool) { c.setFlag(flagGhost, v) }
func (c *Cell) SetInner(v bool) { c.setFlag(flagInner, v) }
func (c *Cell) IsGhost() bool   { return c.flags&flagGhost != 0 }
func (c *Cell) IsInner() bool   { return c.flags&flagInner != 0 }

func (c *Cell) setFlag(f cellFlags, v bool) {
	if v {
		c.flags |= f
	} else {
		c.flags &^= f
	}
}

func (c *Cell) Index() int         { return c.index }
func (c *Cell) Coord() [3]int      { return c.coord }
func (c *Cell) Len() int           { return len(c.parts) }
func (c *Cell) Pairs() []Pair      { return c.pairs }
func (c *Cell) Shift() dynamo.Vec3 { return c.shift }

// Particle returns a pointer into the cell storage. It is invalidated by
// Resize and by Decomposition.Rebuild.
func (c *Cell) Particle(i int) *dynamo.Particle { return &c.parts[i] }

// Neighbors yields the topological neighbors in insertion order. The
// sequence can be ranged over any number of times.
func (c *Cell) Neighbors() iter.Seq[*Cell] {
	return func(yield func(*Cell) bool) {
		for _, n := range c.neighbors {
			if !yield(&c.dd.cells[n]) {
				return
			}
		}
	}
}

// Resize reallocates the particle storage to hold exactly n particles.
// Existing particles up to n are kept; all outstanding pointers into the
// cell are invalid afterwards.
func (c *Cell) Resize(n int) {
	parts := make([]dynamo.Particle, n)
	copy(parts, c.parts)
	c.parts = parts

	built := make([]dynamo.Vec3, n)
	copy(built, c.built)
	c.built = built
}

func (c *Cell) clear() {
	c.parts = c.parts[:0]
	c.built = c.built[:0]
	c.origins = c.origins[:0]
	c.pairs = c.pairs[:0]
}
