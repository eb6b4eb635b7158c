package cells

import (
	"slices"

	"github.com/san-kum/p3msim/internal/dynamo"
)

// PairFunc receives both particles of a Verlet pair, the separation
// a.Pos-b.Pos and its square. Either particle may be a ghost copy.
type PairFunc func(a, b *dynamo.Particle, d dynamo.Vec3, dist2 float64)

func (dd *Decomposition) buildVerletLists() {
	rng := dd.cutoff + dd.skin
	rng2 := rng * rng

	dynamo.ParallelFor(len(dd.inner), 16, func(start, end int) {
		for _, idx := range dd.inner[start:end] {
			c := &dd.cells[idx]
			c.pairs = c.pairs[:0]
			if rng == 0 {
				continue
			}

			for i := range c.parts {
				for j := i + 1; j < len(c.parts); j++ {
					if c.parts[i].Pos.Sub(c.parts[j].Pos).Norm2() < rng2 {
						c.pairs = append(c.pairs, Pair{PartRef{idx, i}, PartRef{idx, j}})
					}
				}
			}

			for n := range c.Neighbors() {
				for i := range c.parts {
					for j := range n.parts {
						if c.parts[i].Pos.Sub(n.parts[j].Pos).Norm2() < rng2 {
							c.pairs = append(c.pairs, Pair{PartRef{idx, i}, PartRef{n.index, j}})
						}
					}
				}
			}
		}
	})
}

// ForEachPair visits every Verlet pair of every inner cell. Pairs are
// candidates within cutoff+skin at the time of the last rebuild; callers
// apply the actual cutoff.
func (dd *Decomposition) ForEachPair(fn PairFunc) {
	for _, idx := range dd.inner {
		for _, pr := range dd.cells[idx].pairs {
			a, b := dd.at(pr.A), dd.at(pr.B)
			d := a.Pos.Sub(b.Pos)
			fn(a, b, d, d.Norm2())
		}
	}
}

// NumPairs is the total Verlet list length.
func (dd *Decomposition) NumPairs() int {
	n := 0
	for _, idx := range dd.inner {
		n += len(dd.cells[idx].pairs)
	}
	return n
}

// PairIDs returns the Verlet list as id pairs with the smaller id first.
func (dd *Decomposition) PairIDs() [][2]int {
	out := make([][2]int, 0, dd.NumPairs())
	for _, idx := range dd.inner {
		for _, pr := range dd.cells[idx].pairs {
			a, b := dd.at(pr.A).ID, dd.at(pr.B).ID
			if a > b {
				a, b = b, a
			}
			out = append(out, [2]int{a, b})
		}
	}
	return out
}

func sortByID(ps dynamo.Particles) {
	slices.SortFunc(ps, func(a, b dynamo.Particle) int { return a.ID - b.ID })
}
