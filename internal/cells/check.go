package cells

import (
	"fmt"

	"github.com/san-kum/p3msim/internal/dynamo"
)

// roundErrorPrec is the relative slack allowed on cell bounds.
const roundErrorPrec = 1e-14

// Check audits the decomposition: ids are valid and unique, the id index
// matches storage, every local particle sits within its cell (plus skin/2 of
// drift), ghost copies point at live owners, and Verlet refs are in range.
// The first violation is returned as a *dynamo.IntegrityError.
func (dd *Decomposition) Check() error {
	seen := make(map[int]struct{}, len(dd.locals))
	count := 0
	slack := 0.5 * dd.skin

	for _, idx := range dd.inner {
		c := &dd.cells[idx]
		if c.IsGhost() || !c.IsInner() {
			return &dynamo.IntegrityError{Cell: idx, Particle: -1, Message: "inner cell carries wrong flags"}
		}
		if len(c.built) != len(c.parts) {
			return &dynamo.IntegrityError{Cell: idx, Particle: -1,
				Message: fmt.Sprintf("rebuild positions %d do not match particle count %d", len(c.built), len(c.parts))}
		}

		for i := range c.parts {
			p := &c.parts[i]
			count++
			if !p.Valid() {
				return &dynamo.IntegrityError{Cell: idx, Particle: p.ID, Message: "corrupted id"}
			}
			if _, dup := seen[p.ID]; dup {
				return &dynamo.IntegrityError{Cell: idx, Particle: p.ID, Message: "duplicate id"}
			}
			seen[p.ID] = struct{}{}

			if ref, ok := dd.index[p.ID]; !ok || ref != (PartRef{Cell: idx, Index: i}) {
				return &dynamo.IntegrityError{Cell: idx, Particle: p.ID, Message: "index does not point at storage slot"}
			}

			for d := 0; d < 3; d++ {
				lo := float64(c.coord[d])*dd.cellSize[d] - slack
				hi := float64(c.coord[d]+1)*dd.cellSize[d] + slack
				eps := roundErrorPrec * dd.box.L[d]
				if p.Pos[d] < lo-eps || p.Pos[d] > hi+eps {
					return &dynamo.IntegrityError{Cell: idx, Particle: p.ID,
						Message: fmt.Sprintf("pos[%d]=%g outside cell range [%g, %g]", d, p.Pos[d], lo, hi)}
				}
			}
		}

		for _, pr := range c.pairs {
			if !dd.validRef(pr.A) || !dd.validRef(pr.B) {
				return &dynamo.IntegrityError{Cell: idx, Particle: -1, Message: "pair list references a missing particle"}
			}
		}
	}

	if count != len(dd.index) || count != len(dd.locals) {
		return &dynamo.IntegrityError{Cell: -1, Particle: -1,
			Message: fmt.Sprintf("%d particles in cells, %d indexed, %d local", count, len(dd.index), len(dd.locals))}
	}

	for _, idx := range dd.ghosts {
		g := &dd.cells[idx]
		if !g.IsGhost() || g.IsInner() {
			return &dynamo.IntegrityError{Cell: idx, Particle: -1, Message: "ghost cell carries wrong flags"}
		}
		if len(g.origins) != len(g.parts) {
			return &dynamo.IntegrityError{Cell: idx, Particle: -1, Message: "ghost copies without origin"}
		}
		for i, o := range g.origins {
			if !dd.validRef(o) || !dd.cells[o.Cell].IsInner() {
				return &dynamo.IntegrityError{Cell: idx, Particle: g.parts[i].ID, Message: "ghost origin is not a local particle"}
			}
			if dd.at(o).ID != g.parts[i].ID {
				return &dynamo.IntegrityError{Cell: idx, Particle: g.parts[i].ID, Message: "ghost copy id differs from owner"}
			}
		}
	}

	return nil
}

func (dd *Decomposition) validRef(r PartRef) bool {
	return r.Cell >= 0 && r.Cell < len(dd.cells) && r.Index >= 0 && r.Index < len(dd.cells[r.Cell].parts)
}
