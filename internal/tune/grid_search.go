package tune

import (
	"context"
	"fmt"
	"iter"
	"math"

	"github.com/san-kum/p3msim/internal/dynamo"
)

// GridSearch enumerates (cutoff, mesh, cao) triples. Mesh values are the
// number of points along the shortest box edge; longer edges get
// proportionally more.
type GridSearch struct {
	Cutoffs []float64
	Meshes  []int
	CAOs    []int
}

func NewGridSearch(cutoffs []float64, meshes, caos []int) *GridSearch {
	return &GridSearch{Cutoffs: cutoffs, Meshes: meshes, CAOs: caos}
}

// DefaultGrid covers the ranges that are sensible for a box of the given
// size: cutoffs up to half the shortest edge, meshes 8..64, every order.
func DefaultGrid(box dynamo.Box) *GridSearch {
	half := box.MinLength() / 2
	cutoffs := make([]float64, 0, 8)
	for i := 1; i <= 8; i++ {
		cutoffs = append(cutoffs, half*float64(i)/9)
	}
	return NewGridSearch(cutoffs, []int{8, 12, 16, 24, 32, 48, 64}, []int{1, 2, 3, 4, 5, 6, 7})
}

func (g *GridSearch) Validate() error {
	if len(g.Cutoffs) == 0 || len(g.Meshes) == 0 || len(g.CAOs) == 0 {
		return fmt.Errorf("%w: empty search grid", dynamo.ErrParameterBounds)
	}
	for _, rc := range g.Cutoffs {
		if !(rc > 0) {
			return fmt.Errorf("%w: %g", dynamo.ErrInvalidCutoff, rc)
		}
	}
	for _, m := range g.Meshes {
		if m < 1 {
			return fmt.Errorf("%w: %d", dynamo.ErrInvalidMesh, m)
		}
	}
	for _, cao := range g.CAOs {
		if cao < 1 || cao > 7 {
			return fmt.Errorf("%w: %d", dynamo.ErrInvalidOrder, cao)
		}
	}
	return nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int { return len(g.Cutoffs) * len(g.Meshes) * len(g.CAOs) }

type point struct {
	cutoff float64
	mesh   int
	cao    int
}

func (g *GridSearch) points() iter.Seq[point] {
	return func(yield func(point) bool) {
		for _, rc := range g.Cutoffs {
			for _, m := range g.Meshes {
				for _, cao := range g.CAOs {
					if !yield(point{cutoff: rc, mesh: m, cao: cao}) {
						return
					}
				}
			}
		}
	}
}

// MeshFor scales the shortest-edge mesh size to every axis of box.
func MeshFor(box dynamo.Box, m int) [3]int {
	short := box.MinLength()
	var mesh [3]int
	for d := 0; d < 3; d++ {
		mesh[d] = max(1, int(math.Round(float64(m)*box.L[d]/short)))
	}
	return mesh
}

// Search evaluates every grid point and keeps the cheapest candidate whose
// estimated total error stays within target. Points that miss the target
// are still reported through visit.
func (g *GridSearch) Search(
	ctx context.Context,
	evaluate func(rc float64, mesh, cao int) (Candidate, error),
	target float64,
	visit func(Candidate),
) (Candidate, bool, error) {
	var (
		best  Candidate
		found bool
	)
	for pt := range g.points() {
		if err := ctx.Err(); err != nil {
			return best, found, err
		}

		c, err := evaluate(pt.cutoff, pt.mesh, pt.cao)
		if err != nil {
			return best, found, err
		}
		if visit != nil {
			visit(c)
		}

		if c.Total <= target && (!found || c.Cost < best.Cost) {
			best = c
			found = true
		}
	}
	return best, found, nil
}
