package cells_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/exp/rand"

	"github.com/san-kum/p3msim/internal/cells"
	"github.com/san-kum/p3msim/internal/dynamo"
)

func uniformCloud(n int, box dynamo.Box, seed uint64) []dynamo.Particle {
	rng := rand.New(rand.NewSource(seed))
	parts := make([]dynamo.Particle, n)
	for i := range parts {
		parts[i] = dynamo.Particle{
			ID:   i,
			Pos:  dynamo.Vec3{rng.Float64() * box.L[0], rng.Float64() * box.L[1], rng.Float64() * box.L[2]},
			Q:    float64(1 - 2*(i%2)),
			Mass: 1,
		}
	}
	return parts
}

func build(box dynamo.Box, cutoff, skin float64, parts []dynamo.Particle) *cells.Decomposition {
	dd, err := cells.New(box, cutoff, skin)
	Expect(err).NotTo(HaveOccurred())
	for _, p := range parts {
		Expect(dd.Add(p)).To(Succeed())
	}
	dd.Rebuild()
	return dd
}

func pairSet(dd *cells.Decomposition) map[[2]int]int {
	set := make(map[[2]int]int)
	for _, pr := range dd.PairIDs() {
		set[pr]++
	}
	return set
}

var _ = Describe("Decomposition", func() {
	box := dynamo.CubicBox(1)

	Describe("configuration", func() {
		It("rejects negative cutoffs and skins", func() {
			_, err := cells.New(box, -0.1, 0.02)
			Expect(err).To(MatchError(dynamo.ErrInvalidCutoff))
			_, err = cells.New(box, 0.1, -0.02)
			Expect(err).To(MatchError(dynamo.ErrInvalidCutoff))
		})

		It("rejects ranges beyond half the box", func() {
			_, err := cells.New(box, 0.45, 0.1)
			Expect(err).To(MatchError(dynamo.ErrInvalidCutoff))
		})

		It("rejects degenerate boxes", func() {
			_, err := cells.New(dynamo.Box{L: dynamo.Vec3{1, 0, 1}}, 0.1, 0)
			Expect(err).To(MatchError(dynamo.ErrInvalidBox))
		})

		It("sizes cells to at least cutoff plus skin", func() {
			dd, err := cells.New(box, 0.1, 0.02)
			Expect(err).NotTo(HaveOccurred())
			Expect(dd.Dims()).To(Equal([3]int{8, 8, 8}))
			for _, s := range dd.CellSize() {
				Expect(s).To(BeNumerically(">=", 0.12))
			}
		})

		It("uses a single cell when both cutoff and skin are zero", func() {
			dd, err := cells.New(box, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(dd.Dims()).To(Equal([3]int{1, 1, 1}))
		})
	})

	Describe("topology", func() {
		var dd *cells.Decomposition

		BeforeEach(func() {
			var err error
			dd, err = cells.New(box, 0.2, 0.05)
			Expect(err).NotTo(HaveOccurred())
		})

		It("surrounds the inner grid with one ghost layer", func() {
			inner, ghost := 0, 0
			for i := range dd.Cells() {
				c := &dd.Cells()[i]
				Expect(c.IsGhost()).NotTo(Equal(c.IsInner()))
				if c.IsInner() {
					inner++
				} else {
					ghost++
				}
			}
			Expect(inner).To(Equal(4 * 4 * 4))
			Expect(ghost).To(Equal(6*6*6 - 4*4*4))
		})

		It("gives every inner cell a stable half shell of 13 neighbors", func() {
			for i := range dd.Cells() {
				c := &dd.Cells()[i]
				var first, second []int
				for n := range c.Neighbors() {
					first = append(first, n.Index())
				}
				for n := range c.Neighbors() {
					second = append(second, n.Index())
				}
				Expect(first).To(Equal(second))
				if c.IsInner() {
					Expect(first).To(HaveLen(13))
				} else {
					Expect(first).To(BeEmpty())
				}
			}
		})

		It("flags ghost cells only on the boundary layer", func() {
			dims := dd.Dims()
			for i := range dd.Cells() {
				c := &dd.Cells()[i]
				g := c.Coord()
				outside := false
				for d := 0; d < 3; d++ {
					if g[d] < 0 || g[d] >= dims[d] {
						outside = true
					}
				}
				Expect(c.IsGhost()).To(Equal(outside))
			}
		})
	})

	Describe("pair list", func() {
		It("contains every pair within the cutoff and none beyond cutoff plus skin", func() {
			const (
				n      = 10000
				cutoff = 0.1
				skin   = 0.02
			)
			parts := uniformCloud(n, box, 1)
			dd := build(box, cutoff, skin, parts)

			set := pairSet(dd)
			Expect(set).To(HaveLen(dd.NumPairs()), "pair list holds duplicates")

			tooFar := 0
			for pr := range set {
				d := box.MinImage(parts[pr[0]].Pos.Sub(parts[pr[1]].Pos))
				if d.Norm() >= cutoff+skin+1e-12 {
					tooFar++
				}
			}
			Expect(tooFar).To(BeZero(), "pairs beyond cutoff plus skin")

			missing := 0
			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					d := box.MinImage(parts[i].Pos.Sub(parts[j].Pos))
					if d.Norm2() <= cutoff*cutoff {
						if _, ok := set[[2]int{i, j}]; !ok {
							missing++
						}
					}
				}
			}
			Expect(missing).To(BeZero())
		})

		It("stays complete while displacements are below half the skin", func() {
			const (
				n      = 2000
				cutoff = 0.15
				skin   = 0.04
			)
			parts := uniformCloud(n, box, 2)
			dd := build(box, cutoff, skin, parts)
			set := pairSet(dd)

			rng := rand.New(rand.NewSource(3))
			step := 0.45 * skin / math.Sqrt(3)
			for p := range dd.LocalParticles() {
				for d := 0; d < 3; d++ {
					p.Pos[d] += step * (2*rng.Float64() - 1)
				}
			}
			dd.UpdateGhosts()
			Expect(dd.NeedsRebuild()).To(BeFalse())

			moved := dd.Snapshot()
			missing := 0
			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					d := box.MinImage(moved[i].Pos.Sub(moved[j].Pos))
					if d.Norm2() <= cutoff*cutoff {
						if _, ok := set[[2]int{i, j}]; !ok {
							missing++
						}
					}
				}
			}
			Expect(missing).To(BeZero())
		})

		It("finds pairs across the periodic boundary through ghost copies", func() {
			parts := []dynamo.Particle{
				{ID: 0, Pos: dynamo.Vec3{0.01, 0.5, 0.5}, Q: 1, Mass: 1},
				{ID: 1, Pos: dynamo.Vec3{0.99, 0.5, 0.5}, Q: -1, Mass: 1},
			}
			dd := build(box, 0.1, 0.02, parts)
			Expect(dd.PairIDs()).To(Equal([][2]int{{0, 1}}))

			dd.ForEachPair(func(a, b *dynamo.Particle, d dynamo.Vec3, dist2 float64) {
				Expect(math.Sqrt(dist2)).To(BeNumerically("~", 0.02, 1e-12))
				f := d.Scale(1 / dist2)
				a.Force = a.Force.Add(f)
				b.Force = b.Force.Sub(f)
			})
			dd.CollectGhostForces()

			p0, _ := dd.Particle(0)
			p1, _ := dd.Particle(1)
			Expect(p0.Force[0]).NotTo(BeZero())
			Expect(p0.Force[0] + p1.Force[0]).To(BeNumerically("~", 0, 1e-12))
			Expect(p0.Force[0]).To(BeNumerically(">", 0), "particle 0 is pushed away from its image neighbor")
		})

		It("emits no pairs when the interaction range is zero", func() {
			dd := build(box, 0, 0, uniformCloud(100, box, 4))
			Expect(dd.NumPairs()).To(BeZero())
		})
	})

	Describe("rebuild policy", func() {
		var dd *cells.Decomposition

		BeforeEach(func() {
			dd = build(box, 0.1, 0.02, uniformCloud(500, box, 5))
		})

		It("does not need a rebuild right after one", func() {
			Expect(dd.NeedsRebuild()).To(BeFalse())
			Expect(dd.Rebuilds()).To(Equal(1))
		})

		It("triggers once a particle moves more than half the skin", func() {
			p, ok := dd.Particle(7)
			Expect(ok).To(BeTrue())
			p.Pos[0] += 0.009
			Expect(dd.NeedsRebuild()).To(BeFalse())
			p.Pos[0] += 0.002
			Expect(dd.NeedsRebuild()).To(BeTrue())
		})

		It("triggers after particles are added", func() {
			Expect(dd.Add(dynamo.Particle{ID: 1000, Pos: dynamo.Vec3{0.5, 0.5, 0.5}})).To(Succeed())
			Expect(dd.NeedsRebuild()).To(BeTrue())
		})

		It("folds escaped particles back and counts images", func() {
			p, _ := dd.Particle(3)
			orig := p.Unfolded(box)
			p.Pos[1] -= 1.5
			dd.Rebuild()

			p, _ = dd.Particle(3)
			Expect(p.Pos[1]).To(BeNumerically(">=", 0))
			Expect(p.Pos[1]).To(BeNumerically("<", 1))
			Expect(p.Unfolded(box)[1]).To(BeNumerically("~", orig[1]-1.5, 1e-12))
			Expect(dd.Check()).To(Succeed())
		})
	})

	Describe("bookkeeping", func() {
		It("rejects invalid and duplicate ids", func() {
			dd, err := cells.New(box, 0.1, 0.02)
			Expect(err).NotTo(HaveOccurred())
			Expect(dd.Add(dynamo.Particle{ID: -1})).To(MatchError(dynamo.ErrParameterBounds))
			Expect(dd.Add(dynamo.Particle{ID: 4})).To(Succeed())
			Expect(dd.Add(dynamo.Particle{ID: 4})).To(MatchError(dynamo.ErrParameterBounds))
		})

		It("keeps the leading particles on resize", func() {
			dd := build(box, 0.2, 0.05, uniformCloud(400, box, 6))
			for i := range dd.Cells() {
				c := &dd.Cells()[i]
				if c.Len() < 2 {
					continue
				}
				id := c.Particle(0).ID
				c.Resize(1)
				Expect(c.Len()).To(Equal(1))
				Expect(c.Particle(0).ID).To(Equal(id))
				return
			}
			Fail("no cell with two particles")
		})
	})

	Describe("consistency audit", func() {
		var dd *cells.Decomposition

		BeforeEach(func() {
			dd = build(box, 0.1, 0.02, uniformCloud(300, box, 7))
		})

		It("passes on a fresh decomposition", func() {
			Expect(dd.Check()).To(Succeed())
		})

		It("reports corrupted ids", func() {
			p, _ := dd.Particle(10)
			p.ID = -5
			err := dd.Check()
			Expect(err).To(MatchError(dynamo.ErrIntegrity))
			var ie *dynamo.IntegrityError
			Expect(err).To(BeAssignableToTypeOf(ie))
		})

		It("reports particles that left their cell", func() {
			p, _ := dd.Particle(11)
			p.Pos[2] += 0.3
			Expect(dd.Check()).To(MatchError(dynamo.ErrIntegrity))
		})
	})
})
