package p3m

import (
	"math"

	"github.com/san-kum/p3msim/internal/dynamo"
)

// Influence holds the optimized influence function of one parameter set,
// for energies and for ik-differentiated forces. Tables use the flat mesh
// layout of Mesh.
type Influence struct {
	mesh  [3]int
	box   dynamo.Vec3
	alpha float64
	dop   DOp
	sum   *AliasingSum

	energy []float64
	force  []float64
}

// NewInfluence builds both tables. The cost is O(M³ (2m+1)³).
func NewInfluence(mesh [3]int, box dynamo.Vec3, alpha float64, order, m int, dop DOp) *Influence {
	f := &Influence{
		mesh:  mesh,
		box:   box,
		alpha: alpha,
		dop:   dop,
		sum:   NewAliasingSum(mesh, order, m),
	}

	size := mesh[0] * mesh[1] * mesh[2]
	f.energy = make([]float64, size)
	f.force = make([]float64, size)
	dynamo.ParallelFor(mesh[0], 1, func(start, end int) {
		for x := start; x < end; x++ {
			for y := 0; y < mesh[1]; y++ {
				for z := 0; z < mesh[2]; z++ {
					n := [3]int{x, y, z}
					i := (x*mesh[1]+y)*mesh[2] + z
					f.energy[i] = f.Energy(n)
					f.force[i] = f.Force(n)
				}
			}
		}
	})
	return f
}

func (f *Influence) EnergyTable() []float64 { return f.energy }
func (f *Influence) ForceTable() []float64  { return f.force }

// Shift exposes the signed frequency of mesh index n on axis d.
func (f *Influence) Shift(d, n int) int { return f.sum.Shift(d, n) }

// zeroMode reports modes where every index is a multiple of half the mesh.
func (f *Influence) zeroMode(n [3]int) bool {
	for d := 0; d < 3; d++ {
		if n[d]%max(f.mesh[d]/2, 1) != 0 {
			return false
		}
	}
	return true
}

func (f *Influence) g(nm [3]int) float64 {
	k2 := 0.0
	for d := 0; d < 3; d++ {
		k := float64(nm[d]) / f.box[d]
		k2 += k * k
	}
	return GEwald(f.alpha, k2)
}

// Energy is Σ Ŵ²G / (Σ Ŵ²)² / π for mode n.
func (f *Influence) Energy(n [3]int) float64 {
	if f.zeroMode(n) {
		return 0
	}
	var num, den float64
	f.sum.Visit(n, func(nm [3]int, w float64) {
		num += w * f.g(nm)
		den += w
	})
	return num / (den * den) / math.Pi
}

// Force is the ik counterpart of Energy: the projection of the aliased
// k-space gradient onto the discrete operator, with the same normalization.
func (f *Influence) Force(n [3]int) float64 {
	if f.zeroMode(n) {
		return 0
	}
	var num dynamo.Vec3
	var den float64
	f.sum.Visit(n, func(nm [3]int, w float64) {
		g := w * f.g(nm)
		for d := 0; d < 3; d++ {
			num[d] += g * float64(nm[d]) / f.box[d]
		}
		den += w
	})

	var f1, f2 float64
	for d := 0; d < 3; d++ {
		op := float64(f.dop[d][n[d]]) / f.box[d]
		f1 += op * num[d]
		f2 += op * op
	}
	if f2 == 0 {
		return 0
	}
	return f1 / (f2 * den * den) / math.Pi
}
