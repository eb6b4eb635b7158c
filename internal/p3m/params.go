package p3m

import (
	"fmt"
	"math"

	"github.com/san-kum/p3msim/internal/dynamo"
	"github.com/san-kum/p3msim/internal/interpolation"
)

// Params configures one mesh solve.
type Params struct {
	Mesh      [3]int
	CAO       int     // charge assignment order, 1..7
	Alpha     float64 // Ewald splitting parameter
	Box       dynamo.Box
	Aliasing  int     // images per direction in the aliasing sum, 0 disables it
	Prefactor float64 // Coulomb prefactor (Bjerrum length times kT)

	// Tabulate selects tabulated assignment weights with this resolution;
	// 0 evaluates the polynomials directly.
	Tabulate int
}

func (p Params) Validate() error {
	for d := 0; d < 3; d++ {
		if p.Mesh[d] < 1 {
			return fmt.Errorf("%w: %v", dynamo.ErrInvalidMesh, p.Mesh)
		}
	}
	if err := interpolation.ValidateOrder(p.CAO); err != nil {
		return err
	}
	if !(p.Alpha > 0) || math.IsInf(p.Alpha, 0) {
		return fmt.Errorf("%w: %g", dynamo.ErrInvalidAlpha, p.Alpha)
	}
	if err := p.Box.Validate(); err != nil {
		return err
	}
	if p.Aliasing < 0 {
		return fmt.Errorf("%w: aliasing images %d", dynamo.ErrParameterBounds, p.Aliasing)
	}
	if p.Tabulate < 0 {
		return fmt.Errorf("%w: weight table resolution %d", dynamo.ErrParameterBounds, p.Tabulate)
	}
	if math.IsNaN(p.Prefactor) || math.IsInf(p.Prefactor, 0) {
		return fmt.Errorf("%w: prefactor %g", dynamo.ErrParameterBounds, p.Prefactor)
	}
	return nil
}

// Spacing is the mesh spacing L/M per axis.
func (p Params) Spacing() dynamo.Vec3 {
	var h dynamo.Vec3
	for d := 0; d < 3; d++ {
		h[d] = p.Box.L[d] / float64(p.Mesh[d])
	}
	return h
}

// cacheKey is everything the influence function and the assignment weights
// depend on.
type cacheKey struct {
	mesh     [3]int
	cao      int
	alpha    float64
	box      dynamo.Vec3
	aliasing int
	tabulate int
}

func (p Params) key() cacheKey {
	return cacheKey{
		mesh:     p.Mesh,
		cao:      p.CAO,
		alpha:    p.Alpha,
		box:      p.Box.L,
		aliasing: p.Aliasing,
		tabulate: p.Tabulate,
	}
}
