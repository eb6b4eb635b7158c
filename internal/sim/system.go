package sim

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/san-kum/p3msim/internal/dynamo"
)

// RandomSystem places n unit-mass particles uniformly in box, alternating
// charges +q and -q, keeping every pair at least minDist apart (minimum
// image). Velocities are drawn from a Maxwell distribution at temperature
// kT with zero total momentum.
func RandomSystem(n int, box dynamo.Box, q, minDist, kT float64, seed uint64) (dynamo.Particles, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if n < 0 || minDist < 0 || kT < 0 {
		return nil, fmt.Errorf("%w: n=%d minDist=%g kT=%g", dynamo.ErrParameterBounds, n, minDist, kT)
	}

	rng := rand.New(rand.NewSource(seed))
	ps := make(dynamo.Particles, 0, n)
	const maxTries = 1000

	for i := 0; i < n; i++ {
		placed := false
		for try := 0; try < maxTries && !placed; try++ {
			pos := dynamo.Vec3{rng.Float64() * box.L[0], rng.Float64() * box.L[1], rng.Float64() * box.L[2]}
			placed = true
			for j := range ps {
				if box.MinImage(pos.Sub(ps[j].Pos)).Norm2() < minDist*minDist {
					placed = false
					break
				}
			}
			if placed {
				charge := q
				if i%2 == 1 {
					charge = -q
				}
				ps = append(ps, dynamo.Particle{ID: i, Pos: pos, Q: charge, Mass: 1})
			}
		}
		if !placed {
			return nil, fmt.Errorf("%w: could not place particle %d of %d with min distance %g",
				dynamo.ErrParameterBounds, i, n, minDist)
		}
	}

	var momentum dynamo.Vec3
	sigma := math.Sqrt(kT)
	for i := range ps {
		for d := 0; d < 3; d++ {
			ps[i].Vel[d] = sigma * rng.NormFloat64()
		}
		momentum = momentum.Add(ps[i].Vel)
	}
	if n > 0 {
		drift := momentum.Scale(1 / float64(n))
		for i := range ps {
			ps[i].Vel = ps[i].Vel.Sub(drift)
		}
	}
	return ps, nil
}
