package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/p3msim/internal/sim"
)

// NetForce tracks the worst relative violation of momentum conservation:
// |Σ F_i| divided by Σ |F_i|. Pairwise forces and the mesh solver both keep
// this at rounding level.
type NetForce struct {
	name  string
	worst float64
}

func NewNetForce() *NetForce {
	return &NetForce{name: "net_force"}
}

func (n *NetForce) Name() string { return n.name }

func (n *NetForce) Observe(r sim.Record) {
	if r.ForceScale == 0 {
		return
	}
	norm := floats.Norm(r.NetForce[:], 2)
	n.worst = math.Max(n.worst, norm/r.ForceScale)
}

func (n *NetForce) Value() float64 { return n.worst }

func (n *NetForce) Reset() { n.worst = 0 }
