package cells

import (
	"testing"

	"golang.org/x/exp/rand"

	"github.com/san-kum/p3msim/internal/dynamo"
)

func benchDecomposition(b *testing.B, n int) *Decomposition {
	box := dynamo.CubicBox(1)
	dd, err := New(box, 0.1, 0.02)
	if err != nil {
		b.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < n; i++ {
		p := dynamo.Particle{ID: i, Pos: dynamo.Vec3{rng.Float64(), rng.Float64(), rng.Float64()}, Q: 1}
		if err := dd.Add(p); err != nil {
			b.Fatal(err)
		}
	}
	return dd
}

func BenchmarkRebuild_10k(b *testing.B) {
	dd := benchDecomposition(b, 10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dd.Rebuild()
	}
}

func BenchmarkForEachPair_10k(b *testing.B) {
	dd := benchDecomposition(b, 10000)
	dd.Rebuild()

	sum := 0.0

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dd.ForEachPair(func(_, _ *dynamo.Particle, _ dynamo.Vec3, dist2 float64) {
			sum += dist2
		})
	}
	_ = sum
}
