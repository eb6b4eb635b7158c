// Package cells implements the spatial decomposition used by the short-range
// part of the electrostatics pipeline.
//
// The periodic box is split into inner cells at least cutoff+skin wide and
// surrounded by one layer of ghost cells holding shifted copies of the
// particles on the opposite face. Cells live in a single arena owned by
// [Decomposition]; neighbor relations are arena indices.
//
// Every inner cell keeps a Verlet list of candidate pairs built from itself and
// a half shell of 13 neighbors, so each physical pair is stored once. The list
// stays valid until some particle has moved more than skin/2 since the last
// [Decomposition.Rebuild].
//
//	dd, _ := cells.New(box, 0.1, 0.02)
//	for _, p := range parts {
//	    dd.Add(p)
//	}
//	dd.Rebuild()
//	dd.ForEachPair(func(a, b *dynamo.Particle, d dynamo.Vec3, dist2 float64) { ... })
package cells
