// Package dynamo provides the core value types shared by the electrostatics
// pipeline.
//
// The package defines the primitives every other package builds on:
//
//   - [Vec3]: three-component vector used for positions, velocities and forces
//   - [Particle]: a charged point particle with identity, kinematics and image counters
//   - [Box]: periodic simulation box (folding, minimum image, volume)
//   - [Tensor]: 3x3 tensor used for virials and pressure contributions
//   - [Particles]: slice adapter consumed by the mesh solver
//
// # Errors
//
// Configuration problems are reported with the sentinel errors in errors.go
// and are always fatal. Decomposition corruption is reported as
// [IntegrityError], which unwraps to [ErrIntegrity].
//
// # Thread Safety
//
// Values in this package carry no synchronisation. [ParallelFor] partitions
// an index range so callers can write to disjoint slots concurrently.
package dynamo
