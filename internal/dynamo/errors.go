package dynamo

import (
	"errors"
	"fmt"
)

// Configuration errors. All of them are fatal and are reported before any
// computation starts.
var (
	// ErrInvalidBox indicates a box with a non-positive or non-finite length.
	ErrInvalidBox = errors.New("dynamo: invalid box geometry")

	// ErrInvalidMesh indicates a mesh size or mesh spacing that is not positive.
	ErrInvalidMesh = errors.New("dynamo: invalid mesh size")

	// ErrInvalidOrder indicates a charge-assignment order outside 1..7.
	ErrInvalidOrder = errors.New("dynamo: charge assignment order out of range")

	// ErrInvalidAlpha indicates a non-positive Ewald splitting parameter.
	ErrInvalidAlpha = errors.New("dynamo: invalid Ewald splitting parameter")

	// ErrInvalidCutoff indicates a negative cutoff or skin, or one too large
	// for the minimum image convention.
	ErrInvalidCutoff = errors.New("dynamo: invalid cutoff")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrNotSupported indicates the selected method lacks the requested capability.
	ErrNotSupported = errors.New("dynamo: operation not supported by method")

	// ErrUnknownMethod indicates a method name missing from a registry.
	ErrUnknownMethod = errors.New("dynamo: unknown method")

	// ErrIntegrity indicates corrupted decomposition or particle bookkeeping.
	ErrIntegrity = errors.New("dynamo: integrity check failed")
)

// IntegrityError reports where a consistency audit failed.
type IntegrityError struct {
	Cell     int
	Particle int
	Message  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v: cell %d particle %d: %s", ErrIntegrity, e.Cell, e.Particle, e.Message)
}

func (e *IntegrityError) Unwrap() error {
	return ErrIntegrity
}
