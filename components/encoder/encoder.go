// Package encoder defines the encoder contract consumed by tracking wheels.
package encoder

import (
	"context"

	"github.com/pkg/errors"

	"github.com/viam-labs/arcodom/utils"
)

// An Encoder turns a position into a signal.
type Encoder interface {
	// TicksCount returns number of ticks since last zeroing
	TicksCount(ctx context.Context, extra map[string]interface{}) (float64, error)

	// Reset sets the current position of the motor (adjusted by a given offset)
	// to be its new zero position.
	Reset(ctx context.Context, offset float64, extra map[string]interface{}) error
}

// FromDependencies is a helper for getting the named encoder from a collection of
// dependencies.
func FromDependencies(deps map[string]interface{}, name string) (Encoder, error) {
	res, ok := deps[name]
	if !ok {
		return nil, utils.DependencyNotFoundError(name)
	}
	enc, ok := res.(Encoder)
	if !ok {
		return nil, DependencyTypeError(name, res)
	}
	return enc, nil
}

// DependencyTypeError is used when a resource doesn't implement the expected interface.
func DependencyTypeError(name string, actual interface{}) error {
	return errors.Errorf("dependency %q should be an encoder but is %T", name, actual)
}

// ValidateIntegerOffset returns an error if a non-integral value for offset
// is passed to Reset for an incremental encoder (these encoders count based on
// square-wave pulses and so cannot be supplied an offset that is not an integer).
func ValidateIntegerOffset(offset float64) error {
	if offset != float64(int64(offset)) {
		return errors.Errorf(
			"incremental encoders can only reset with integer value offsets, value passed was %f",
			offset,
		)
	}
	return nil
}
