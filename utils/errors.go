package utils

import (
	"github.com/pkg/errors"
)

// NewConfigValidationError returns an error specifying a config validation error at a path.
func NewConfigValidationError(path string, err error) error {
	return errors.Wrapf(err, "error validating %q", path)
}

// NewConfigValidationFieldRequiredError returns an error specifying that a field is missing.
func NewConfigValidationFieldRequiredError(path, field string) error {
	return NewConfigValidationError(path, errors.Errorf("%q is required", field))
}

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected, actual interface{}) error {
	return errors.Errorf("expected %T but got %T", expected, actual)
}

// DependencyNotFoundError is used when a named dependency is missing.
func DependencyNotFoundError(name string) error {
	return errors.Errorf("%q missing from dependencies", name)
}
