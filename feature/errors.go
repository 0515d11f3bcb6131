package feature

import "errors"

var (
	// ErrFlagNotFound indicates no flag is registered under the name.
	ErrFlagNotFound = errors.New("feature: flag not found")

	// ErrInvalidFlag indicates a flag definition is incomplete.
	ErrInvalidFlag = errors.New("feature: invalid flag")

	// ErrFallbackType indicates a fallback produced a value of the
	// wrong type for a typed Execute call.
	ErrFallbackType = errors.New("feature: fallback type mismatch")
)
