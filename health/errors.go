package health

import "errors"

var (
	// ErrCheckTimeout indicates a health probe exceeded the shared timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates no checker is registered under the name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
