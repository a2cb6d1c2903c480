package dedupe

import "errors"

var (
	// ErrInvalidConfig indicates a detection config failed validation.
	ErrInvalidConfig = errors.New("invalid dedupe config")
)
