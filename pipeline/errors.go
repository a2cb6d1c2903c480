package pipeline

import "errors"

var (
	// ErrRegistryRequired is returned when a step registry is not provided.
	ErrRegistryRequired = errors.New("step registry required")

	// ErrNoSteps is returned when a definition contains no steps.
	ErrNoSteps = errors.New("pipeline has no steps")

	// ErrMissingStepType is returned when a definition entry has no type.
	ErrMissingStepType = errors.New("step type required")
)
