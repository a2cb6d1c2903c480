package condition

import "errors"

var (
	// ErrEnvironment indicates the CEL environment could not be created.
	ErrEnvironment = errors.New("condition environment setup failed")

	// ErrCompile indicates an expression failed to compile.
	ErrCompile = errors.New("condition does not compile")

	// ErrNotBoolean indicates an expression does not produce a boolean.
	ErrNotBoolean = errors.New("condition is not boolean")

	// ErrEvaluation indicates a runtime evaluation failure.
	ErrEvaluation = errors.New("condition evaluation failed")
)
