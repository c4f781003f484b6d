package vexa

import "errors"

var (
	// ErrInvalidActionShape is returned when a policy emits an action vector
	// that does not have exactly 7 components. It is fatal to the step, not
	// to the run.
	ErrInvalidActionShape = errors.New("action vector must have exactly 7 components")

	// ErrUnknownSuite is returned when a task suite name has no max-steps
	// mapping. It is fatal at run start, before any episode executes.
	ErrUnknownSuite = errors.New("unknown task suite")

	// ErrInvalidConfig is returned for an invalid combination of run options.
	ErrInvalidConfig = errors.New("invalid run configuration")
)
