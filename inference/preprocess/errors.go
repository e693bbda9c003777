package preprocess

import "fmt"

// TransformError reports a transform that could not be configured or could not run.
type TransformError struct {
	// Op is the transform kind that failed.
	Op Kind
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransformError) Unwrap() error {
	return e.Err
}
