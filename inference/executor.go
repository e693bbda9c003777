// Package inference - Executor boundary and predictor adapter.
package inference

import (
	"context"
	"fmt"
)

// Tensor is a named tensor crossing the executor boundary.
//
// Exactly one of Float or Int carries the data, depending on the element type of the slot.
type Tensor struct {
	Name  string
	Shape []int64
	Float []float32
	Int   []int32
}

// Len returns the number of elements held by the tensor.
func (t Tensor) Len() int {
	if t.Float != nil {
		return len(t.Float)
	}
	return len(t.Int)
}

// Executor runs a loaded network.
//
// Implementations must be safe for concurrent Run calls if the Detector using them is shared
// between goroutines.
type Executor interface {
	// InputNames returns the input slot names declared by the model.
	InputNames() []string
	// OutputNames returns the output slot names declared by the model, in declaration order.
	OutputNames() []string
	// Run executes the network on the bound inputs and returns its outputs in declaration order.
	Run(ctx context.Context, inputs []Tensor) ([]Tensor, error)
}

// ExecutorError reports a failure of the executor. It is never retried.
type ExecutorError struct {
	Err error
}

// Error implements the error interface.
func (e *ExecutorError) Error() string {
	return fmt.Sprintf("executor: %v", e.Err)
}

// Unwrap returns the executor's error unchanged.
func (e *ExecutorError) Unwrap() error {
	return e.Err
}
