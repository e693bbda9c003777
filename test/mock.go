// Package test - Deterministic fakes shared by the package tests.
package test

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/nvr-ai/go-detect/inference"
	"gocv.io/x/gocv"
)

// MockExecutor is an in-memory inference.Executor.
//
// It records every call and answers with a fixed output, or with Err when set.
//
// @example
// exec := &MockExecutor{Inputs: []string{"image", "im_size"}, Outputs: []string{"out"}}
// exec.Result = []inference.Tensor{{Name: "out", Shape: []int64{1, 6}, Float: row}}
type MockExecutor struct {
	Inputs  []string
	Outputs []string
	Result  []inference.Tensor
	Err     error

	mu    sync.Mutex
	calls [][]inference.Tensor
}

// InputNames implements inference.Executor.
func (m *MockExecutor) InputNames() []string { return m.Inputs }

// OutputNames implements inference.Executor.
func (m *MockExecutor) OutputNames() []string { return m.Outputs }

// Run implements inference.Executor.
func (m *MockExecutor) Run(ctx context.Context, inputs []inference.Tensor) ([]inference.Tensor, error) {
	m.mu.Lock()
	m.calls = append(m.calls, inputs)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// Calls returns the inputs of every Run call so far.
func (m *MockExecutor) Calls() [][]inference.Tensor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]inference.Tensor, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastInput returns the named input of the most recent call.
func (m *MockExecutor) LastInput(name string) (inference.Tensor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return inference.Tensor{}, false
	}
	for _, t := range m.calls[len(m.calls)-1] {
		if t.Name == name {
			return t, true
		}
	}
	return inference.Tensor{}, false
}

// MockFrameGenerator creates deterministic BGR test frames.
//
// Arguments:
// - width: Frame width in pixels.
// - height: Frame height in pixels.
//
// @example
// gen := NewMockFrameGenerator(640, 480)
// frame := gen.GenerateFrame(image.Rect(10, 10, 50, 50))
// defer frame.Close()
type MockFrameGenerator struct {
	width  int
	height int
}

// NewMockFrameGenerator creates a new frame generator with specified dimensions.
func NewMockFrameGenerator(width, height int) *MockFrameGenerator {
	return &MockFrameGenerator{width: width, height: height}
}

// GenerateFrame creates a mid-gray BGR frame with a filled white rectangle for each object.
func (g *MockFrameGenerator) GenerateFrame(objects ...image.Rectangle) gocv.Mat {
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0), g.height, g.width, gocv.MatTypeCV8UC3)
	for _, r := range objects {
		gocv.Rectangle(&frame, r, color.RGBA{R: 255, G: 255, B: 255}, -1)
	}
	return frame
}
