package inference_test

import (
	"context"
	"testing"
	"time"

	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/preprocess"
	"github.com/nvr-ai/go-detect/test"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlob() preprocess.Blob {
	return preprocess.Blob{
		Original: preprocess.Size{Height: 480, Width: 640},
		Working:  preprocess.Size{Height: 2, Width: 3},
		Scale:    preprocess.Scale{Y: 0.5, X: 0.25},
		Channels: 3,
		Pixels:   make([]float32, 3*2*3),
		Layout:   preprocess.LayoutCHW,
	}
}

// TestPredictorBind validates that every declared slot receives the matching metadata.
func TestPredictorBind(t *testing.T) {
	exec := &test.MockExecutor{
		Inputs:  []string{"im_shape", "image", "scale_factor", "im_info", "im_size"},
		Outputs: []string{"out"},
	}
	inputs := inference.NewPredictor(exec).Bind(testBlob())
	require.Len(t, inputs, 4, "unknown slots stay unbound")

	byName := map[string]inference.Tensor{}
	for _, in := range inputs {
		byName[in.Name] = in
	}

	assert.Equal(t, []int64{1, 3, 2, 3}, byName["image"].Shape)
	assert.Len(t, byName["image"].Float, 18)

	assert.Equal(t, []int64{1, 2}, byName["im_size"].Shape)
	assert.Equal(t, []int32{480, 640}, byName["im_size"].Int)
	assert.Nil(t, byName["im_size"].Float)

	assert.Equal(t, []int64{1, 3}, byName["im_info"].Shape)
	assert.Equal(t, []float32{2, 3, 0.25}, byName["im_info"].Float)

	assert.Equal(t, []int64{1, 3}, byName["im_shape"].Shape)
	assert.Equal(t, []float32{480, 640, 1}, byName["im_shape"].Float)

	assert.Equal(t, "im_shape", inputs[0].Name, "slot order is kept")
}

// TestPredictorPredict validates that the first output is flattened and the stride reported.
func TestPredictorPredict(t *testing.T) {
	rows := []float32{
		1, 0.9, 1, 2, 3, 4,
		2, 0.8, 5, 6, 7, 8,
	}
	exec := &test.MockExecutor{
		Inputs:  []string{"image"},
		Outputs: []string{"boxes", "extra"},
		Result: []inference.Tensor{
			{Name: "boxes", Shape: []int64{1, 2, 6}, Float: rows},
			{Name: "extra", Shape: []int64{1}, Float: []float32{42}},
		},
	}

	out, err := inference.NewPredictor(exec).Predict(context.Background(), testBlob())
	require.NoError(t, err)

	assert.Equal(t, rows, out.Data)
	assert.Equal(t, []int64{1, 2, 6}, out.Shape)
	assert.Equal(t, 6, out.Stride)
	assert.Equal(t, 2, out.Rows())
	assert.Len(t, exec.Calls(), 1)
}

// TestPredictorOutputRows validates the row view over the output buffer.
func TestPredictorOutputRows(t *testing.T) {
	data := []float32{
		1, 0.9, 1, 2, 3, 4,
		2, 0.8, 5, 6, 7, 8,
		3, 0.7, 9, // partial row
	}
	exec := &test.MockExecutor{
		Inputs: []string{"image"},
		Result: []inference.Tensor{{Name: "boxes", Shape: []int64{15}, Float: data}},
	}

	out, err := inference.NewPredictor(exec).Predict(context.Background(), testBlob())
	require.NoError(t, err)
	require.Equal(t, 2, out.Rows())
	assert.Equal(t, data[:12], out.Data, "the partial row is left out")

	row, err := out.Row(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 0.8, 5, 6, 7, 8}, row)

	row[1] = 0.1
	assert.Equal(t, float32(0.1), out.Data[7], "rows share memory with Data")

	_, err = out.Row(2)
	assert.Error(t, err)
	_, err = out.Row(-1)
	assert.Error(t, err)
}

// TestPredictorEmptyOutput validates a model reporting zero detections.
func TestPredictorEmptyOutput(t *testing.T) {
	exec := &test.MockExecutor{
		Inputs:  []string{"image"},
		Outputs: []string{"boxes"},
		Result:  []inference.Tensor{{Name: "boxes", Shape: []int64{0, 6}, Float: []float32{}}},
	}

	out, err := inference.NewPredictor(exec).Predict(context.Background(), testBlob())
	require.NoError(t, err)
	assert.Empty(t, out.Data)
	assert.Zero(t, out.Rows())
}

// TestPredictorErrors validates that executor failures surface as ExecutorError.
func TestPredictorErrors(t *testing.T) {
	boom := errors.New("device lost")

	tests := []struct {
		name string
		exec *test.MockExecutor
		is   error
	}{
		{
			name: "executor failure",
			exec: &test.MockExecutor{Inputs: []string{"image"}, Err: boom},
			is:   boom,
		},
		{
			name: "no outputs",
			exec: &test.MockExecutor{Inputs: []string{"image"}},
		},
		{
			name: "integer output",
			exec: &test.MockExecutor{
				Inputs: []string{"image"},
				Result: []inference.Tensor{{Name: "out", Shape: []int64{1, 2}, Int: []int32{1, 2}}},
			},
		},
		{
			name: "negative dimension",
			exec: &test.MockExecutor{
				Inputs: []string{"image"},
				Result: []inference.Tensor{{Name: "out", Shape: []int64{-1, 6}, Float: make([]float32, 6)}},
			},
		},
		{
			name: "shape on empty buffer",
			exec: &test.MockExecutor{
				Inputs: []string{"image"},
				Result: []inference.Tensor{{Name: "out", Shape: []int64{1, 6}, Float: []float32{}}},
			},
		},
		{
			name: "shape mismatch",
			exec: &test.MockExecutor{
				Inputs: []string{"image"},
				Result: []inference.Tensor{{Name: "out", Shape: []int64{2, 6}, Float: make([]float32, 6)}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inference.NewPredictor(tt.exec).Predict(context.Background(), testBlob())
			require.Error(t, err)

			var execErr *inference.ExecutorError
			require.True(t, errors.As(err, &execErr))
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is))
				assert.Equal(t, tt.is, execErr.Unwrap(), "the executor error is passed through unchanged")
			}
		})
	}
}

// TestProfiledExecutor validates the performance counters.
func TestProfiledExecutor(t *testing.T) {
	exec := &test.MockExecutor{
		Inputs: []string{"image"},
		Result: []inference.Tensor{{Name: "out", Shape: []int64{6}, Float: make([]float32, 6)}},
	}
	profiled := inference.NewProfiledExecutor(exec)
	assert.Equal(t, []string{"image"}, profiled.InputNames())

	for i := 0; i < 3; i++ {
		_, err := profiled.Run(context.Background(), nil)
		require.NoError(t, err)
	}
	exec.Err = errors.New("fail")
	_, err := profiled.Run(context.Background(), nil)
	require.Error(t, err)

	m := profiled.Metrics()
	assert.Equal(t, int64(4), m.Runs)
	assert.Equal(t, int64(1), m.Failures)
	assert.GreaterOrEqual(t, m.TotalTime, time.Duration(0))

	profiled.ResetMetrics()
	assert.Equal(t, inference.Metrics{}, profiled.Metrics())
}
