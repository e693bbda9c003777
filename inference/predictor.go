package inference

import (
	"context"

	"github.com/nvr-ai/go-detect/inference/preprocess"
	"github.com/nvr-ai/go-detect/models/postprocess"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Input slot names bound from the metadata record.
const (
	InputImage   = "image"
	InputImSize  = "im_size"
	InputImInfo  = "im_info"
	InputImShape = "im_shape"
)

// Output is the first output of the network viewed as a matrix of detection rows.
type Output struct {
	// Data holds the complete detection rows, contiguous.
	Data []float32
	// Shape is the shape reported by the executor.
	Shape []int64
	// Stride is the number of floats per detection row.
	Stride int

	rows *tensor.Dense
}

// Rows returns the number of complete detection rows in the output.
func (o Output) Rows() int {
	if o.rows == nil {
		return 0
	}
	return o.rows.Shape()[0]
}

// Row returns detection row i, sharing memory with Data.
func (o Output) Row(i int) ([]float32, error) {
	if i < 0 || i >= o.Rows() {
		return nil, errors.Errorf("row %d out of range [0, %d)", i, o.Rows())
	}
	view, err := o.rows.Slice(tensor.S(i))
	if err != nil {
		return nil, errors.Wrapf(err, "slice row %d", i)
	}
	return view.Data().([]float32), nil
}

// Predictor binds metadata records to the executor's input slots and reads its output.
type Predictor struct {
	exec Executor
}

// NewPredictor creates a predictor on top of exec.
func NewPredictor(exec Executor) *Predictor {
	return &Predictor{exec: exec}
}

// Bind builds the input tensors for every slot the executor declares.
//
// Slots are matched by name: image, im_size, im_info and im_shape. Any other slot is left unbound
// so the executor applies its own default.
//
// Arguments:
//   - blob: The metadata record produced by the transform chain.
//
// Returns:
//   - []Tensor: The bound input tensors, in slot order.
func (p *Predictor) Bind(blob preprocess.Blob) []Tensor {
	var inputs []Tensor
	for _, name := range p.exec.InputNames() {
		switch name {
		case InputImage:
			inputs = append(inputs, Tensor{Name: name, Shape: blob.ImageShape(), Float: blob.Pixels})
		case InputImSize:
			inputs = append(inputs, Tensor{Name: name, Shape: []int64{1, 2}, Int: blob.ImSize()})
		case InputImInfo:
			inputs = append(inputs, Tensor{Name: name, Shape: []int64{1, 3}, Float: blob.ImInfo()})
		case InputImShape:
			inputs = append(inputs, Tensor{Name: name, Shape: []int64{1, 3}, Float: blob.ImShape()})
		}
	}
	return inputs
}

// Predict runs the executor on a metadata record and returns the detection rows of its first output.
//
// Arguments:
//   - ctx: Passed through to the executor.
//   - blob: The metadata record produced by the transform chain.
//
// Returns:
//   - Output: The detection rows of the first output.
//   - error: An *ExecutorError when the executor fails or returns an unusable output.
func (p *Predictor) Predict(ctx context.Context, blob preprocess.Blob) (Output, error) {
	outputs, err := p.exec.Run(ctx, p.Bind(blob))
	if err != nil {
		return Output{}, &ExecutorError{Err: err}
	}
	if len(outputs) == 0 {
		return Output{}, &ExecutorError{Err: errors.New("no outputs returned")}
	}

	first := outputs[0]
	if first.Float == nil && first.Int != nil {
		return Output{}, &ExecutorError{Err: errors.Errorf("output %q is not a float tensor", first.Name)}
	}

	rows, err := detectionRows(first.Float, first.Shape)
	if err != nil {
		return Output{}, &ExecutorError{Err: errors.Wrapf(err, "output %q", first.Name)}
	}

	out := Output{Data: []float32{}, Shape: first.Shape, Stride: postprocess.RowStride, rows: rows}
	if rows != nil {
		out.Data = rows.Data().([]float32)
	}
	return out, nil
}

// detectionRows checks data against the executor shape and views its complete rows as a
// [rows, RowStride] matrix. A trailing partial row is left out. It returns nil when no complete
// row is present.
func detectionRows(data []float32, shape []int64) (*tensor.Dense, error) {
	dims := make([]int, len(shape))
	for i, d := range shape {
		if d < 0 {
			return nil, errors.Errorf("negative dimension %d in shape %v", d, shape)
		}
		dims[i] = int(d)
	}

	if len(data) == 0 {
		if len(dims) > 0 && tensor.Shape(dims).TotalSize() != 0 {
			return nil, errors.Errorf("shape %v holds %d elements, buffer is empty", shape, tensor.Shape(dims).TotalSize())
		}
		return nil, nil
	}

	if len(dims) > 0 {
		t := tensor.New(tensor.WithBacking(data))
		if err := t.Reshape(dims...); err != nil {
			return nil, err
		}
	}

	n := len(data) / postprocess.RowStride
	if n == 0 {
		return nil, nil
	}
	rows := tensor.New(tensor.WithBacking(data[:n*postprocess.RowStride]))
	if err := rows.Reshape(n, postprocess.RowStride); err != nil {
		return nil, err
	}
	return rows, nil
}
