package postprocess

import (
	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/models"
	"github.com/pkg/errors"
)

// RowStride is the number of floats per detection row emitted by the model: class id, score,
// x_min, y_min, x_max, y_max.
const RowStride = 6

// Decoder turns flat model output into detection results.
//
// It only thresholds and rescales: rows keep their order and no suppression is applied. A Decoder
// holds no mutable state and may be shared between goroutines.
type Decoder struct {
	arch      models.Architecture
	threshold float32
}

// NewDecoder creates a decoder for the given architecture and score threshold.
//
// Arguments:
//   - arch: The model architecture. SSD outputs are normalized and get mapped back to pixels.
//   - threshold: Rows with a score at or below this value are discarded.
//
// Returns:
//   - *Decoder: The decoder.
func NewDecoder(arch models.Architecture, threshold float32) *Decoder {
	return &Decoder{arch: arch, threshold: threshold}
}

// Threshold returns the score threshold.
func (d *Decoder) Threshold() float32 {
	return d.threshold
}

// RowSource yields detection rows of RowStride floats.
type RowSource interface {
	Rows() int
	Row(i int) ([]float32, error)
}

type flatRows []float32

func (f flatRows) Rows() int { return len(f) / RowStride }

func (f flatRows) Row(i int) ([]float32, error) {
	return f[i*RowStride : (i+1)*RowStride], nil
}

// Decode converts the flat output of one image into results.
//
// A trailing partial row is ignored.
//
// Arguments:
//   - data: The flattened output tensor, RowStride floats per row.
//   - height: The original image height in pixels.
//   - width: The original image width in pixels.
//
// Returns:
//   - []Result: The rows scoring strictly above the threshold, in input order.
func (d *Decoder) Decode(data []float32, height, width int) []Result {
	results, _ := d.DecodeRows(flatRows(data), height, width)
	return results
}

// DecodeRows converts the rows of src into results, like Decode.
func (d *Decoder) DecodeRows(src RowSource, height, width int) ([]Result, error) {
	var sx, sy float32 = 1, 1
	if d.arch.IsSSD() {
		sx, sy = float32(width), float32(height)
	}

	rows := src.Rows()
	results := make([]Result, 0, rows)
	for i := 0; i < rows; i++ {
		row, err := src.Row(i)
		if err != nil {
			return nil, err
		}
		if len(row) < RowStride {
			return nil, errors.Errorf("row %d has %d values, want %d", i, len(row), RowStride)
		}
		score := row[1]
		if score <= d.threshold {
			continue
		}
		results = append(results, Result{
			Class: int(math32.Round(row[0])),
			Score: score,
			Box: images.Box{
				XMin: row[2],
				YMin: row[3],
				XMax: row[4],
				YMax: row[5],
			}.Scale(sx, sy),
		})
	}
	return results, nil
}
