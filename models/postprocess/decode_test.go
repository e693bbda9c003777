package postprocess

import (
	"testing"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodeThresholdBoundary validates that a score equal to the threshold is discarded while a
// score just above it is kept.
func TestDecodeThresholdBoundary(t *testing.T) {
	const threshold float32 = 0.5
	above := threshold + 1e-6

	data := []float32{
		1, threshold, 10, 10, 20, 20,
		2, above, 30, 30, 40, 40,
		3, 0.1, 50, 50, 60, 60,
	}

	results := NewDecoder(models.ArchYOLO, threshold).Decode(data, 100, 100)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Class)
	assert.Equal(t, above, results[0].Score)
}

// TestDecodeRescale validates the SSD rescale against the identity of other families.
func TestDecodeRescale(t *testing.T) {
	row := []float32{2, 0.9, 0.1, 0.2, 0.5, 0.6}

	tests := []struct {
		name string
		arch models.Architecture
		want images.Box
	}{
		{"SSD maps to pixels", models.ArchSSD, images.Box{XMin: 64, YMin: 96, XMax: 320, YMax: 288}},
		{"YOLO unchanged", models.ArchYOLO, images.Box{XMin: 0.1, YMin: 0.2, XMax: 0.5, YMax: 0.6}},
		{"RCNN unchanged", models.ArchRCNN, images.Box{XMin: 0.1, YMin: 0.2, XMax: 0.5, YMax: 0.6}},
		{"unknown unchanged", models.ArchUnknown, images.Box{XMin: 0.1, YMin: 0.2, XMax: 0.5, YMax: 0.6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := NewDecoder(tt.arch, 0.5).Decode(row, 480, 640)
			require.Len(t, results, 1)

			got := results[0]
			assert.Equal(t, 2, got.Class)
			assert.InDelta(t, 0.9, got.Score, 1e-6)
			assert.InDelta(t, tt.want.XMin, got.Box.XMin, 1e-4)
			assert.InDelta(t, tt.want.YMin, got.Box.YMin, 1e-4)
			assert.InDelta(t, tt.want.XMax, got.Box.XMax, 1e-4)
			assert.InDelta(t, tt.want.YMax, got.Box.YMax, 1e-4)
		})
	}
}

// TestDecodeOrderAndRounding validates row order, class rounding and partial rows.
func TestDecodeOrderAndRounding(t *testing.T) {
	data := []float32{
		0.9999, 0.7, 1, 2, 3, 4,
		4.4, 0.95, 5, 6, 7, 8,
		1.6, 0.8, 9, 10, 11, 12,
		7, 0.99, 1, 1, // partial row
	}

	results := NewDecoder(models.ArchRetinaNet, 0.3).Decode(data, 10, 10)
	require.Len(t, results, 3)
	assert.Equal(t, []int{1, 4, 2}, []int{results[0].Class, results[1].Class, results[2].Class})
	assert.Equal(t, float32(0.7), results[0].Score, "input order is kept, no sorting")
	assert.Equal(t, images.Box{XMin: 9, YMin: 10, XMax: 11, YMax: 12}, results[2].Box)
}

// TestDecodeEmpty validates empty and short input.
func TestDecodeEmpty(t *testing.T) {
	d := NewDecoder(models.ArchSSD, 0.5)
	assert.Empty(t, d.Decode(nil, 480, 640))
	assert.Empty(t, d.Decode([]float32{1, 0.9, 0.1}, 480, 640))
	assert.Equal(t, float32(0.5), d.Threshold())
}

type stubRows struct {
	rows [][]float32
	err  error
}

func (s stubRows) Rows() int { return len(s.rows) }

func (s stubRows) Row(i int) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows[i], nil
}

// TestDecodeRows validates decoding from a row source.
func TestDecodeRows(t *testing.T) {
	d := NewDecoder(models.ArchSSD, 0.5)

	results, err := d.DecodeRows(stubRows{rows: [][]float32{
		{3, 0.9, 0.5, 0.5, 1, 1},
		{3, 0.2, 0, 0, 1, 1},
	}}, 100, 200)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, images.Box{XMin: 100, YMin: 50, XMax: 200, YMax: 100}, results[0].Box)

	boom := errors.New("bad view")
	_, err = d.DecodeRows(stubRows{rows: [][]float32{{0, 0.9, 0, 0, 1, 1}}, err: boom}, 100, 200)
	assert.True(t, errors.Is(err, boom))

	_, err = d.DecodeRows(stubRows{rows: [][]float32{{0, 0.9, 0}}}, 100, 200)
	assert.Error(t, err)
}
