package visualize

import (
	"image"
	"image/color"
	"testing"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/models/postprocess"
	"github.com/nvr-ai/go-detect/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerateColorMap validates the bit interleaving of class indices.
func TestGenerateColorMap(t *testing.T) {
	cm := GenerateColorMap(9)
	require.Len(t, cm, 9)

	tests := []struct {
		class   int
		b, g, r uint8
	}{
		{0, 0, 0, 0},
		{1, 128, 0, 0},
		{2, 0, 128, 0},
		{3, 128, 128, 0},
		{4, 0, 0, 128},
		{7, 128, 128, 128},
		{8, 64, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, color.RGBA{B: tt.b, G: tt.g, R: tt.r, A: 255}, cm[tt.class], "class %d", tt.class)
	}

	seen := map[color.RGBA]bool{}
	for _, c := range GenerateColorMap(64) {
		assert.False(t, seen[c], "colors must be distinct")
		seen[c] = true
	}
}

// TestLabel validates the display text.
func TestLabel(t *testing.T) {
	labels := []string{"person", "car"}
	assert.Equal(t, "car87%", Label(postprocess.Result{Class: 1, Score: 0.876}, labels))
	assert.Equal(t, "[5]50%", Label(postprocess.Result{Class: 5, Score: 0.5}, labels))
}

// TestVisualize validates that results are drawn on a copy and the input stays untouched.
func TestVisualize(t *testing.T) {
	frame := test.NewMockFrameGenerator(200, 100).GenerateFrame()
	defer frame.Close()
	before := images.ComputeMatChecksum(frame)

	results := []postprocess.Result{
		{Class: 1, Score: 0.9, Box: images.Box{XMin: 20, YMin: 40, XMax: 120, YMax: 90}},
		{Class: 9, Score: 0.6, Box: images.Box{XMin: 150, YMin: 10, XMax: 190, YMax: 60}},
	}
	vis := Visualize(frame, results, []string{"background", "person"}, nil)
	defer vis.Close()

	assert.Equal(t, before, images.ComputeMatChecksum(frame), "input must not be modified")
	assert.Equal(t, frame.Rows(), vis.Rows())
	assert.Equal(t, frame.Cols(), vis.Cols())
	assert.NotEqual(t, before, images.ComputeMatChecksum(vis))

	// The box outline of class 1 is drawn in its color (B=128) on the left edge.
	px := vis.GetVecbAt(65, 20)
	assert.Equal(t, []uint8{128, 0, 0}, []uint8{px[0], px[1], px[2]})

	// Far from any box the background is untouched.
	px = vis.GetVecbAt(95, 5)
	assert.Equal(t, []uint8{128, 128, 128}, []uint8{px[0], px[1], px[2]})
}

// TestVisualizeNoResults validates that an empty result set yields an identical copy.
func TestVisualizeNoResults(t *testing.T) {
	frame := test.NewMockFrameGenerator(64, 48).GenerateFrame(image.Rect(5, 5, 20, 20))
	defer frame.Close()

	vis := Visualize(frame, nil, nil, nil)
	defer vis.Close()
	assert.Equal(t, images.ComputeMatChecksum(frame), images.ComputeMatChecksum(vis))
}
