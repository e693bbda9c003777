// Package visualize - Rendering of detection results onto images.
package visualize

import (
	"image"
	"image/color"
	"strconv"

	"github.com/nvr-ai/go-detect/models/postprocess"
	"gocv.io/x/gocv"
)

const (
	boxThickness  = 2
	textThickness = 1
	baseFontScale = 0.5
	font          = gocv.FontHersheyComplexSmall
)

var textColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// GenerateColorMap returns a distinct color per class.
//
// The bits of the class index are spread over the three channels, most significant bit first, so
// neighbouring classes get clearly different colors. Class 0 is black.
//
// Arguments:
//   - n: The number of classes.
//
// Returns:
//   - []color.RGBA: One color per class index.
func GenerateColorMap(n int) []color.RGBA {
	colormap := make([]color.RGBA, n)
	for i := 0; i < n; i++ {
		var c [3]uint8
		for j, lab := 0, i; lab > 0; j, lab = j+1, lab>>3 {
			for k := 0; k < 3; k++ {
				c[k] |= uint8((lab>>k)&1) << (7 - j)
			}
		}
		// The first channel is the first channel of the BGR image.
		colormap[i] = color.RGBA{B: c[0], G: c[1], R: c[2], A: 255}
	}
	return colormap
}

// Label returns the display text of a result: the class label directly followed by the score
// percentage, e.g. "car87%". Classes outside the label table are shown by their index in brackets.
func Label(r postprocess.Result, labels []string) string {
	name := "[" + strconv.Itoa(r.Class) + "]"
	if r.Class >= 0 && r.Class < len(labels) {
		name = labels[r.Class]
	}
	return name + strconv.Itoa(int(r.Score*100)) + "%"
}

// Visualize draws the results onto a copy of img.
//
// Each result gets its box outline, and above it a filled label background in the class color
// with the label text in white. The text is scaled to span the width of the box.
//
// Arguments:
//   - img: The original BGR image. It is not modified.
//   - results: The detections, in original image coordinates.
//   - labels: The label table, indexed by class id.
//   - colormap: Colors indexed by class id, see GenerateColorMap. Classes beyond its end wrap.
//
// Returns:
//   - gocv.Mat: The annotated copy. The caller must Close it.
func Visualize(img gocv.Mat, results []postprocess.Result, labels []string, colormap []color.RGBA) gocv.Mat {
	vis := img.Clone()
	if len(colormap) == 0 {
		colormap = GenerateColorMap(len(labels))
	}

	for _, r := range results {
		roi := r.Box.Rect()
		c := colorFor(colormap, r.Class)
		gocv.Rectangle(&vis, roi, c, boxThickness)

		text := Label(r, labels)
		scale := fontScale(text, roi.Dx())
		size := gocv.GetTextSize(text, font, scale, textThickness)

		background := image.Rect(roi.Min.X, roi.Min.Y-size.Y, roi.Min.X+size.X, roi.Min.Y)
		gocv.Rectangle(&vis, background, c, -1)
		gocv.PutText(&vis, text, roi.Min, font, scale, textColor, textThickness)
	}
	return vis
}

func colorFor(colormap []color.RGBA, class int) color.RGBA {
	if len(colormap) == 0 || class < 0 {
		return color.RGBA{A: 255}
	}
	return colormap[class%len(colormap)]
}

// fontScale scales the base font so the text spans width pixels.
func fontScale(text string, width int) float64 {
	base := gocv.GetTextSize(text, font, baseFontScale, textThickness)
	if base.X <= 0 || width <= 0 {
		return baseFontScale
	}
	return float64(width) * baseFontScale / float64(base.X)
}
