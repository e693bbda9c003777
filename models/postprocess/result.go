// Package postprocess - Decoding of raw detection model output.
package postprocess

import "github.com/nvr-ai/go-detect/images"

// Result represents a single detection result.
type Result struct {
	// The predicted class index of the result.
	Class int
	// The confidence score of the result.
	Score float32
	// The bounding box of the result, in original image pixels.
	Box images.Box
}
