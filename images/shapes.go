// Package images - Image processing utilities
package images

import "image"

// Box is an axis-aligned bounding box in pixel coordinates of the original image.
//
// Coordinates are kept as float32 so no precision is lost between decoding and drawing.
type Box struct {
	XMin, YMin, XMax, YMax float32
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float32 {
	return b.XMax - b.XMin
}

// Height returns the vertical extent of the box.
func (b Box) Height() float32 {
	return b.YMax - b.YMin
}

// Area returns the box area, or 0 for degenerate boxes.
func (b Box) Area() float32 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Scale multiplies the x coordinates by sx and the y coordinates by sy.
//
// Arguments:
//   - sx: The horizontal factor.
//   - sy: The vertical factor.
//
// Returns:
//   - Box: The scaled box.
func (b Box) Scale(sx, sy float32) Box {
	return Box{
		XMin: b.XMin * sx,
		YMin: b.YMin * sy,
		XMax: b.XMax * sx,
		YMax: b.YMax * sy,
	}
}

// Rect converts the box to an integer rectangle for drawing. Coordinates are truncated toward
// zero, matching how the detections are rendered on the original image.
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(b.XMin), int(b.YMin), int(b.XMax), int(b.YMax))
}
