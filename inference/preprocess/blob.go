// Package preprocess - Transform chain turning a decoded image into a model input tensor.
package preprocess

// Layout is the memory order of Blob.Pixels.
type Layout int

const (
	// LayoutHWC stores pixels interleaved: height, width, channel.
	LayoutHWC Layout = iota
	// LayoutCHW stores one plane per channel: channel, height, width.
	LayoutCHW
)

// String returns the layout name.
func (l Layout) String() string {
	if l == LayoutCHW {
		return "CHW"
	}
	return "HWC"
}

// Size is an image size in pixels.
type Size struct {
	Height, Width int
}

// Scale holds the model-space over original-space ratio of each axis.
type Scale struct {
	Y, X float32
}

// Blob is the per-call metadata record produced by the transform chain.
//
// A Blob is created by Preprocessor.Run and handed by value from one transform to the next. Each
// transform owns it for the duration of its call and returns the updated record.
type Blob struct {
	// Original is the image size at ingestion.
	Original Size
	// Working is the image size after the latest resize or pad.
	Working Size
	// Scale maps original coordinates into model space. It stays 1 when no resize ran.
	Scale Scale
	// Channels is the channel count of Pixels.
	Channels int
	// Pixels is the flattened tensor buffer in Layout order.
	Pixels []float32
	// Layout is the memory order of Pixels.
	Layout Layout
}

// newBlob returns the record of an image that has not been transformed yet.
func newBlob(h, w, channels int) Blob {
	return Blob{
		Original: Size{Height: h, Width: w},
		Working:  Size{Height: h, Width: w},
		Scale:    Scale{Y: 1, X: 1},
		Channels: channels,
	}
}

// ImageShape returns the 4D shape of the image tensor, batch first.
func (b Blob) ImageShape() []int64 {
	if b.Layout == LayoutCHW {
		return []int64{1, int64(b.Channels), int64(b.Working.Height), int64(b.Working.Width)}
	}
	return []int64{1, int64(b.Working.Height), int64(b.Working.Width), int64(b.Channels)}
}

// ImSize returns the original (height, width) pair as integers.
func (b Blob) ImSize() []int32 {
	return []int32{int32(b.Original.Height), int32(b.Original.Width)}
}

// ImInfo returns the evaluation triple (working height, working width, scale).
func (b Blob) ImInfo() []float32 {
	return []float32{float32(b.Working.Height), float32(b.Working.Width), b.Scale.X}
}

// ImShape returns the original size triple (height, width, 1).
func (b Blob) ImShape() []float32 {
	return []float32{float32(b.Original.Height), float32(b.Original.Width), 1}
}
