package preprocess

import "github.com/chewxy/math32"

// resizeTarget computes the output size and per-axis scale of a resize.
//
// For aspect-preserving resizes the scale is min(target/short, max/long), the second term only
// applying when maxSize > 0. Fixed-square resizes ignore maxSize and stretch both axes to target.
func resizeTarget(h, w, target, maxSize int, square bool) (nh, nw int, sy, sx float32) {
	if square {
		return target, target, float32(target) / float32(h), float32(target) / float32(w)
	}

	short, long := h, w
	if short > long {
		short, long = long, short
	}
	scale := float32(target) / float32(short)
	if maxSize > 0 {
		scale = math32.Min(scale, float32(maxSize)/float32(long))
	}

	nh = int(math32.Round(float32(h) * scale))
	nw = int(math32.Round(float32(w) * scale))
	if nh < 1 {
		nh = 1
	}
	if nw < 1 {
		nw = 1
	}
	return nh, nw, scale, scale
}

// alignUp rounds v up to the next multiple of stride.
func alignUp(v, stride int) int {
	if stride <= 1 {
		return v
	}
	return (v + stride - 1) / stride * stride
}

// normalizeHWC applies (v - mean[c]) / std[c] in place over interleaved pixels.
func normalizeHWC(data []float32, channels int, mean, std []float32) {
	for i := range data {
		c := i % channels
		data[i] = (data[i] - mean[c]) / std[c]
	}
}

// Denormalize inverts a normalization in place over interleaved pixels: v*std[c] + mean[c].
//
// Arguments:
//   - data: Interleaved (HWC) float pixels.
//   - mean: Per-channel means used to normalize.
//   - std: Per-channel standard deviations used to normalize.
func Denormalize(data []float32, mean, std []float32) {
	channels := len(mean)
	for i := range data {
		c := i % channels
		data[i] = data[i]*std[c] + mean[c]
	}
}

// hwcToCHW converts interleaved pixels into planar order, optionally swapping the first and
// third channel.
func hwcToCHW(src []float32, h, w, c int, swapRB bool) []float32 {
	dst := make([]float32, len(src))
	plane := h * w
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := y*w + x
			for ch := 0; ch < c; ch++ {
				out := ch
				if swapRB && c >= 3 {
					switch ch {
					case 0:
						out = 2
					case 2:
						out = 0
					}
				}
				dst[out*plane+px] = src[px*c+ch]
			}
		}
	}
	return dst
}

// swapInterleavedRB swaps the first and third channel of interleaved pixels in place.
func swapInterleavedRB(data []float32, c int) {
	if c < 3 {
		return
	}
	for i := 0; i+2 < len(data); i += c {
		data[i], data[i+2] = data[i+2], data[i]
	}
}

// padPlanar zero-pads the bottom and right of every plane of a CHW buffer.
func padPlanar(src []float32, c, h, w, nh, nw int) []float32 {
	dst := make([]float32, c*nh*nw)
	for ch := 0; ch < c; ch++ {
		for y := 0; y < h; y++ {
			copy(dst[ch*nh*nw+y*nw:ch*nh*nw+y*nw+w], src[ch*h*w+y*w:ch*h*w+y*w+w])
		}
	}
	return dst
}

// padInterleaved zero-pads the bottom and right of an HWC buffer.
func padInterleaved(src []float32, c, h, w, nh, nw int) []float32 {
	dst := make([]float32, nh*nw*c)
	for y := 0; y < h; y++ {
		copy(dst[y*nw*c:y*nw*c+w*c], src[y*w*c:y*w*c+w*c])
	}
	return dst
}
