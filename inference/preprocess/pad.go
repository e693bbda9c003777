package preprocess

import (
	"fmt"
	"image/color"

	"github.com/nvr-ai/go-detect/models"
	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"
)

// PadStride zero-pads the bottom and right edges so both sides are multiples of Stride.
//
// Models with feature pyramids need input sizes divisible by their coarsest stride. The pad also
// applies to Blob.Pixels when Permute already produced them.
type PadStride struct {
	Stride int
}

type padStrideParams struct {
	CoarsestStride int `yaml:"coarsest_stride"`
}

// Init implements Op.
func (p *PadStride) Init(params *yaml.Node, _ models.Architecture) error {
	var pp padStrideParams
	if err := decodeParams(KindPadStride, params, &pp); err != nil {
		return err
	}
	if pp.CoarsestStride < 0 {
		return &TransformError{Op: KindPadStride, Err: fmt.Errorf("coarsest_stride must not be negative, got %d", pp.CoarsestStride)}
	}
	p.Stride = pp.CoarsestStride
	return nil
}

// Run implements Op.
func (p *PadStride) Run(im gocv.Mat, blob Blob) (gocv.Mat, Blob, error) {
	h, w := im.Rows(), im.Cols()
	nh, nw := alignUp(h, p.Stride), alignUp(w, p.Stride)
	if nh == h && nw == w {
		return im, blob, nil
	}

	dst := gocv.NewMat()
	gocv.CopyMakeBorder(im, &dst, 0, nh-h, 0, nw-w, gocv.BorderConstant, color.RGBA{})
	im.Close()

	if blob.Pixels != nil {
		bh, bw := blob.Working.Height, blob.Working.Width
		if blob.Layout == LayoutCHW {
			blob.Pixels = padPlanar(blob.Pixels, blob.Channels, bh, bw, nh, nw)
		} else {
			blob.Pixels = padInterleaved(blob.Pixels, blob.Channels, bh, bw, nh, nw)
		}
	}
	blob.Working = Size{Height: nh, Width: nw}
	return dst, blob, nil
}
