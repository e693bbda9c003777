package preprocess

import (
	"github.com/nvr-ai/go-detect/models"
	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"
)

// Permute flattens the working image into Blob.Pixels.
//
// ChannelFirst selects planar CHW output, which is what the detection models expect; HWC is kept
// for exports that take channels last. ToBGR swaps the R and B channels on the way out.
type Permute struct {
	ToBGR        bool
	ChannelFirst bool
}

type permuteParams struct {
	ToBGR        bool  `yaml:"to_bgr"`
	ChannelFirst *bool `yaml:"channel_first"`
}

// Init implements Op.
func (p *Permute) Init(params *yaml.Node, _ models.Architecture) error {
	var pp permuteParams
	if err := decodeParams(KindPermute, params, &pp); err != nil {
		return err
	}
	p.ToBGR = pp.ToBGR
	p.ChannelFirst = pp.ChannelFirst == nil || *pp.ChannelFirst
	return nil
}

// Run implements Op.
func (p *Permute) Run(im gocv.Mat, blob Blob) (gocv.Mat, Blob, error) {
	im = toFloat32(im, 1)

	data, err := im.DataPtrFloat32()
	if err != nil {
		return im, blob, &TransformError{Op: KindPermute, Err: err}
	}

	h, w, c := im.Rows(), im.Cols(), im.Channels()
	if p.ChannelFirst {
		blob.Pixels = hwcToCHW(data, h, w, c, p.ToBGR)
		blob.Layout = LayoutCHW
	} else {
		pixels := make([]float32, len(data))
		copy(pixels, data)
		if p.ToBGR {
			swapInterleavedRB(pixels, c)
		}
		blob.Pixels = pixels
		blob.Layout = LayoutHWC
	}
	blob.Channels = c
	blob.Working = Size{Height: h, Width: w}
	return im, blob, nil
}
