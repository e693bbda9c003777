package preprocess

import (
	"fmt"

	"github.com/nvr-ai/go-detect/models"
	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"
)

// Normalize converts the image to float and standardizes every channel.
//
// With IsScale set, 8-bit values are first divided by 255.
type Normalize struct {
	Mean    []float32
	Std     []float32
	IsScale bool
}

type normalizeParams struct {
	Mean    []float32 `yaml:"mean"`
	Std     []float32 `yaml:"std"`
	IsScale *bool     `yaml:"is_scale"`
}

// Init implements Op.
func (n *Normalize) Init(params *yaml.Node, _ models.Architecture) error {
	var p normalizeParams
	if err := decodeParams(KindNormalize, params, &p); err != nil {
		return err
	}
	if len(p.Mean) == 0 || len(p.Mean) != len(p.Std) {
		return &TransformError{
			Op:  KindNormalize,
			Err: fmt.Errorf("mean and std must be non-empty and of equal length, got %d and %d", len(p.Mean), len(p.Std)),
		}
	}
	for i, s := range p.Std {
		if s == 0 {
			return &TransformError{Op: KindNormalize, Err: fmt.Errorf("std[%d] is zero", i)}
		}
	}

	n.Mean = p.Mean
	n.Std = p.Std
	n.IsScale = p.IsScale == nil || *p.IsScale
	return nil
}

// Run implements Op.
func (n *Normalize) Run(im gocv.Mat, blob Blob) (gocv.Mat, Blob, error) {
	if im.Channels() != len(n.Mean) {
		return im, blob, &TransformError{
			Op:  KindNormalize,
			Err: fmt.Errorf("image has %d channels, mean/std have %d", im.Channels(), len(n.Mean)),
		}
	}

	var alpha float32 = 1
	if n.IsScale {
		alpha = 1.0 / 255.0
	}
	im = toFloat32(im, alpha)

	data, err := im.DataPtrFloat32()
	if err != nil {
		return im, blob, &TransformError{Op: KindNormalize, Err: err}
	}
	normalizeHWC(data, im.Channels(), n.Mean, n.Std)
	return im, blob, nil
}
