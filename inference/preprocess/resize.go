package preprocess

import (
	"fmt"
	"image"

	"github.com/nvr-ai/go-detect/models"
	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"
)

// interpolations maps configuration names to OpenCV interpolation flags.
var interpolations = map[string]gocv.InterpolationFlags{
	"NEAREST":  gocv.InterpolationNearestNeighbor,
	"LINEAR":   gocv.InterpolationLinear,
	"AREA":     gocv.InterpolationArea,
	"CUBIC":    gocv.InterpolationCubic,
	"LANCZOS4": gocv.InterpolationLanczos4,
}

// Resize scales the image to the model input size.
//
// SSD models get exactly TargetSize x TargetSize. Every other family keeps the aspect ratio with
// the short side at TargetSize, unless that pushes the long side past MaxSize.
type Resize struct {
	TargetSize int
	MaxSize    int
	Interp     gocv.InterpolationFlags
	arch       models.Architecture
}

type resizeParams struct {
	TargetSize *int   `yaml:"target_size"`
	ShortSize  *int   `yaml:"short_size"`
	MaxSize    int    `yaml:"max_size"`
	Interp     string `yaml:"interp"`
}

// Init implements Op.
func (r *Resize) Init(params *yaml.Node, arch models.Architecture) error {
	var p resizeParams
	if err := decodeParams(KindResize, params, &p); err != nil {
		return err
	}

	target := p.TargetSize
	if target == nil {
		target = p.ShortSize
	}
	if target == nil {
		return &TransformError{Op: KindResize, Err: fmt.Errorf("target_size is required")}
	}
	if *target <= 0 {
		return &TransformError{Op: KindResize, Err: fmt.Errorf("target_size must be positive, got %d", *target)}
	}

	interp, ok := interpolations[p.Interp]
	if !ok {
		interp = gocv.InterpolationLinear
	}

	r.TargetSize = *target
	r.MaxSize = p.MaxSize
	r.Interp = interp
	r.arch = arch
	return nil
}

// Run implements Op.
func (r *Resize) Run(im gocv.Mat, blob Blob) (gocv.Mat, Blob, error) {
	if im.Empty() {
		return im, blob, &TransformError{Op: KindResize, Err: fmt.Errorf("empty image")}
	}

	nh, nw, sy, sx := resizeTarget(im.Rows(), im.Cols(), r.TargetSize, r.MaxSize, r.arch.IsSSD())

	dst := gocv.NewMat()
	gocv.Resize(im, &dst, image.Pt(nw, nh), 0, 0, r.Interp)
	im.Close()

	blob.Working = Size{Height: dst.Rows(), Width: dst.Cols()}
	blob.Scale = Scale{Y: sy, X: sx}
	return dst, blob, nil
}
