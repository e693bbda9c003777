package preprocess

import (
	"github.com/nvr-ai/go-detect/models"
	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"
)

// Kind identifies one of the supported transforms.
type Kind int

// The declaration order of the kinds is also the order the chain runs them in.
const (
	KindResize Kind = iota
	KindNormalize
	KindPermute
	KindPadStride
	numKinds
)

// runOrder is the fixed execution order of the chain, independent of the declared order.
var runOrder = [numKinds]Kind{KindResize, KindNormalize, KindPermute, KindPadStride}

// kindByName is the allow-list of configuration names. Names missing here are skipped.
var kindByName = map[string]Kind{
	"Resize":        KindResize,
	"ResizeByShort": KindResize,
	"Normalize":     KindNormalize,
	"Permute":       KindPermute,
	"PaddingImage":  KindPadStride,
	"PadStride":     KindPadStride,
}

// String returns the transform name.
func (k Kind) String() string {
	switch k {
	case KindResize:
		return "Resize"
	case KindNormalize:
		return "Normalize"
	case KindPermute:
		return "Permute"
	case KindPadStride:
		return "PadStride"
	default:
		return "Unknown"
	}
}

// Op is a single transform of the chain.
//
// Run takes ownership of im. When it produces a new Mat it closes im and returns the new one;
// otherwise it returns im itself.
type Op interface {
	// Init configures the transform from its declared parameters. params may be nil.
	Init(params *yaml.Node, arch models.Architecture) error
	// Run applies the transform to the working image and its metadata record.
	Run(im gocv.Mat, blob Blob) (gocv.Mat, Blob, error)
}

// newOp returns an unconfigured transform of kind k.
func newOp(k Kind) Op {
	switch k {
	case KindResize:
		return &Resize{}
	case KindNormalize:
		return &Normalize{}
	case KindPermute:
		return &Permute{}
	case KindPadStride:
		return &PadStride{}
	default:
		return nil
	}
}

// decodeParams decodes params into out, leaving out untouched when there are none.
func decodeParams(k Kind, params *yaml.Node, out interface{}) error {
	if params == nil {
		return nil
	}
	if err := params.Decode(out); err != nil {
		return &TransformError{Op: k, Err: err}
	}
	return nil
}

// toFloat32 returns im converted to 32-bit float depth, scaled by alpha. The input is closed when
// a conversion takes place.
func toFloat32(im gocv.Mat, alpha float32) gocv.Mat {
	if im.Type()&7 == gocv.MatTypeCV32F && alpha == 1 {
		return im
	}
	dst := gocv.NewMat()
	im.ConvertToWithParams(&dst, gocv.MatTypeCV32F, alpha, 0)
	im.Close()
	return dst
}
