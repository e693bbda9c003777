package preprocess

import (
	"github.com/nvr-ai/go-detect/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Preprocessor runs the configured transforms in a fixed order.
//
// A Preprocessor is read-only after construction and may be shared between goroutines.
type Preprocessor struct {
	ops    [numKinds]Op
	arch   models.Architecture
	logger logrus.FieldLogger
}

// NewPreprocessor builds the transform chain from its declarations.
//
// Declarations are filtered through the allow-list: unknown names are skipped, aliases collapse
// onto their canonical transform, and a transform declared twice keeps its last declaration.
//
// Arguments:
//   - specs: The transform declarations, in declared order.
//   - arch: The model architecture, which decides how Resize behaves.
//   - logger: The logger for skipped declarations. Nil selects the standard logger.
//
// Returns:
//   - *Preprocessor: The configured chain.
//   - error: A *TransformError when a declaration has invalid parameters.
func NewPreprocessor(specs []models.TransformSpec, arch models.Architecture, logger logrus.FieldLogger) (*Preprocessor, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	p := &Preprocessor{arch: arch, logger: logger}
	for _, spec := range specs {
		kind, ok := kindByName[spec.Name]
		if !ok {
			logger.WithField("transform", spec.Name).Debug("skipping unsupported transform")
			continue
		}

		op := newOp(kind)
		if err := op.Init(spec.Params, arch); err != nil {
			return nil, errors.Wrapf(err, "init %s", spec.Name)
		}
		p.ops[kind] = op
	}
	return p, nil
}

// Has reports whether the chain contains a transform of kind k.
func (p *Preprocessor) Has(k Kind) bool {
	return k >= 0 && k < numKinds && p.ops[k] != nil
}

// Run transforms a BGR image into a model-ready metadata record.
//
// The input image is never modified. The chain works on an RGB copy, and when no transform
// flattened the pixels the result falls back to interleaved float values.
//
// Arguments:
//   - im: The decoded BGR image.
//
// Returns:
//   - Blob: The metadata record with the tensor buffer filled in.
//   - error: A *TransformError when a transform fails.
func (p *Preprocessor) Run(im gocv.Mat) (Blob, error) {
	if im.Empty() {
		return Blob{}, &TransformError{Op: KindResize, Err: errors.New("empty input image")}
	}

	work := gocv.NewMat()
	if im.Channels() >= 3 {
		gocv.CvtColor(im, &work, gocv.ColorBGRToRGB)
	} else {
		im.CopyTo(&work)
	}
	defer func() { work.Close() }()

	blob := newBlob(work.Rows(), work.Cols(), work.Channels())

	var err error
	for _, kind := range runOrder {
		op := p.ops[kind]
		if op == nil {
			continue
		}
		work, blob, err = op.Run(work, blob)
		if err != nil {
			return Blob{}, err
		}
	}

	if blob.Pixels == nil {
		work = toFloat32(work, 1)
		data, err := work.DataPtrFloat32()
		if err != nil {
			return Blob{}, errors.Wrap(err, "flatten image")
		}
		blob.Pixels = make([]float32, len(data))
		copy(blob.Pixels, data)
		blob.Layout = LayoutHWC
		blob.Channels = work.Channels()
		blob.Working = Size{Height: work.Rows(), Width: work.Cols()}
	}
	return blob, nil
}
