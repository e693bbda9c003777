// Package detector - Object detection pipeline from a decoded image to filtered results.
package detector

import (
	"context"
	"image"
	"path/filepath"

	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/preprocess"
	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/models"
	"github.com/nvr-ai/go-detect/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// DefaultModelFile is the network file name inside a model directory.
const DefaultModelFile = "model.onnx"

// Detector runs the transform chain, the executor and the decoder for one model.
//
// A Detector is read-only after construction. Predict is safe for concurrent use when the
// executor is.
type Detector struct {
	cfg          *models.Config
	exec         *inference.ProfiledExecutor
	preprocessor *preprocess.Preprocessor
	predictor    *inference.Predictor
	decoder      *postprocess.Decoder
	logger       logrus.FieldLogger
	closer       func() error
}

type options struct {
	logger    logrus.FieldLogger
	threshold *float32
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) { o.logger = logger }
}

// WithThreshold overrides the draw threshold of the model configuration.
func WithThreshold(threshold float32) Option {
	return func(o *options) { o.threshold = &threshold }
}

// New builds a detector for cfg on top of exec.
//
// Arguments:
//   - cfg: The parsed model configuration.
//   - exec: The network executor.
//   - opts: Optional settings.
//
// Returns:
//   - *Detector: The detector.
//   - error: A *preprocess.TransformError if a transform declaration is malformed.
func New(cfg *models.Config, exec inference.Executor, opts ...Option) (*Detector, error) {
	if cfg == nil {
		return nil, errors.New("nil model configuration")
	}
	if exec == nil {
		return nil, errors.New("nil executor")
	}

	o := options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger.WithField("model", cfg.ModelName())
	if cfg.Arch() == models.ArchUnknown {
		logger.Warn("unknown model architecture, detections are not rescaled")
	}

	pre, err := preprocess.NewPreprocessor(cfg.Transforms(), cfg.Arch(), logger)
	if err != nil {
		return nil, err
	}

	threshold := cfg.DrawThreshold()
	if o.threshold != nil {
		threshold = *o.threshold
	}

	profiled := inference.NewProfiledExecutor(exec)
	return &Detector{
		cfg:          cfg,
		exec:         profiled,
		preprocessor: pre,
		predictor:    inference.NewPredictor(profiled),
		decoder:      postprocess.NewDecoder(cfg.Arch(), threshold),
		logger:       logger,
	}, nil
}

// LoadOptions configures Load.
type LoadOptions struct {
	// UseGPU selects CUDA, or TensorRT for the trt_* run modes.
	UseGPU bool
	// DeviceID is the GPU ordinal.
	DeviceID int
	// OpenVINODevice runs the network on OpenVINO with this device type, e.g. CPU, GPU or NPU.
	OpenVINODevice string
	// LibPath is the ONNX Runtime shared library. Empty selects the platform default.
	LibPath string
	// ConfigFile is the configuration file name. Empty selects models.DefaultConfigFile.
	ConfigFile string
	// ModelFile is the network file name. Empty selects DefaultModelFile.
	ModelFile string
	// Threshold overrides the configured draw threshold when set.
	Threshold *float32
	// Logger is the logger. Nil selects the logrus standard logger.
	Logger logrus.FieldLogger
}

// Load reads a model directory and opens its network with ONNX Runtime.
//
// The execution providers follow the run mode of the configuration, opts.UseGPU and
// opts.OpenVINODevice.
//
// Arguments:
//   - modelDir: Directory holding the configuration and the network file.
//   - opts: Load settings.
//
// Returns:
//   - *Detector: The detector. It owns the session and must be closed.
//   - error: A *models.ConfigError for an invalid configuration, or a session error.
func Load(modelDir string, opts LoadOptions) (*Detector, error) {
	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = models.DefaultConfigFile
	}
	modelFile := opts.ModelFile
	if modelFile == "" {
		modelFile = DefaultModelFile
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	cfg, err := models.Load(modelDir, configFile)
	if err != nil {
		return nil, err
	}

	mode, err := providers.ParseRunMode(cfg.Mode())
	if err != nil {
		return nil, &models.ConfigError{Field: "mode", Err: errors.Wrap(models.ErrMalformedField, err.Error())}
	}

	if err := providers.Initialize(opts.LibPath); err != nil {
		return nil, err
	}

	backends := providers.ProvidersForMode(providers.ModeArgs{
		Mode:            mode,
		UseGPU:          opts.UseGPU,
		DeviceID:        opts.DeviceID,
		MinSubgraphSize: cfg.MinSubgraphSize(),
		OpenVINODevice:  opts.OpenVINODevice,
	})
	modelPath := filepath.Join(modelDir, modelFile)
	session, err := providers.NewSession(providers.NewSessionArgs{ModelPath: modelPath, Providers: backends})
	if err != nil {
		return nil, err
	}

	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = string(b.Backend())
	}
	logger.WithFields(logrus.Fields{
		"model":     modelPath,
		"mode":      mode,
		"providers": names,
		"inputs":    session.InputNames(),
	}).Info("inference session created")

	newOpts := []Option{WithLogger(logger)}
	if opts.Threshold != nil {
		newOpts = append(newOpts, WithThreshold(*opts.Threshold))
	}
	d, err := New(cfg, session, newOpts...)
	if err != nil {
		_ = session.Close()
		return nil, err
	}
	d.closer = session.Close
	return d, nil
}

// Predict detects objects in a BGR image.
//
// Arguments:
//   - ctx: Passed through to the executor.
//   - im: The BGR image. It is not modified.
//
// Returns:
//   - []postprocess.Result: Detections above the threshold, in original image coordinates for SSD
//     models and in network output coordinates otherwise.
//   - error: A *preprocess.TransformError or *inference.ExecutorError.
func (d *Detector) Predict(ctx context.Context, im gocv.Mat) ([]postprocess.Result, error) {
	blob, err := d.preprocessor.Run(im)
	if err != nil {
		return nil, err
	}

	out, err := d.predictor.Predict(ctx, blob)
	if err != nil {
		return nil, err
	}

	results, err := d.decoder.DecodeRows(out, blob.Original.Height, blob.Original.Width)
	if err != nil {
		return nil, &inference.ExecutorError{Err: err}
	}
	d.logger.WithFields(logrus.Fields{
		"rows":    out.Rows(),
		"results": len(results),
	}).Debug("prediction complete")
	return results, nil
}

// PredictImage detects objects in a Go image.
func (d *Detector) PredictImage(ctx context.Context, img image.Image) ([]postprocess.Result, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	// ImageToMatRGB lays the pixels out in OpenCV's BGR channel order.
	bgr, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "convert image")
	}
	defer bgr.Close()

	return d.Predict(ctx, bgr)
}

// Labels returns a copy of the label table.
func (d *Detector) Labels() []string { return d.cfg.Labels() }

// Config returns the model configuration.
func (d *Detector) Config() *models.Config { return d.cfg }

// Threshold returns the score threshold applied to detections.
func (d *Detector) Threshold() float32 { return d.decoder.Threshold() }

// Metrics returns the executor performance counters.
func (d *Detector) Metrics() inference.Metrics { return d.exec.Metrics() }

// Close releases the session when the detector was created by Load.
func (d *Detector) Close() error {
	if d.closer == nil {
		return nil
	}
	closer := d.closer
	d.closer = nil
	return closer()
}
