package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/google/uuid"
	"github.com/nvr-ai/go-detect/detector"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/models/postprocess"
	"github.com/nvr-ai/go-detect/util"
	"github.com/nvr-ai/go-detect/visualize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	parser := argparse.NewParser("detect", "Run an exported detection model on images or a video")
	modelDir := parser.String("m", "model-dir", &argparse.Options{Help: "Directory holding model.yml and model.onnx", Required: true})
	imagePath := parser.String("i", "image", &argparse.Options{Help: "Single image to process"})
	imageDir := parser.String("d", "image-dir", &argparse.Options{Help: "Directory of images to process"})
	videoPath := parser.String("v", "video", &argparse.Options{Help: "Video file to process"})
	outputDir := parser.String("o", "output", &argparse.Options{Help: "Directory for annotated output", Default: "output"})
	useGPU := parser.Flag("", "gpu", &argparse.Options{Help: "Run on the GPU (CUDA, or TensorRT for trt_* modes)"})
	deviceID := parser.Int("", "device", &argparse.Options{Help: "GPU device ordinal", Default: 0})
	openvino := parser.String("", "openvino", &argparse.Options{Help: "Run on OpenVINO with this device type (CPU, GPU, NPU)"})
	threshold := parser.Float("", "threshold", &argparse.Options{Help: "Score threshold, overrides draw_threshold when in [0, 1]", Default: -1.0})
	libPath := parser.String("", "lib", &argparse.Options{Help: "ONNX Runtime shared library path"})
	logLevel := parser.String("", "log-level", &argparse.Options{Help: "Log level", Default: "info"})
	logFile := parser.String("", "log-file", &argparse.Options{Help: "Also write logs to this rotated file"})
	if err := parser.Parse(os.Args); err != nil {
		return errors.New(parser.Usage(err))
	}

	inputs := 0
	for _, s := range []string{*imagePath, *imageDir, *videoPath} {
		if s != "" {
			inputs++
		}
	}
	if inputs != 1 {
		return errors.New(parser.Usage("exactly one of --image, --image-dir or --video is required"))
	}

	logger, err := util.NewLogger(util.LoggerOptions{Level: *logLevel, File: *logFile})
	if err != nil {
		return err
	}
	log := logger.WithField("run_id", uuid.NewString())

	opts := detector.LoadOptions{
		UseGPU:         *useGPU,
		DeviceID:       *deviceID,
		OpenVINODevice: *openvino,
		LibPath:        *libPath,
		Logger:         log,
	}
	if *threshold >= 0 && *threshold <= 1 {
		t := float32(*threshold)
		opts.Threshold = &t
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	d, err := detector.Load(*modelDir, opts)
	if err != nil {
		return errors.Wrap(err, "load model")
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.WithError(err).Warn("failed to close detector")
		}
		if err := providers.Shutdown(); err != nil {
			log.WithError(err).Warn("failed to shut down ONNX Runtime")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &runner{
		detector: d,
		log:      log,
		labels:   d.Labels(),
		colormap: visualize.GenerateColorMap(len(d.Labels())),
		output:   *outputDir,
	}

	switch {
	case *imagePath != "":
		err = r.processImage(ctx, *imagePath)
	case *imageDir != "":
		err = r.processDir(ctx, *imageDir)
	default:
		err = r.processVideo(ctx, *videoPath)
	}

	m := d.Metrics()
	log.WithFields(logrus.Fields{
		"runs":     m.Runs,
		"failures": m.Failures,
		"avg":      m.AverageTime,
		"fps":      fmt.Sprintf("%.2f", m.ThroughputFPS),
	}).Info("inference summary")

	return errors.Wrap(err, "processing failed")
}

type runner struct {
	detector *detector.Detector
	log      logrus.FieldLogger
	labels   []string
	colormap []color.RGBA
	output   string
}

func (r *runner) processImage(ctx context.Context, path string) error {
	img, err := images.Load(path)
	if err != nil {
		return err
	}
	defer img.Close()

	log := r.log.WithField("image", filepath.Base(path))
	results, err := r.detector.Predict(ctx, img)
	if err != nil {
		return errors.Wrapf(err, "predict %s", path)
	}
	r.report(log, results)

	vis := visualize.Visualize(img, results, r.labels, r.colormap)
	defer vis.Close()

	name := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(name), ".webp") {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
	}
	out := filepath.Join(r.output, name)
	if !gocv.IMWrite(out, vis) {
		return errors.Errorf("failed to write %s", out)
	}
	log.WithField("output", out).Info("visualization saved")
	return nil
}

func (r *runner) processDir(ctx context.Context, dir string) error {
	files, err := util.ListImageFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.Errorf("no images found in %s", dir)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.processImage(ctx, f.Path); err != nil {
			r.log.WithError(err).WithField("image", f.Name).Warn("skipping image")
		}
	}
	return nil
}

func (r *runner) processVideo(ctx context.Context, path string) error {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return errors.Wrapf(err, "open video %s", path)
	}
	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 25
	}
	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))

	out := filepath.Join(r.output, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".mp4")
	writer, err := gocv.VideoWriterFile(out, "mp4v", fps, width, height, true)
	if err != nil {
		return errors.Wrapf(err, "create video writer %s", out)
	}
	defer writer.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	start := time.Now()
	count := 0
	for ctx.Err() == nil {
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			break
		}
		count++

		results, err := r.detector.Predict(ctx, frame)
		if err != nil {
			return errors.Wrapf(err, "predict frame %d", count)
		}
		r.report(r.log.WithField("frame", count), results)

		vis := visualize.Visualize(frame, results, r.labels, r.colormap)
		err = writer.Write(vis)
		vis.Close()
		if err != nil {
			return errors.Wrapf(err, "write frame %d", count)
		}
	}

	r.log.WithFields(logrus.Fields{
		"frames":  count,
		"elapsed": time.Since(start).Round(time.Millisecond),
		"output":  out,
	}).Info("video processed")
	return ctx.Err()
}

func (r *runner) report(log logrus.FieldLogger, results []postprocess.Result) {
	log.WithField("detections", len(results)).Info("prediction complete")
	for _, res := range results {
		log.WithFields(logrus.Fields{
			"label": visualize.Label(res, r.labels),
			"box":   fmt.Sprintf("(%.1f, %.1f, %.1f, %.1f)", res.Box.XMin, res.Box.YMin, res.Box.XMax, res.Box.YMax),
		}).Debug("detection")
	}
}
