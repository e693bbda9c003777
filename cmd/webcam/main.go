package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/akamensky/argparse"
	"github.com/nvr-ai/go-detect/detector"
	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/util"
	"github.com/nvr-ai/go-detect/visualize"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	parser := argparse.NewParser("webcam", "Show live detections from a capture device")
	modelDir := parser.String("m", "model-dir", &argparse.Options{Help: "Directory holding model.yml and model.onnx", Required: true})
	deviceID := parser.Int("c", "camera", &argparse.Options{Help: "Capture device index", Default: 0})
	useGPU := parser.Flag("", "gpu", &argparse.Options{Help: "Run on the GPU"})
	openvino := parser.String("", "openvino", &argparse.Options{Help: "Run on OpenVINO with this device type (CPU, GPU, NPU)"})
	libPath := parser.String("", "lib", &argparse.Options{Help: "ONNX Runtime shared library path"})
	logLevel := parser.String("", "log-level", &argparse.Options{Help: "Log level", Default: "info"})
	if err := parser.Parse(os.Args); err != nil {
		return errors.New(parser.Usage(err))
	}

	logger, err := util.NewLogger(util.LoggerOptions{Level: *logLevel})
	if err != nil {
		return err
	}

	d, err := detector.Load(*modelDir, detector.LoadOptions{
		UseGPU:         *useGPU,
		OpenVINODevice: *openvino,
		LibPath:        *libPath,
		Logger:         logger,
	})
	if err != nil {
		return errors.Wrap(err, "load model")
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.WithError(err).Warn("failed to close detector")
		}
		if err := providers.Shutdown(); err != nil {
			logger.WithError(err).Warn("failed to shut down ONNX Runtime")
		}
	}()

	webcam, err := gocv.OpenVideoCapture(*deviceID)
	if err != nil {
		return errors.Wrapf(err, "open capture device %d", *deviceID)
	}
	defer webcam.Close()

	window := gocv.NewWindow("Detections")
	defer window.Close()

	img := gocv.NewMat()
	defer img.Close()

	labels := d.Labels()
	colormap := visualize.GenerateColorMap(len(labels))

	// FPS tracking
	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	logger.Infof("start reading camera device: %v", *deviceID)
	for {
		if ok := webcam.Read(&img); !ok {
			return errors.Errorf("cannot read device %v", *deviceID)
		}
		if img.Empty() {
			continue
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
		}

		results, err := d.Predict(context.Background(), img)
		if err != nil {
			return errors.Wrap(err, "prediction failed")
		}
		logger.Debugf("found %d objects | FPS: %.2f", len(results), fps)

		vis := visualize.Visualize(img, results, labels, colormap)
		window.IMShow(vis)
		vis.Close()
		if window.WaitKey(1) == 27 {
			return nil
		}
	}
}
