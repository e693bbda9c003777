package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/nvr-ai/go-detect/benchmark"
	"github.com/nvr-ai/go-detect/detector"
	"github.com/nvr-ai/go-detect/inference/providers"
	"github.com/nvr-ai/go-detect/util"
	"github.com/pkg/errors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	parser := argparse.NewParser("benchmark", "Measure detection latency across camera resolutions")
	modelDir := parser.String("m", "model-dir", &argparse.Options{Help: "Directory holding model.yml and model.onnx", Required: true})
	imageDir := parser.String("d", "image-dir", &argparse.Options{Help: "Directory of source images", Required: true})
	scenarioFile := parser.String("s", "scenarios", &argparse.Options{Help: "YAML scenario file; quick scenarios when empty"})
	resolutions := parser.String("r", "resolutions", &argparse.Options{Help: "Comma-separated resolutions, overrides the scenario file"})
	iterations := parser.Int("n", "iterations", &argparse.Options{Help: "Iterations per resolution", Default: 50})
	outputDir := parser.String("o", "output", &argparse.Options{Help: "Output directory for results", Default: "benchmark_results"})
	useGPU := parser.Flag("", "gpu", &argparse.Options{Help: "Run on the GPU"})
	openvino := parser.String("", "openvino", &argparse.Options{Help: "Run on OpenVINO with this device type (CPU, GPU, NPU)"})
	libPath := parser.String("", "lib", &argparse.Options{Help: "ONNX Runtime shared library path"})
	timeout := parser.Int("", "timeout", &argparse.Options{Help: "Timeout in minutes", Default: 30})
	if err := parser.Parse(os.Args); err != nil {
		return errors.New(parser.Usage(err))
	}

	logger, err := util.NewLogger(util.LoggerOptions{})
	if err != nil {
		return err
	}

	scenarios := benchmark.QuickScenarios()
	switch {
	case *resolutions != "":
		scenarios = nil
		for _, r := range strings.Split(*resolutions, ",") {
			r = strings.TrimSpace(r)
			scenarios = append(scenarios, benchmark.Scenario{Name: r, Resolution: r, Iterations: *iterations, WarmupRuns: 3})
		}
	case *scenarioFile != "":
		set, err := benchmark.LoadScenarioSet(*scenarioFile)
		if err != nil {
			return err
		}
		scenarios = set.Scenarios
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

	suite := benchmark.NewSuite(d, logger)
	defer suite.Close()
	if err := suite.LoadImages(*imageDir); err != nil {
		return errors.Wrap(err, "load images")
	}
	scenarios = suite.CapScenarios(scenarios)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeout)*time.Minute)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := suite.RunAll(ctx, scenarios)
	jsonPath, csvPath, err := benchmark.SaveResults(*outputDir, results)
	if err != nil {
		return errors.Wrap(err, "save results")
	}
	logger.WithField("json", jsonPath).WithField("csv", csvPath).Info("results saved")
	return nil
}
