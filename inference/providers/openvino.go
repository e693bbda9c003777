// Package providers - OpenVINO based execution provider.
package providers

import (
	"strconv"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	// Overrides the accelerator hardware type, e.g. CPU, GPU or NPU.
	DeviceType string `json:"deviceType"           yaml:"deviceType"`
	// Inference precision: FP32, FP16 or ACCURACY.
	Precision string `json:"precision"            yaml:"precision"`
	// Overrides the accelerator default number of threads. Zero leaves the default.
	NumOfThreads int `json:"numOfThreads"         yaml:"numOfThreads"`
	// Rewrites dynamic shaped models to static shape at runtime.
	DisableDynamicShapes bool `json:"disableDynamicShapes" yaml:"disableDynamicShapes"`
}

// Backend implements ProviderOptions.
func (OpenVINOOptions) Backend() ProviderBackend { return OpenVINOProviderBackend }

func (o OpenVINOOptions) settings() map[string]string {
	m := map[string]string{}
	if o.DeviceType != "" {
		m["device_type"] = o.DeviceType
	}
	if o.Precision != "" {
		m["precision"] = o.Precision
	}
	if o.NumOfThreads > 0 {
		m["num_of_threads"] = strconv.Itoa(o.NumOfThreads)
	}
	if o.DisableDynamicShapes {
		m["disable_dynamic_shapes"] = "true"
	}
	return m
}

func (o OpenVINOOptions) apply(options *ort.SessionOptions) error {
	if err := options.AppendExecutionProviderOpenVINO(o.settings()); err != nil {
		return errors.Wrap(err, "enable OpenVINO")
	}
	return nil
}
