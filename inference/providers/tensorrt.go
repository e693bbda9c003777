// Package providers - TensorRT based execution provider.
package providers

import (
	"strconv"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// TensorRTOptions contains arguments for the TensorRT provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/TensorRT-ExecutionProvider.html#configurations
type TensorRTOptions struct {
	// The device ID.
	DeviceID int `json:"deviceID"         yaml:"deviceID"`
	// Enables FP16 kernels.
	FP16 bool `json:"fp16"             yaml:"fp16"`
	// Enables INT8 kernels. Requires a calibration table shipped with the model.
	INT8 bool `json:"int8"             yaml:"int8"`
	// Subgraphs smaller than this many nodes stay on the fallback provider.
	MinSubgraphSize int `json:"minSubgraphSize"  yaml:"minSubgraphSize"`
	// Maximum workspace size for TensorRT in bytes. Zero leaves the default.
	MaxWorkspaceSize int64 `json:"maxWorkspaceSize" yaml:"maxWorkspaceSize"`
	// Directory for serialized engines. Empty disables the engine cache.
	EngineCachePath string `json:"engineCachePath"  yaml:"engineCachePath"`
}

// Backend implements ProviderOptions.
func (TensorRTOptions) Backend() ProviderBackend { return TensorRTProviderBackend }

func (o TensorRTOptions) settings() map[string]string {
	m := map[string]string{
		"device_id":       strconv.Itoa(o.DeviceID),
		"trt_fp16_enable": boolFlag(o.FP16),
		"trt_int8_enable": boolFlag(o.INT8),
	}
	if o.MinSubgraphSize > 0 {
		m["trt_min_subgraph_size"] = strconv.Itoa(o.MinSubgraphSize)
	}
	if o.MaxWorkspaceSize > 0 {
		m["trt_max_workspace_size"] = strconv.FormatInt(o.MaxWorkspaceSize, 10)
	}
	if o.EngineCachePath != "" {
		m["trt_engine_cache_enable"] = "1"
		m["trt_engine_cache_path"] = o.EngineCachePath
	}
	return m
}

func (o TensorRTOptions) apply(options *ort.SessionOptions) error {
	trt, err := ort.NewTensorRTProviderOptions()
	if err != nil {
		return errors.Wrap(err, "create TensorRT provider options")
	}
	defer trt.Destroy()

	if err := trt.Update(o.settings()); err != nil {
		return errors.Wrap(err, "update TensorRT provider options")
	}
	if err := options.AppendExecutionProviderTensorRT(trt); err != nil {
		return errors.Wrap(err, "enable TensorRT")
	}
	return nil
}
