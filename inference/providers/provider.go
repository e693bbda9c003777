// Package providers - ONNX Runtime execution providers and sessions.
package providers

import (
	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend represents different ONNX Runtime execution providers
type ProviderBackend string

const (
	// CPUProviderBackend runs on the default CPU provider.
	CPUProviderBackend ProviderBackend = "cpu"
	// CUDAProviderBackend uses NVIDIA CUDA for GPU acceleration.
	CUDAProviderBackend ProviderBackend = "cuda"
	// TensorRTProviderBackend uses NVIDIA TensorRT for optimized inference.
	TensorRTProviderBackend ProviderBackend = "tensorrt"
	// CoreMLProviderBackend uses Apple CoreML for macOS/iOS acceleration.
	CoreMLProviderBackend ProviderBackend = "coreml"
	// OpenVINOProviderBackend uses Intel OpenVINO for inference optimization.
	OpenVINOProviderBackend ProviderBackend = "openvino"
)

// ProviderOptions is the provider-specific configuration of one execution provider.
//
// Providers are appended to the session options in the order they are listed; ONNX Runtime
// assigns each graph node to the first provider able to run it and falls back to the CPU.
type ProviderOptions interface {
	// Backend returns the provider the options belong to.
	Backend() ProviderBackend
	// apply appends the provider to the session options.
	apply(options *ort.SessionOptions) error
}
