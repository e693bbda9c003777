package providers

import (
	"fmt"
	"runtime"
)

// RunMode is the engine run mode declared by a model configuration.
type RunMode string

const (
	// RunModeFluid runs the plain graph on the CPU or CUDA.
	RunModeFluid RunMode = "fluid"
	// RunModeTRTFP32 runs TensorRT with float32 kernels.
	RunModeTRTFP32 RunMode = "trt_fp32"
	// RunModeTRTFP16 runs TensorRT with float16 kernels.
	RunModeTRTFP16 RunMode = "trt_fp16"
	// RunModeTRTINT8 runs TensorRT with int8 kernels.
	RunModeTRTINT8 RunMode = "trt_int8"
)

// ParseRunMode validates a run mode string.
func ParseRunMode(s string) (RunMode, error) {
	switch m := RunMode(s); m {
	case RunModeFluid, RunModeTRTFP32, RunModeTRTFP16, RunModeTRTINT8:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported run mode %q, expected one of fluid, trt_fp32, trt_fp16, trt_int8", s)
	}
}

// IsTensorRT reports whether the mode runs on TensorRT.
func (m RunMode) IsTensorRT() bool {
	return m == RunModeTRTFP32 || m == RunModeTRTFP16 || m == RunModeTRTINT8
}

// ModeArgs selects the execution providers of a session.
type ModeArgs struct {
	// Mode is the run mode from the model configuration.
	Mode RunMode
	// UseGPU enables CUDA, and TensorRT for the trt_* modes.
	UseGPU bool
	// DeviceID is the GPU ordinal.
	DeviceID int
	// MinSubgraphSize is passed to TensorRT.
	MinSubgraphSize int
	// OpenVINODevice runs the session on OpenVINO with this device type (CPU, GPU, NPU) and takes
	// precedence over UseGPU. Empty disables OpenVINO.
	OpenVINODevice string
}

// ProvidersForMode returns the execution providers for a run mode, most preferred first.
//
// Without a GPU every mode runs on the CPU, on Apple Silicon through CoreML. With a GPU the fluid
// mode runs on CUDA, and the trt_* modes run on TensorRT with CUDA as the fallback for the nodes
// TensorRT rejects. An OpenVINO device replaces both, with the CPU as the fallback; trt_fp16 then
// selects FP16 precision.
//
// Arguments:
//   - args: The run mode and device selection.
//
// Returns:
//   - []ProviderOptions: The providers to append, in order.
func ProvidersForMode(args ModeArgs) []ProviderOptions {
	if args.OpenVINODevice != "" {
		precision := "FP32"
		if args.Mode == RunModeTRTFP16 {
			precision = "FP16"
		}
		return []ProviderOptions{
			OpenVINOOptions{DeviceType: args.OpenVINODevice, Precision: precision},
			CPUOptions{},
		}
	}

	if !args.UseGPU {
		if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
			return []ProviderOptions{CoreMLOptions{}, CPUOptions{}}
		}
		return []ProviderOptions{CPUOptions{}}
	}

	cuda := CUDAOptions{DeviceID: args.DeviceID}
	if !args.Mode.IsTensorRT() {
		return []ProviderOptions{cuda}
	}

	return []ProviderOptions{
		TensorRTOptions{
			DeviceID:        args.DeviceID,
			FP16:            args.Mode == RunModeTRTFP16,
			INT8:            args.Mode == RunModeTRTINT8,
			MinSubgraphSize: args.MinSubgraphSize,
		},
		cuda,
	}
}
