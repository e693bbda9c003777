// Package providers - Session options for optimized ONNX inference
package providers

import (
	"runtime"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// OptimizationConfig contains the ONNX Runtime session settings that are not tied to a provider.
type OptimizationConfig struct {
	// GraphOptimizationLevel controls the level of graph optimization
	GraphOptimizationLevel ort.GraphOptimizationLevel `json:"graph_optimization_level"`

	// ExecutionMode controls sequential vs parallel execution
	ExecutionMode ort.ExecutionMode `json:"execution_mode"`

	// IntraOpNumThreads sets threads for parallelizing ops. Zero lets ONNX Runtime decide.
	IntraOpNumThreads int `json:"intra_op_num_threads"`

	// InterOpNumThreads sets threads for parallelizing independent ops. Zero lets ONNX Runtime
	// decide.
	InterOpNumThreads int `json:"inter_op_num_threads"`
}

// DefaultOptimizationConfig returns the settings used for detection sessions.
func DefaultOptimizationConfig() OptimizationConfig {
	numCPU := runtime.NumCPU()

	return OptimizationConfig{
		GraphOptimizationLevel: ort.GraphOptimizationLevelEnableExtended,
		ExecutionMode:          ort.ExecutionModeSequential,
		IntraOpNumThreads:      maxInt(1, numCPU/2),
		InterOpNumThreads:      1,
	}
}

// newSessionOptions creates session options with the given settings and providers.
//
// Arguments:
//   - config: Optimization configuration to apply
//   - providers: Execution providers, most preferred first
//
// Returns:
//   - *ort.SessionOptions: Configured session options. The caller must Destroy them.
//   - error: Configuration error if any
func newSessionOptions(config OptimizationConfig, providers []ProviderOptions) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "create session options")
	}

	if err := applyOptimization(options, config); err != nil {
		options.Destroy()
		return nil, err
	}

	for _, p := range providers {
		if err := p.apply(options); err != nil {
			options.Destroy()
			return nil, errors.Wrapf(err, "configure %s provider", p.Backend())
		}
	}
	return options, nil
}

func applyOptimization(options *ort.SessionOptions, config OptimizationConfig) error {
	if err := options.SetGraphOptimizationLevel(config.GraphOptimizationLevel); err != nil {
		return errors.Wrap(err, "set graph optimization level")
	}
	if err := options.SetExecutionMode(config.ExecutionMode); err != nil {
		return errors.Wrap(err, "set execution mode")
	}
	if err := options.SetIntraOpNumThreads(config.IntraOpNumThreads); err != nil {
		return errors.Wrap(err, "set intra-op threads")
	}
	if err := options.SetInterOpNumThreads(config.InterOpNumThreads); err != nil {
		return errors.Wrap(err, "set inter-op threads")
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
