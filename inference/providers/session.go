// Package providers - Inference sessions.
package providers

import (
	"context"

	"github.com/nvr-ai/go-detect/inference"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// NewSessionArgs represents the arguments for creating a new ONNX detector session.
type NewSessionArgs struct {
	// The path to the ONNX model file.
	ModelPath string
	// Execution providers, most preferred first. Empty runs on the CPU.
	Providers []ProviderOptions
	// Session settings. The zero value selects DefaultOptimizationConfig.
	Optimization *OptimizationConfig
}

// Session is an inference.Executor backed by an ONNX Runtime session.
//
// Input and output tensors are created per Run call, so a Session serves concurrent callers.
type Session struct {
	session *ort.DynamicAdvancedSession
	inputs  []ort.InputOutputInfo
	outputs []ort.InputOutputInfo
}

var _ inference.Executor = (*Session)(nil)

// NewSession creates a new ONNX detector session.
//
// The model is inspected for its declared inputs and outputs so that inputs can be bound by name
// and converted to the element type each slot expects. Initialize must have been called.
//
// Arguments:
//   - args: The arguments for the session.
//
// Returns:
//   - *Session: The session. The caller must Close it.
//   - error: An error if the model cannot be loaded.
func NewSession(args NewSessionArgs) (*Session, error) {
	if !ort.IsInitialized() {
		return nil, errors.New("ONNX Runtime environment is not initialized")
	}

	inputs, outputs, err := ort.GetInputOutputInfo(args.ModelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "inspect model %s", args.ModelPath)
	}
	if len(outputs) == 0 {
		return nil, errors.Errorf("model %s declares no outputs", args.ModelPath)
	}

	config := DefaultOptimizationConfig()
	if args.Optimization != nil {
		config = *args.Optimization
	}
	providers := args.Providers
	if len(providers) == 0 {
		providers = []ProviderOptions{CPUOptions{}}
	}

	options, err := newSessionOptions(config, providers)
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		args.ModelPath,
		infoNames(inputs),
		infoNames(outputs),
		options,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "create session for %s", args.ModelPath)
	}

	return &Session{session: session, inputs: inputs, outputs: outputs}, nil
}

// InputNames implements inference.Executor.
func (s *Session) InputNames() []string { return infoNames(s.inputs) }

// OutputNames implements inference.Executor.
func (s *Session) OutputNames() []string { return infoNames(s.outputs) }

// Run implements inference.Executor.
//
// Every declared input must be bound. The context is checked once before the run starts; a run
// in progress is not interrupted.
func (s *Session) Run(ctx context.Context, inputs []inference.Tensor) ([]inference.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bound := make(map[string]inference.Tensor, len(inputs))
	for _, t := range inputs {
		bound[t.Name] = t
	}

	values := make([]ort.Value, len(s.inputs))
	defer destroyValues(values)
	for i, info := range s.inputs {
		t, ok := bound[info.Name]
		if !ok {
			return nil, errors.Errorf("input %q is not bound", info.Name)
		}
		v, err := toValue(t, info.DataType)
		if err != nil {
			return nil, errors.Wrapf(err, "input %q", info.Name)
		}
		values[i] = v
	}

	results := make([]ort.Value, len(s.outputs))
	defer destroyValues(results)
	if err := s.session.Run(values, results); err != nil {
		return nil, errors.Wrap(err, "run session")
	}

	out := make([]inference.Tensor, len(results))
	for i, v := range results {
		t, err := fromValue(s.outputs[i].Name, v)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// Close releases the native session.
func (s *Session) Close() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return errors.Wrap(err, "destroy session")
}

func infoNames(infos []ort.InputOutputInfo) []string {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}

func destroyValues(values []ort.Value) {
	for _, v := range values {
		if v != nil {
			v.Destroy()
		}
	}
}

// toValue creates a native tensor of the element type the slot declares.
func toValue(t inference.Tensor, want ort.TensorElementDataType) (ort.Value, error) {
	shape := ort.NewShape(t.Shape...)
	switch want {
	case ort.TensorElementDataTypeFloat:
		if t.Float != nil {
			return ort.NewTensor(shape, t.Float)
		}
		return ort.NewTensor(shape, convert[int32, float32](t.Int))
	case ort.TensorElementDataTypeInt32:
		if t.Int != nil {
			return ort.NewTensor(shape, t.Int)
		}
		return ort.NewTensor(shape, convert[float32, int32](t.Float))
	case ort.TensorElementDataTypeInt64:
		if t.Int != nil {
			return ort.NewTensor(shape, convert[int32, int64](t.Int))
		}
		return ort.NewTensor(shape, convert[float32, int64](t.Float))
	default:
		return nil, errors.Errorf("unsupported element type %v", want)
	}
}

// fromValue copies a native output tensor out of ONNX Runtime memory.
func fromValue(name string, v ort.Value) (inference.Tensor, error) {
	switch tv := v.(type) {
	case *ort.Tensor[float32]:
		return inference.Tensor{Name: name, Shape: tv.GetShape(), Float: append([]float32(nil), tv.GetData()...)}, nil
	case *ort.Tensor[float64]:
		return inference.Tensor{Name: name, Shape: tv.GetShape(), Float: convert[float64, float32](tv.GetData())}, nil
	case *ort.Tensor[int32]:
		return inference.Tensor{Name: name, Shape: tv.GetShape(), Int: append([]int32(nil), tv.GetData()...)}, nil
	case *ort.Tensor[int64]:
		return inference.Tensor{Name: name, Shape: tv.GetShape(), Int: convert[int64, int32](tv.GetData())}, nil
	default:
		return inference.Tensor{}, errors.Errorf("output %q has unsupported type %T", name, v)
	}
}

type number interface {
	~int32 | ~int64 | ~float32 | ~float64
}

func convert[From, To number](src []From) []To {
	dst := make([]To, len(src))
	for i, v := range src {
		dst[i] = To(v)
	}
	return dst
}
