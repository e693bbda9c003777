// Package providers - CoreML based execution provider.
package providers

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// CoreML provider flags.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
const (
	coreMLFlagUseCPUOnly           uint32 = 0x001
	coreMLFlagEnableOnSubgraph     uint32 = 0x002
	coreMLFlagOnlyEnableDeviceANE  uint32 = 0x004
	coreMLFlagOnlyAllowStaticShape uint32 = 0x008
	coreMLFlagCreateMLProgram      uint32 = 0x010
)

// CoreMLOptions contains arguments for the CoreML provider.
type CoreMLOptions struct {
	// Limit CoreML to running on CPU only.
	UseCPUOnly bool `json:"useCPUOnly"               yaml:"useCPUOnly"`
	// Enable CoreML EP to run on a subgraph in the body of a control flow operator.
	EnableOnSubgraphs bool `json:"enableOnSubgraphs"        yaml:"enableOnSubgraphs"`
	// Only run on devices with an Apple Neural Engine.
	OnlyEnableDeviceWithANE bool `json:"onlyEnableDeviceWithANE"  yaml:"onlyEnableDeviceWithANE"`
	// Only allow the CoreML EP to take nodes with inputs that have static shapes.
	RequireStaticInputShapes bool `json:"requireStaticInputShapes" yaml:"requireStaticInputShapes"`
	// Create an MLProgram format model. Requires Core ML 5 or later (iOS 15+ or macOS 12+).
	MLProgram bool `json:"mlProgram"                yaml:"mlProgram"`
}

// Backend implements ProviderOptions.
func (CoreMLOptions) Backend() ProviderBackend { return CoreMLProviderBackend }

func (o CoreMLOptions) flags() uint32 {
	var flags uint32
	if o.UseCPUOnly {
		flags |= coreMLFlagUseCPUOnly
	}
	if o.EnableOnSubgraphs {
		flags |= coreMLFlagEnableOnSubgraph
	}
	if o.OnlyEnableDeviceWithANE {
		flags |= coreMLFlagOnlyEnableDeviceANE
	}
	if o.RequireStaticInputShapes {
		flags |= coreMLFlagOnlyAllowStaticShape
	}
	if o.MLProgram {
		flags |= coreMLFlagCreateMLProgram
	}
	return flags
}

func (o CoreMLOptions) apply(options *ort.SessionOptions) error {
	if err := options.AppendExecutionProviderCoreML(o.flags()); err != nil {
		return errors.Wrap(err, "enable CoreML")
	}
	return nil
}
