// Package providers - CPU based execution provider.
package providers

import ort "github.com/yalue/onnxruntime_go"

// CPUOptions selects the default CPU provider. ONNX Runtime always registers it, so applying it
// is a no-op.
type CPUOptions struct{}

// Backend implements ProviderOptions.
func (CPUOptions) Backend() ProviderBackend { return CPUProviderBackend }

func (CPUOptions) apply(*ort.SessionOptions) error { return nil }
