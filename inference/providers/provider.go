// Package providers - Execution providers for the onnxruntime session.
package providers

import (
	"strings"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend names an ONNX Runtime execution provider.
type ProviderBackend string

// ErrUnsupportedBackend is returned for a backend name with no provider.
var ErrUnsupportedBackend = errors.New("unsupported execution provider")

// ProviderOptions is a marker interface for provider-specific config.
type ProviderOptions interface {
	isProviderOptions()
}

// ExecutionProvider represents the contract that all execution providers must implement.
type ExecutionProvider interface {
	Backend() ProviderBackend
	Options() ProviderOptions
	// Append registers the provider on the session options.
	Append(options *ort.SessionOptions) error
}

// NewProvider creates a new provider from its options.
//
// Arguments:
//   - options: CPUOptions, CoreMLOptions or CUDAOptions.
//
// Returns:
//   - ExecutionProvider: The new provider.
//   - error: ErrUnsupportedBackend for any other options type.
func NewProvider(options ProviderOptions) (ExecutionProvider, error) {
	switch opts := options.(type) {
	case CPUOptions:
		return NewCPUProvider(opts), nil
	case CoreMLOptions:
		return NewCoreMLProvider(opts), nil
	case CUDAOptions:
		return NewCUDAProvider(opts), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedBackend, "options type %T", opts)
	}
}

// ParseBackend creates a provider with default options from its name.
// An empty name selects the CPU.
func ParseBackend(name string) (ExecutionProvider, error) {
	switch ProviderBackend(strings.ToLower(strings.TrimSpace(name))) {
	case CPUProviderBackend, "":
		return NewProvider(CPUOptions{})
	case CoreMLProviderBackend:
		return NewProvider(CoreMLOptions{})
	case CUDAProviderBackend:
		return NewProvider(CUDAOptions{})
	default:
		return nil, errors.Wrapf(ErrUnsupportedBackend, "%q", name)
	}
}
