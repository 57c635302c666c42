package providers

import (
	"runtime"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"
)

// OptimizationConfig contains the ONNX Runtime session settings.
type OptimizationConfig struct {
	// GraphOptimizationLevel controls the level of graph optimization.
	GraphOptimizationLevel ort.GraphOptimizationLevel `json:"graph_optimization_level"`
	// IntraOpNumThreads sets threads for parallelizing ops. Zero lets onnxruntime decide.
	IntraOpNumThreads int `json:"intra_op_num_threads"`
	// InterOpNumThreads sets threads for parallelizing independent ops.
	InterOpNumThreads int `json:"inter_op_num_threads"`
}

// DefaultOptimizationConfig returns extended graph optimization with half the
// CPUs for intra-op work. One photo at a time needs no inter-op parallelism.
func DefaultOptimizationConfig() OptimizationConfig {
	return OptimizationConfig{
		GraphOptimizationLevel: ort.GraphOptimizationLevelEnableExtended,
		IntraOpNumThreads:      max(1, runtime.NumCPU()/2),
		InterOpNumThreads:      1,
	}
}

// NewSessionOptions creates session options for the provider.
//
// Arguments:
//   - provider: The execution provider to enable.
//   - config: Graph optimization and threading settings.
//
// Returns:
//   - *ort.SessionOptions: The options. The caller must Destroy them.
//   - error: If any setting is rejected by onnxruntime.
func NewSessionOptions(provider ExecutionProvider, config OptimizationConfig) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "error creating ORT session options")
	}

	err = multierr.Combine(
		options.SetGraphOptimizationLevel(config.GraphOptimizationLevel),
		options.SetIntraOpNumThreads(config.IntraOpNumThreads),
		options.SetInterOpNumThreads(config.InterOpNumThreads),
	)
	if err == nil {
		err = provider.Append(options)
	}
	if err != nil {
		return nil, multierr.Append(errors.Wrapf(err, "configure %s session", provider.Backend()), options.Destroy())
	}

	return options, nil
}
