package inference

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"

	"github.com/fishcareyolo/mina/inference/providers"
	"github.com/fishcareyolo/mina/models/model"
)

// ErrSessionClosed is returned by Run after Close.
var ErrSessionClosed = errors.New("session closed")

// Runner executes the model on one preprocessed input tensor.
type Runner interface {
	Run(ctx context.Context, input []float32) ([]float32, error)
}

// Session is a loaded model with its preallocated input and output tensors.
//
// The tensors are bound to the native session, so Run calls are serialized.
type Session struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// LoadModel creates an onnxruntime session for m.
//
// Order of operations:
//  1. Tensor allocation: fixed-shape buffers from the model's input and output shapes.
//  2. Session options: graph optimization, threading and the execution provider.
//  3. Session creation: loads the model file and binds the tensors.
//
// Arguments:
//   - env: The initialized environment.
//   - m: The model; its Options().Path, Inputs and Outputs name the file and tensors.
//   - provider: The execution provider.
//   - config: Graph optimization and threading settings.
//
// Returns:
//   - *Session: The session. The caller must Close it.
//   - error: If any native resource cannot be created.
func LoadModel(env *Environment, m model.Model, provider providers.ExecutionProvider, config providers.OptimizationConfig) (*Session, error) {
	if env == nil {
		return nil, errors.New("onnxruntime environment not initialized")
	}
	opts := m.Options()

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(m.InputShape()...))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(m.OutputShape()...))
	if err != nil {
		return nil, multierr.Append(errors.Wrap(err, "error creating output tensor"), input.Destroy())
	}

	options, err := providers.NewSessionOptions(provider, config)
	if err != nil {
		return nil, multierr.Combine(err, input.Destroy(), output.Destroy())
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(
		opts.Path,
		opts.Inputs[:1],
		opts.Outputs[:1],
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		return nil, multierr.Combine(
			errors.Wrapf(err, "error creating ORT session for %s", opts.Path),
			input.Destroy(),
			output.Destroy(),
		)
	}

	return &Session{session: session, input: input, output: output}, nil
}

// Run copies input into the bound input tensor, runs the model and returns a
// copy of the output tensor.
func (s *Session) Run(ctx context.Context, input []float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst := s.input.GetData()
	if len(input) != len(dst) {
		return nil, errors.Errorf("input tensor holds %d floats, got %d", len(dst), len(input))
	}
	copy(dst, input)

	if err := s.session.Run(); err != nil {
		return nil, errors.Wrap(err, "failed to run inference")
	}

	out := make([]float32, len(s.output.GetData()))
	copy(out, s.output.GetData())
	return out, nil
}

// Close releases the native session and tensors. It is safe to call twice.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.session != nil {
		err = multierr.Append(err, errors.Wrap(s.session.Destroy(), "error destroying ORT session"))
		s.session = nil
	}
	if s.input != nil {
		err = multierr.Append(err, s.input.Destroy())
		s.input = nil
	}
	if s.output != nil {
		err = multierr.Append(err, s.output.Destroy())
		s.output = nil
	}
	return err
}
