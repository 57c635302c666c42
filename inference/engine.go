package inference

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fishcareyolo/mina/diagnosis"
	"github.com/fishcareyolo/mina/images"
	"github.com/fishcareyolo/mina/inference/providers"
	"github.com/fishcareyolo/mina/logging"
	"github.com/fishcareyolo/mina/models"
	"github.com/fishcareyolo/mina/models/model"
)

// Engine runs photos through the model and returns diagnosed detections.
//
// An Engine holds no state beyond its model and runner. It is safe for
// concurrent use when the runner is; Session serializes runs itself.
type Engine struct {
	model  model.Model
	runner Runner
	logger *zap.SugaredLogger
}

// NewEngine creates an engine from a model and the runner that executes it.
func NewEngine(m model.Model, runner Runner, logger *zap.SugaredLogger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{model: m, runner: runner, logger: logger}
}

// Model returns the model the engine post-processes for.
func (e *Engine) Model() model.Model {
	return e.model
}

// Predict runs inference on the provided image.
//
// The pipeline is all-or-nothing: a cancelled context, a runtime failure or a
// shape mismatch between model and decoder returns an error and no detections.
//
// Arguments:
//   - ctx: Checked before and after the runtime call.
//   - img: The photo.
//
// Returns:
//   - diagnosis.InferenceResult: Detections, best first, and the wall time
//     from preprocessing to assembly.
//   - error: The first failure.
func (e *Engine) Predict(ctx context.Context, img image.Image) (diagnosis.InferenceResult, error) {
	if err := ctx.Err(); err != nil {
		return diagnosis.InferenceResult{}, err
	}
	start := time.Now()

	input, err := e.model.PreProcess(img)
	if err != nil {
		return diagnosis.InferenceResult{}, errors.Wrap(err, "failed to prepare input")
	}

	output, err := e.runner.Run(ctx, input)
	if err != nil {
		return diagnosis.InferenceResult{}, errors.Wrap(err, "inference failed")
	}
	if err := ctx.Err(); err != nil {
		return diagnosis.InferenceResult{}, err
	}

	bounds := img.Bounds()
	detections, err := e.model.PostProcess(output, bounds.Dx(), bounds.Dy())
	if err != nil {
		return diagnosis.InferenceResult{}, errors.Wrap(err, "inference failed")
	}

	result := diagnosis.InferenceResult{
		Detections:      detections,
		InferenceTimeMs: time.Since(start).Milliseconds(),
	}
	e.logger.Debugw("inference complete",
		"detections", len(detections),
		"inferenceTimeMs", result.InferenceTimeMs,
	)
	return result, nil
}

// PredictImage decodes JPEG, PNG or WebP bytes and runs Predict on them.
func (e *Engine) PredictImage(ctx context.Context, data []byte) (diagnosis.InferenceResult, error) {
	encoded, err := images.NewImage(data)
	if err != nil {
		return diagnosis.InferenceResult{}, err
	}
	img, err := encoded.Decode()
	if err != nil {
		return diagnosis.InferenceResult{}, err
	}
	return e.Predict(ctx, img)
}

// Close closes the runner if it holds native resources.
func (e *Engine) Close() error {
	if c, ok := e.runner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// EngineBuilder assembles an engine backed by an onnxruntime session.
type EngineBuilder struct {
	env          *Environment
	provider     providers.ExecutionProvider
	optimization providers.OptimizationConfig
	model        model.Model
	logger       *zap.SugaredLogger
	err          error
}

// NewEngineBuilder creates a new engine builder.
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{
		optimization: providers.DefaultOptimizationConfig(),
		logger:       logging.NewNop(),
	}
}

// WithEnvironment sets the onnxruntime environment sessions are created in.
func (b *EngineBuilder) WithEnvironment(env *Environment) *EngineBuilder {
	b.env = env
	return b
}

// WithProvider sets the execution provider by its options.
func (b *EngineBuilder) WithProvider(options providers.ProviderOptions) *EngineBuilder {
	if b.HasError() {
		return b
	}
	b.provider, b.err = providers.NewProvider(options)
	return b
}

// WithBackend sets the execution provider by name with default options.
func (b *EngineBuilder) WithBackend(name string) *EngineBuilder {
	if b.HasError() {
		return b
	}
	b.provider, b.err = providers.ParseBackend(name)
	return b
}

// WithOptimization overrides the session optimization settings.
func (b *EngineBuilder) WithOptimization(config providers.OptimizationConfig) *EngineBuilder {
	b.optimization = config
	return b
}

// WithModel sets the model.
func (b *EngineBuilder) WithModel(config model.Config) *EngineBuilder {
	if b.HasError() {
		return b
	}
	b.model, b.err = models.NewModel(config)
	return b
}

// WithLogger sets the logger.
func (b *EngineBuilder) WithLogger(logger *zap.SugaredLogger) *EngineBuilder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// HasError checks if the engine builder has errors.
func (b *EngineBuilder) HasError() bool {
	return b.err != nil
}

// Build loads the model into a session and returns the engine.
func (b *EngineBuilder) Build() (*Engine, error) {
	switch {
	case b.HasError():
		return nil, b.err
	case b.env == nil:
		return nil, errors.New("environment not configured")
	case b.model == nil:
		return nil, errors.New("model not configured")
	case b.provider == nil:
		b.provider = providers.NewCPUProvider(providers.CPUOptions{})
	}

	session, err := LoadModel(b.env, b.model, b.provider, b.optimization)
	if err != nil {
		return nil, err
	}
	b.logger.Infow("model loaded",
		"path", b.model.Options().Path,
		"provider", b.provider.Backend(),
		"input", b.model.InputShape(),
		"output", b.model.OutputShape(),
	)
	return NewEngine(b.model, session, b.logger), nil
}
