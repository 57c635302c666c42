package inference

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishcareyolo/mina/diagnosis"
	"github.com/fishcareyolo/mina/logging"
	"github.com/fishcareyolo/mina/models/model"
	"github.com/fishcareyolo/mina/models/yolo"
)

type fakeRunner struct {
	output []float32
	err    error
	calls  int
	inputs int
	closed bool
	cancel context.CancelFunc
}

func (f *fakeRunner) Run(_ context.Context, input []float32) ([]float32, error) {
	f.calls++
	f.inputs = len(input)
	if f.cancel != nil {
		f.cancel()
	}
	return f.output, f.err
}

func (f *fakeRunner) Close() error {
	f.closed = true
	return nil
}

func record(cx, cy, w, h float32, class int, prob float32) []float32 {
	r := make([]float32, diagnosis.AnchorChannels())
	copy(r, []float32{cx, cy, w, h, 1})
	r[diagnosis.BoxChannels+class] = prob
	return r
}

func newTestEngine(t *testing.T, runner Runner) *Engine {
	t.Helper()
	cfg := model.DefaultConfig("fish.onnx")
	cfg.InputWidth, cfg.InputHeight = 32, 32
	m, err := yolo.NewModel(cfg)
	require.NoError(t, err)
	return NewEngine(m, runner, logging.NewTestLogger(t))
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 90, B: 160, A: 255})
		}
	}
	return img
}

func TestEnginePredict(t *testing.T) {
	var output []float32
	output = append(output, record(10, 10, 8, 8, 0, 0.9)...)
	output = append(output, record(11, 10, 8, 8, 0, 0.6)...)
	output = append(output, record(24, 24, 6, 6, 3, 0.7)...)
	output = append(output, record(5, 25, 4, 4, 2, 0.1)...)
	runner := &fakeRunner{output: output}
	engine := newTestEngine(t, runner)

	result, err := engine.Predict(context.Background(), testImage())
	require.NoError(t, err)

	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 3*32*32, runner.inputs)
	require.Len(t, result.Detections, 2)
	assert.Equal(t, "det_000", result.Detections[0].ID)
	assert.Equal(t, diagnosis.BacterialInfection, result.Detections[0].DiseaseClass)
	assert.Equal(t, "det_001", result.Detections[1].ID)
	assert.Equal(t, diagnosis.Parasite, result.Detections[1].DiseaseClass)
	assert.GreaterOrEqual(t, result.InferenceTimeMs, int64(0))

	require.NoError(t, engine.Close())
	assert.True(t, runner.closed)
}

func TestEnginePredictImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))

	engine := newTestEngine(t, &fakeRunner{output: record(16, 16, 8, 8, 4, 0.8)})
	result, err := engine.PredictImage(context.Background(), buf.Bytes())
	require.NoError(t, err)
	require.Len(t, result.Detections, 1)
	assert.Equal(t, diagnosis.WhiteTail, result.Detections[0].DiseaseClass)

	_, err = engine.PredictImage(context.Background(), []byte("not an image"))
	assert.Error(t, err)
}

func TestEnginePredictFailures(t *testing.T) {
	t.Run("cancelled before run", func(t *testing.T) {
		runner := &fakeRunner{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestEngine(t, runner).Predict(ctx, testImage())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, runner.calls)
	})

	t.Run("cancelled during run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		runner := &fakeRunner{output: record(10, 10, 8, 8, 0, 0.9), cancel: cancel}

		result, err := newTestEngine(t, runner).Predict(ctx, testImage())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, result.Detections)
	})

	t.Run("runtime error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := newTestEngine(t, &fakeRunner{err: boom}).Predict(context.Background(), testImage())
		assert.True(t, errors.Is(err, boom))
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := newTestEngine(t, &fakeRunner{output: make([]float32, 13)}).Predict(context.Background(), testImage())
		assert.True(t, errors.Is(err, yolo.ErrShapeMismatch))
	})
}

func TestEngineBuilderRequiresEnvironmentAndModel(t *testing.T) {
	_, err := NewEngineBuilder().WithModel(model.DefaultConfig("fish.onnx")).Build()
	assert.EqualError(t, err, "environment not configured")

	_, err = NewEngineBuilder().WithEnvironment(&Environment{}).Build()
	assert.EqualError(t, err, "model not configured")

	_, err = NewEngineBuilder().WithBackend("tpu").WithEnvironment(&Environment{}).Build()
	assert.Error(t, err)
}

func TestNewEnvironmentMissingLibrary(t *testing.T) {
	_, err := NewEnvironment(t.TempDir() + "/missing.so")
	assert.True(t, errors.Is(err, ErrLibraryNotFound))
}
