package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"MINA_DATA_DIR", "MINA_MODEL_CHANNEL", "MINA_MODEL_PATH", "MINA_INPUT_SIZE",
	"MINA_CONFIDENCE_THRESHOLD", "MINA_IOU_THRESHOLD", "MINA_DB_PATH",
	"MINA_LOG_LEVEL", "MINA_ORT_LIBRARY", "MINA_PROVIDER", "MINA_RELEASE_REPO",
	"MINA_MODEL_ASSET", "MINA_GITHUB_API_URL", "MINA_GITHUB_URL",
}

// clearEnv blanks every setting for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, filepath.Join(".", "data"), cfg.DataDir)
	assert.Equal(t, "prod", cfg.ModelChannel)
	assert.Equal(t, filepath.Join("data", "models", "prod_model.onnx"), cfg.ModelPath)
	assert.Equal(t, filepath.Join("data", "mina.db"), cfg.DBPath)
	assert.Equal(t, 640, cfg.InputSize)
	assert.Equal(t, float32(0.3), cfg.ConfidenceThreshold)
	assert.Equal(t, float32(0.45), cfg.IoUThreshold)
	assert.Equal(t, "cpu", cfg.Provider)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("MINA_DATA_DIR", dir)
	t.Setenv("MINA_MODEL_CHANNEL", "DEV")
	t.Setenv("MINA_INPUT_SIZE", "320")
	t.Setenv("MINA_CONFIDENCE_THRESHOLD", "0.5")
	t.Setenv("MINA_IOU_THRESHOLD", "not a number")

	cfg := Load()
	assert.Equal(t, "dev", cfg.ModelChannel)
	assert.Equal(t, filepath.Join(dir, "models", "dev_model.onnx"), cfg.ModelPath)
	assert.Equal(t, filepath.Join(dir, "history"), cfg.HistoryDir())
	assert.Equal(t, 320, cfg.InputSize)
	assert.Equal(t, float32(0.5), cfg.ConfidenceThreshold)
	assert.Equal(t, float32(0.45), cfg.IoUThreshold, "unparsable values fall back to the default")

	m := cfg.ModelConfig()
	assert.Equal(t, 320, m.InputWidth)
	assert.Equal(t, 320, m.InputHeight)
	assert.Equal(t, float32(0.5), m.ConfidenceThreshold)
	assert.Equal(t, float32(0.45), m.NMS.IoUThreshold)
	assert.Equal(t, cfg.ModelPath, m.Path)
	require.NoError(t, m.Validate())
}

func TestUnknownChannelFallsBackToProd(t *testing.T) {
	clearEnv(t)
	t.Setenv("MINA_MODEL_CHANNEL", "nightly")
	assert.Equal(t, "prod", Load().ModelChannel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "input size not a multiple of 32", mutate: func(c *Config) { c.InputSize = 600 }},
		{name: "zero input size", mutate: func(c *Config) { c.InputSize = 0 }},
		{name: "confidence above one", mutate: func(c *Config) { c.ConfidenceThreshold = 1.2 }},
		{name: "negative confidence", mutate: func(c *Config) { c.ConfidenceThreshold = -0.1 }},
		{name: "zero IoU", mutate: func(c *Config) { c.IoUThreshold = 0 }},
		{name: "empty data dir", mutate: func(c *Config) { c.DataDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := Load()
			tt.mutate(cfg)
			assert.True(t, errors.Is(cfg.Validate(), ErrInvalid))
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MINA_PROVIDER=coreml\nMINA_LOG_LEVEL=debug\n"), 0o600))
	// godotenv does not override variables that are already set.
	require.NoError(t, os.Unsetenv("MINA_PROVIDER"))
	t.Setenv("MINA_LOG_LEVEL", "warn")

	require.NoError(t, LoadEnvFiles(path, filepath.Join(t.TempDir(), "missing.env")))
	t.Cleanup(func() { os.Unsetenv("MINA_PROVIDER") })

	cfg := Load()
	assert.Equal(t, "coreml", cfg.Provider)
	assert.Equal(t, "warn", cfg.LogLevel)
}
