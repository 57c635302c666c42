// Package config - Environment driven settings for the mina CLI.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/fishcareyolo/mina/models/model"
	"github.com/fishcareyolo/mina/models/postprocess"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting read from the environment.
type Config struct {
	// Root directory for models, history images and the database.
	DataDir string
	// Release channel to download models from: dev or prod.
	ModelChannel string
	// Local model file. Defaults to <DataDir>/models/<channel>_model.onnx.
	ModelPath string
	// Square model input resolution.
	InputSize           int
	ConfidenceThreshold float32
	IoUThreshold        float32
	// SQLite database file. Defaults to <DataDir>/mina.db.
	DBPath   string
	LogLevel string
	// onnxruntime shared library; empty uses the platform default.
	ORTLibrary string
	// Execution provider: cpu, coreml or cuda.
	Provider string
	// GitHub repository that publishes model releases.
	ReleaseRepo string
	// Model file name among the release assets.
	ModelAsset string
	// GitHub API and download hosts.
	GitHubAPIURL string
	GitHubURL    string
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "load %s", p)
		}
	}
	return nil
}

// Load reads the configuration from the environment with defaults.
func Load() *Config {
	cfg := &Config{
		DataDir:             getEnv("MINA_DATA_DIR", filepath.Join(".", "data")),
		ModelChannel:        parseChannel(getEnv("MINA_MODEL_CHANNEL", "prod")),
		ModelPath:           getEnv("MINA_MODEL_PATH", ""),
		InputSize:           getEnvAsInt("MINA_INPUT_SIZE", model.DefaultInputSize),
		ConfidenceThreshold: getEnvAsFloat32("MINA_CONFIDENCE_THRESHOLD", postprocess.DefaultConfidenceThreshold),
		IoUThreshold:        getEnvAsFloat32("MINA_IOU_THRESHOLD", postprocess.DefaultIoUThreshold),
		DBPath:              getEnv("MINA_DB_PATH", ""),
		LogLevel:            getEnv("MINA_LOG_LEVEL", "info"),
		ORTLibrary:          getEnv("MINA_ORT_LIBRARY", ""),
		Provider:            getEnv("MINA_PROVIDER", "cpu"),
		ReleaseRepo:         getEnv("MINA_RELEASE_REPO", "fishcareyolo/fishcareyolo"),
		ModelAsset:          getEnv("MINA_MODEL_ASSET", "best.onnx"),
		GitHubAPIURL:        getEnv("MINA_GITHUB_API_URL", "https://api.github.com"),
		GitHubURL:           getEnv("MINA_GITHUB_URL", "https://github.com"),
	}

	if cfg.ModelPath == "" {
		cfg.ModelPath = filepath.Join(cfg.ModelDir(), cfg.ModelChannel+"_model.onnx")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "mina.db")
	}
	return cfg
}

// ModelDir is the directory downloaded models and their metadata live in.
func (c *Config) ModelDir() string {
	return filepath.Join(c.DataDir, "models")
}

// HistoryDir is the directory history item images are copied into.
func (c *Config) HistoryDir() string {
	return filepath.Join(c.DataDir, "history")
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.InputSize <= 0 || c.InputSize%32 != 0:
		return errors.Wrapf(ErrInvalid, "MINA_INPUT_SIZE must be a positive multiple of 32, got %d", c.InputSize)
	case !(c.ConfidenceThreshold >= 0 && c.ConfidenceThreshold <= 1):
		return errors.Wrapf(ErrInvalid, "MINA_CONFIDENCE_THRESHOLD must be in [0, 1], got %v", c.ConfidenceThreshold)
	case !(c.IoUThreshold > 0 && c.IoUThreshold <= 1):
		return errors.Wrapf(ErrInvalid, "MINA_IOU_THRESHOLD must be in (0, 1], got %v", c.IoUThreshold)
	case c.DataDir == "":
		return errors.Wrap(ErrInvalid, "MINA_DATA_DIR must not be empty")
	}
	return nil
}

// ModelConfig returns the model configuration these settings describe.
func (c *Config) ModelConfig() model.Config {
	m := model.DefaultConfig(c.ModelPath)
	m.InputWidth = c.InputSize
	m.InputHeight = c.InputSize
	m.ConfidenceThreshold = c.ConfidenceThreshold
	m.NMS.IoUThreshold = c.IoUThreshold
	return m
}

// parseChannel falls back to prod for anything but dev.
func parseChannel(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "dev") {
		return "dev"
	}
	return "prod"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}
