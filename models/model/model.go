// Package model - Definitions shared by every detection model the engine can run.
package model

import (
	"image"

	"github.com/pkg/errors"

	"github.com/fishcareyolo/mina/diagnosis"
	"github.com/fishcareyolo/mina/images"
	"github.com/fishcareyolo/mina/models/postprocess"
)

// Family is the family of models.
type Family string

const (
	// ModelFamilyYOLO is the YOLO model family.
	ModelFamilyYOLO Family = "yolo"
)

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNameFishDisease is the YOLOv8 fish disease detector.
	ModelNameFishDisease Name = "fish-disease-yolov8"
)

// Layout is the memory order of a model's raw output buffer.
type Layout string

const (
	// LayoutAnchorMajor stores one record of 5+C values per anchor.
	LayoutAnchorMajor Layout = "anchor-major"
	// LayoutChannelMajor stores one row of N anchors per channel, as in a
	// [1, 5+C, N] ONNX export.
	LayoutChannelMajor Layout = "channel-major"
)

// DefaultInputSize is the square input resolution the model was trained at.
const DefaultInputSize = 640

// ErrInvalidConfig is returned when a model configuration cannot be used.
var ErrInvalidConfig = errors.New("invalid model config")

// Config describes a model and how its output is post-processed.
type Config struct {
	Name                Name                  `json:"name" yaml:"name"`
	Family              Family                `json:"family" yaml:"family"`
	Path                string                `json:"path" yaml:"path"`
	InputWidth          int                   `json:"inputWidth" yaml:"inputWidth"`
	InputHeight         int                   `json:"inputHeight" yaml:"inputHeight"`
	ConfidenceThreshold float32               `json:"confidenceThreshold" yaml:"confidenceThreshold"`
	NMS                 postprocess.NMSConfig `json:"nms" yaml:"nms"`
	Layout              Layout                `json:"layout" yaml:"layout"`
	ChannelOrder        images.ChannelOrder   `json:"channelOrder" yaml:"channelOrder"`
	Inputs              []string              `json:"inputs" yaml:"inputs"`
	Outputs             []string              `json:"outputs" yaml:"outputs"`
}

// DefaultConfig returns the configuration of the fish disease detector at path.
//
// Arguments:
//   - path: The model file.
//
// Returns:
//   - Config: 640x640 CHW input, anchor-major output, confidence 0.3, IoU 0.45.
func DefaultConfig(path string) Config {
	return Config{
		Name:                ModelNameFishDisease,
		Family:              ModelFamilyYOLO,
		Path:                path,
		InputWidth:          DefaultInputSize,
		InputHeight:         DefaultInputSize,
		ConfidenceThreshold: postprocess.DefaultConfidenceThreshold,
		NMS:                 postprocess.DefaultNMSConfig(),
		Layout:              LayoutAnchorMajor,
		ChannelOrder:        images.ChannelOrderCHW,
		Inputs:              []string{"images"},
		Outputs:             []string{"output0"},
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.InputWidth <= 0 || c.InputHeight <= 0:
		return errors.Wrapf(ErrInvalidConfig, "input size %dx%d", c.InputWidth, c.InputHeight)
	case !(c.ConfidenceThreshold >= 0 && c.ConfidenceThreshold <= 1):
		return errors.Wrapf(ErrInvalidConfig, "confidence threshold %v", c.ConfidenceThreshold)
	case !(c.NMS.IoUThreshold > 0 && c.NMS.IoUThreshold <= 1):
		return errors.Wrapf(ErrInvalidConfig, "IoU threshold %v", c.NMS.IoUThreshold)
	case c.Layout != LayoutAnchorMajor && c.Layout != LayoutChannelMajor:
		return errors.Wrapf(ErrInvalidConfig, "layout %q", c.Layout)
	case len(c.Inputs) == 0:
		return errors.Wrap(ErrInvalidConfig, "model requires inputs to be set")
	case len(c.Outputs) == 0:
		return errors.Wrap(ErrInvalidConfig, "model requires outputs to be set")
	}
	return nil
}

// Model turns images into input tensors and raw output into detections.
type Model interface {
	Options() Config
	// InputShape is the tensor shape fed to the runtime.
	InputShape() []int64
	// OutputShape is the tensor shape the runtime writes.
	OutputShape() []int64
	PreProcess(img image.Image) ([]float32, error)
	PostProcess(output []float32, imageWidth, imageHeight int) ([]diagnosis.Detection, error)
}
