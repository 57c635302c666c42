// Package yolo - YOLOv8 fish disease detector.
package yolo

import (
	"image"

	"github.com/pkg/errors"

	"github.com/fishcareyolo/mina/diagnosis"
	"github.com/fishcareyolo/mina/images"
	"github.com/fishcareyolo/mina/models/model"
)

// YOLO is the instance of the YOLOv8 fish disease model.
type YOLO struct {
	options model.Config
}

// NewModel creates a new model.
//
// Arguments:
//   - config: The model configuration.
//
// Returns:
//   - *YOLO: The model.
//   - error: When the configuration is invalid.
func NewModel(config model.Config) (*YOLO, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = model.ModelNameFishDisease
	}
	config.Family = model.ModelFamilyYOLO
	return &YOLO{options: config}, nil
}

// Options returns the options for the YOLO model.
func (m *YOLO) Options() model.Config {
	return m.options
}

// InputShape returns [1, 3, H, W] for CHW input or [1, H, W, 3] for HWC.
func (m *YOLO) InputShape() []int64 {
	h, w := int64(m.options.InputHeight), int64(m.options.InputWidth)
	if m.options.ChannelOrder == images.ChannelOrderHWC {
		return []int64{1, h, w, 3}
	}
	return []int64{1, 3, h, w}
}

// OutputShape returns the shape of the raw output tensor for the configured layout.
func (m *YOLO) OutputShape() []int64 {
	// YOLOv8 grids are square; the longer side bounds the anchor count.
	size := max(m.options.InputWidth, m.options.InputHeight)
	anchors := int64(AnchorCount(size))
	channels := int64(diagnosis.AnchorChannels())
	if m.options.Layout == model.LayoutChannelMajor {
		return []int64{1, channels, anchors}
	}
	return []int64{1, anchors, channels}
}

// PreProcess resizes img to the model input and converts it to a float tensor.
func (m *YOLO) PreProcess(img image.Image) ([]float32, error) {
	data, err := images.ToTensor(img, m.options.InputWidth, m.options.InputHeight, m.options.ChannelOrder)
	if err != nil {
		return nil, errors.Wrap(err, "preprocess")
	}
	return data, nil
}
