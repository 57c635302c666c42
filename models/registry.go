// Package models - registry for models.
package models

import (
	"github.com/pkg/errors"

	"github.com/fishcareyolo/mina/models/model"
	"github.com/fishcareyolo/mina/models/yolo"
)

// ErrUnsupportedModel is returned for a model name the registry does not know.
var ErrUnsupportedModel = errors.New("unsupported model")

// NewModel creates a new detection model instance based on the configured name.
//
// Arguments:
//   - config: The model configuration. An empty name selects the fish disease detector.
//
// Returns:
//   - model.Model: A configured model instance.
//   - error: ErrUnsupportedModel for unknown names, or a validation error.
//
// Example:
//
// ```go
//
//	m, err := NewModel(model.DefaultConfig("/models/fish_disease.onnx"))
//	if err != nil {
//	    log.Fatalf("Failed to create detection model: %v", err)
//	}
//
// ```
func NewModel(config model.Config) (model.Model, error) {
	switch config.Name {
	case model.ModelNameFishDisease, "":
		m, err := yolo.NewModel(config)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedModel, "%q", config.Name)
	}
}
