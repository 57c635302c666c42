package models

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishcareyolo/mina/models/model"
)

func TestNewModel(t *testing.T) {
	tests := []struct {
		name    string
		config  func() model.Config
		wantErr error
	}{
		{
			name:   "fish disease detector",
			config: func() model.Config { return model.DefaultConfig("fish.onnx") },
		},
		{
			name: "empty name selects the default",
			config: func() model.Config {
				c := model.DefaultConfig("fish.onnx")
				c.Name = ""
				return c
			},
		},
		{
			name: "unknown name",
			config: func() model.Config {
				c := model.DefaultConfig("fish.onnx")
				c.Name = "rfdetr"
				return c
			},
			wantErr: ErrUnsupportedModel,
		},
		{
			name: "invalid thresholds",
			config: func() model.Config {
				c := model.DefaultConfig("fish.onnx")
				c.ConfidenceThreshold = 1.5
				return c
			},
			wantErr: model.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewModel(tt.config())
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.ModelNameFishDisease, m.Options().Name)
			assert.Equal(t, model.ModelFamilyYOLO, m.Options().Family)
		})
	}
}
