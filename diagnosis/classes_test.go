package diagnosis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiseaseClassOrder(t *testing.T) {
	assert.Equal(t, []DiseaseClass{
		"bacterial_infection",
		"fungal_infection",
		"healthy",
		"parasite",
		"white_tail",
	}, DiseaseClasses)
	assert.Equal(t, 5, NumClasses())
	assert.Equal(t, 10, AnchorChannels())
}

func TestClassAt(t *testing.T) {
	for i, want := range DiseaseClasses {
		got, err := ClassAt(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, i, got.Index())
	}

	for _, idx := range []int{-1, 5, 99} {
		_, err := ClassAt(idx)
		assert.ErrorIs(t, err, ErrUnknownClassIndex)
	}
}

func TestIsValidDiseaseClass(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{in: "healthy", want: true},
		{in: "white_tail", want: true},
		{in: "Healthy", want: false},
		{in: " healthy", want: false},
		{in: "", want: false},
		{in: "rabies", want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidDiseaseClass(tt.in), tt.in)
	}
}

func TestCheckChannelCount(t *testing.T) {
	assert.NoError(t, CheckChannelCount(10))
	assert.ErrorIs(t, CheckChannelCount(9), ErrChannelCount)
	assert.ErrorIs(t, CheckChannelCount(84), ErrChannelCount)
}
