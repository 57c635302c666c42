package postprocess

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishcareyolo/mina/diagnosis"
	"github.com/fishcareyolo/mina/images"
)

func box(x, y, w, h float32) images.Box {
	return images.Box{X: x, Y: y, Width: w, Height: h}
}

func candidates() []RawDetection {
	return []RawDetection{
		{Class: 0, Score: 0.12, Box: box(0.1, 0.1, 0.2, 0.2)},
		{Class: 1, Score: 0.30, Box: box(0.2, 0.2, 0.2, 0.2)},
		{Class: 2, Score: 0.55, Box: box(0.3, 0.3, 0.2, 0.2)},
		{Class: 3, Score: 0.29, Box: box(0.4, 0.4, 0.2, 0.2)},
		{Class: 4, Score: 0.91, Box: box(0.5, 0.5, 0.2, 0.2)},
	}
}

func TestFilterByConfidence(t *testing.T) {
	tests := []struct {
		name      string
		threshold float32
		want      []float32
	}{
		{name: "default threshold is inclusive", threshold: DefaultConfidenceThreshold, want: []float32{0.30, 0.55, 0.91}},
		{name: "zero keeps everything", threshold: 0, want: []float32{0.12, 0.30, 0.55, 0.29, 0.91}},
		{name: "above every score", threshold: 0.95, want: []float32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByConfidence(candidates(), tt.threshold)
			scores := make([]float32, 0, len(got))
			for _, d := range got {
				scores = append(scores, d.Score)
			}
			assert.Equal(t, tt.want, scores)
		})
	}
}

func TestFilterByConfidenceMonotonic(t *testing.T) {
	in := candidates()
	thresholds := []float32{0, 0.1, 0.29, 0.3, 0.5, 0.9, 1}

	for i := 0; i < len(thresholds)-1; i++ {
		loose := FilterByConfidence(in, thresholds[i])
		strict := FilterByConfidence(in, thresholds[i+1])
		assert.Subset(t, loose, strict, "threshold %v should keep a subset of %v", thresholds[i+1], thresholds[i])
	}
}

func TestFilterByConfidenceIdempotent(t *testing.T) {
	once := FilterByConfidence(candidates(), DefaultConfidenceThreshold)
	twice := FilterByConfidence(once, DefaultConfidenceThreshold)
	assert.Equal(t, once, twice)
}

func TestFilterByConfidenceEmpty(t *testing.T) {
	assert.Empty(t, FilterByConfidence(nil, DefaultConfidenceThreshold))
}

func TestSortByConfidence(t *testing.T) {
	in := []RawDetection{
		{Class: 0, Score: 0.5},
		{Class: 1, Score: 0.9},
		{Class: 2, Score: 0.5},
		{Class: 3, Score: 0.7},
		{Class: 4, Score: 0.5},
	}
	original := append([]RawDetection(nil), in...)

	got := SortByConfidence(in)

	require.Len(t, got, len(in))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	// Ties keep input order.
	assert.Equal(t, []int{1, 3, 0, 2, 4}, []int{got[0].Class, got[1].Class, got[2].Class, got[3].Class, got[4].Class})
	assert.Equal(t, original, in, "input must not be reordered")
	assert.Empty(t, SortByConfidence(nil))
}

func TestApplyNMS(t *testing.T) {
	tests := []struct {
		name   string
		in     []RawDetection
		config NMSConfig
		want   []float32
	}{
		{
			name: "same class overlap suppresses the lower score",
			in: []RawDetection{
				{Class: 0, Score: 0.6, Box: box(0.1, 0.1, 0.4, 0.4)},
				{Class: 0, Score: 0.95, Box: box(0.12, 0.12, 0.4, 0.4)},
			},
			config: DefaultNMSConfig(),
			want:   []float32{0.95},
		},
		{
			name: "identical boxes of different classes are both kept",
			in: []RawDetection{
				{Class: 0, Score: 0.9, Box: box(0.2, 0.2, 0.3, 0.3)},
				{Class: 3, Score: 0.8, Box: box(0.2, 0.2, 0.3, 0.3)},
			},
			config: DefaultNMSConfig(),
			want:   []float32{0.9, 0.8},
		},
		{
			name: "class agnostic suppresses across classes",
			in: []RawDetection{
				{Class: 0, Score: 0.9, Box: box(0.2, 0.2, 0.3, 0.3)},
				{Class: 3, Score: 0.8, Box: box(0.2, 0.2, 0.3, 0.3)},
			},
			config: NMSConfig{IoUThreshold: DefaultIoUThreshold, ClassAgnostic: true},
			want:   []float32{0.9},
		},
		{
			name: "disjoint boxes survive",
			in: []RawDetection{
				{Class: 1, Score: 0.4, Box: box(0, 0, 0.2, 0.2)},
				{Class: 1, Score: 0.7, Box: box(0.5, 0.5, 0.2, 0.2)},
			},
			config: DefaultNMSConfig(),
			want:   []float32{0.7, 0.4},
		},
		{
			name: "threshold is inclusive",
			// IoU of two identical boxes is exactly 1.
			in: []RawDetection{
				{Class: 2, Score: 0.7, Box: box(0, 0, 0.5, 0.5)},
				{Class: 2, Score: 0.6, Box: box(0, 0, 0.5, 0.5)},
			},
			config: NMSConfig{IoUThreshold: 1},
			want:   []float32{0.7},
		},
		{
			name:   "empty input",
			in:     nil,
			config: DefaultNMSConfig(),
			want:   []float32{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyNMS(tt.in, tt.config)
			scores := make([]float32, 0, len(got))
			for _, d := range got {
				scores = append(scores, d.Score)
			}
			assert.Equal(t, tt.want, scores)
		})
	}
}

func TestApplyNMSIdempotent(t *testing.T) {
	in := []RawDetection{
		{Class: 0, Score: 0.9, Box: box(0.10, 0.10, 0.30, 0.30)},
		{Class: 0, Score: 0.8, Box: box(0.12, 0.11, 0.30, 0.30)},
		{Class: 0, Score: 0.7, Box: box(0.30, 0.30, 0.30, 0.30)},
		{Class: 1, Score: 0.85, Box: box(0.10, 0.10, 0.30, 0.30)},
		{Class: 2, Score: 0.5, Box: box(0.60, 0.60, 0.20, 0.20)},
		{Class: 2, Score: 0.45, Box: box(0.61, 0.62, 0.20, 0.20)},
	}

	once := ApplyNMS(in, DefaultNMSConfig())
	twice := ApplyNMS(once, DefaultNMSConfig())
	assert.Equal(t, once, twice)
}

func TestAssembleDetections(t *testing.T) {
	raw := []RawDetection{
		{Class: 2, Score: 0.9, Box: box(0.1, 0.2, 0.3, 0.4)},
		{Class: 4, Score: 0.5, Box: box(-0.1, 0.2, 1.5, 0.3)},
		{Class: 0, Score: 0.4, Box: box(0.8, 0.9, 0.5, 0.5)},
	}

	got, err := AssembleDetections(raw, 640, 640)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "det_000", got[0].ID)
	assert.Equal(t, diagnosis.Healthy, got[0].DiseaseClass)
	assert.Equal(t, float32(0.9), got[0].Confidence)
	assert.Equal(t, box(0.1, 0.2, 0.3, 0.4), got[0].BoundingBox)

	assert.Equal(t, "det_001", got[1].ID)
	assert.Equal(t, diagnosis.WhiteTail, got[1].DiseaseClass)
	assert.Equal(t, float32(0), got[1].BoundingBox.X)
	assert.Equal(t, float32(1), got[1].BoundingBox.Width)

	assert.Equal(t, "det_002", got[2].ID)
	assert.Equal(t, diagnosis.BacterialInfection, got[2].DiseaseClass)
	assert.InDelta(t, 0.2, got[2].BoundingBox.Width, 1e-6)
	assert.InDelta(t, 0.1, got[2].BoundingBox.Height, 1e-6)

	for _, d := range got {
		assert.Empty(t, diagnosis.ValidateBoundingBox(d.BoundingBox), d.ID)
	}
}

func TestAssembleDetectionsClampInvariant(t *testing.T) {
	var raw []RawDetection
	for _, v := range []float32{-2, -0.5, 0, 0.3, 0.7, 0.999, 1, 1.2, 3} {
		raw = append(raw, RawDetection{Class: 1, Score: 0.5, Box: box(v, 1-v, v*2, 0.5+v)})
	}

	got, err := AssembleDetections(raw, 320, 240)
	require.NoError(t, err)

	for _, d := range got {
		b := d.BoundingBox
		for _, f := range []float32{b.X, b.Y, b.Width, b.Height} {
			assert.GreaterOrEqual(t, f, float32(0))
			assert.LessOrEqual(t, f, float32(1))
		}
		assert.LessOrEqual(t, float64(b.X)+float64(b.Width), 1+images.BoxTolerance)
		assert.LessOrEqual(t, float64(b.Y)+float64(b.Height), 1+images.BoxTolerance)
	}
}

func TestAssembleDetectionsUnknownClass(t *testing.T) {
	for _, class := range []int{-1, diagnosis.NumClasses()} {
		got, err := AssembleDetections([]RawDetection{
			{Class: 0, Score: 0.9, Box: box(0.1, 0.1, 0.1, 0.1)},
			{Class: class, Score: 0.8, Box: box(0.1, 0.1, 0.1, 0.1)},
		}, 640, 640)

		assert.Nil(t, got)
		assert.True(t, errors.Is(err, diagnosis.ErrUnknownClassIndex), "class %d: %v", class, err)
	}
}

func TestAssembleDetectionsEmpty(t *testing.T) {
	got, err := AssembleDetections(nil, 640, 640)
	require.NoError(t, err)
	assert.Empty(t, got)
}
