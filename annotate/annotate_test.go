package annotate

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/fishcareyolo/mina/diagnosis"
)

func TestLabel(t *testing.T) {
	d := diagnosis.Detection{DiseaseClass: diagnosis.BacterialInfection, Confidence: 0.874}
	assert.Equal(t, "Bacterial Infection 87%", Label(d))
}

func TestOverlays(t *testing.T) {
	detections := []diagnosis.Detection{
		{
			ID:           "det_000",
			DiseaseClass: diagnosis.Healthy,
			Confidence:   0.9,
			BoundingBox:  diagnosis.BoundingBox{X: 0.25, Y: 0.5, Width: 0.5, Height: 0.25},
		},
		{
			ID:           "det_001",
			DiseaseClass: diagnosis.Parasite,
			Confidence:   0.4,
			BoundingBox:  diagnosis.BoundingBox{X: 0.5, Y: 0.5, Width: 0, Height: 0.2},
		},
		{
			ID:           "det_002",
			DiseaseClass: diagnosis.WhiteTail,
			Confidence:   0.6,
			BoundingBox:  diagnosis.BoundingBox{X: 0.9, Y: 0, Width: 0.5, Height: 0.1},
		},
	}

	overlays := Overlays(detections, 200, 100)
	require.Len(t, overlays, 2)

	assert.Equal(t, image.Rect(50, 50, 150, 75), overlays[0].Rect)
	assert.Equal(t, diagnosis.BoundingBoxColor(diagnosis.Healthy), overlays[0].Color)
	assert.Equal(t, "Healthy 90%", overlays[0].Label)

	assert.Equal(t, image.Rect(180, 0, 200, 10), overlays[1].Rect)
	assert.Equal(t, "White Tail 60%", overlays[1].Label)
}

func TestLabelOrigin(t *testing.T) {
	assert.Equal(t, image.Pt(10, 46), labelOrigin(image.Rect(10, 50, 40, 80), 12))
	assert.Equal(t, image.Pt(10, 18), labelOrigin(image.Rect(10, 2, 40, 80), 12))
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "fish.png")
	dst := filepath.Join(dir, "fish_annotated.png")

	blank := gocv.NewMatWithSize(100, 200, gocv.MatTypeCV8UC3)
	defer blank.Close()
	require.True(t, gocv.IMWrite(src, blank))

	err := Render(src, dst, []diagnosis.Detection{{
		ID:           "det_000",
		DiseaseClass: diagnosis.Parasite,
		Confidence:   0.8,
		BoundingBox:  diagnosis.BoundingBox{X: 0.1, Y: 0.1, Width: 0.5, Height: 0.5},
	}})
	require.NoError(t, err)

	out := gocv.IMRead(dst, gocv.IMReadColor)
	defer out.Close()
	require.False(t, out.Empty())
	assert.Equal(t, 200, out.Cols())
	assert.Equal(t, 100, out.Rows())

	// Left edge below the caption, in BGR order.
	want := diagnosis.BoundingBoxColor(diagnosis.Parasite)
	px := out.GetVecbAt(50, 20)
	assert.Equal(t, []uint8{want.B, want.G, want.R}, []uint8{px[0], px[1], px[2]})
}

func TestRenderMissingSource(t *testing.T) {
	err := Render(filepath.Join(t.TempDir(), "nope.jpg"), filepath.Join(t.TempDir(), "out.png"), nil)
	assert.ErrorIs(t, err, ErrRead)
}
