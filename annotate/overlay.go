// Package annotate - Draws detections onto the diagnosed photo.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"github.com/samber/lo"

	"github.com/fishcareyolo/mina/diagnosis"
)

// Overlay is one box to draw, already in pixel coordinates.
type Overlay struct {
	Rect  image.Rectangle
	Color color.RGBA
	Label string
}

// Label formats a detection caption, e.g. "White Tail 87%".
func Label(d diagnosis.Detection) string {
	return fmt.Sprintf("%s %.0f%%", diagnosis.DiseaseLabel(string(d.DiseaseClass)), d.Confidence*100)
}

// Overlays maps detections onto an image of the given pixel size. Boxes are
// clamped to the image first; empty boxes are skipped.
func Overlays(detections []diagnosis.Detection, width, height int) []Overlay {
	overlays := lo.FilterMap(detections, func(d diagnosis.Detection, _ int) (Overlay, bool) {
		rect := d.BoundingBox.Clamp().Scale(width, height)
		if rect.Empty() {
			return Overlay{}, false
		}
		return Overlay{
			Rect:  rect,
			Color: diagnosis.BoundingBoxColor(d.DiseaseClass),
			Label: Label(d),
		}, true
	})
	return overlays
}

// labelOrigin places a caption just above the box, or inside it when the box
// touches the top edge.
func labelOrigin(rect image.Rectangle, textHeight int) image.Point {
	y := rect.Min.Y - 4
	if y-textHeight < 0 {
		y = rect.Min.Y + textHeight + 4
	}
	return image.Pt(rect.Min.X, y)
}
