// Package images - Image geometry and preprocessing utilities.
package images

import (
	"image"

	"github.com/chewxy/math32"
)

// BoxTolerance is the slack allowed on the right and bottom edges of a normalized box.
const BoxTolerance = 1e-6

// Box is an axis-aligned rectangle in image-normalized coordinates.
//
// X and Y locate the top-left corner; Width and Height extend right and down.
// A valid box keeps every field in [0, 1] and never crosses the image edge.
type Box struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// FromCenter converts a center-form box (cx, cy, w, h) into corner form.
//
// Arguments:
//   - cx, cy: The center of the box.
//   - w, h: The width and height of the box.
//
// Returns:
//   - Box: The same rectangle with its top-left corner at (cx-w/2, cy-h/2).
//
// Example:
//
// ```go
//
//	box := FromCenter(0.5, 0.5, 0.2, 0.4) // Box{X: 0.4, Y: 0.3, Width: 0.2, Height: 0.4}
//
// ```
func FromCenter(cx, cy, w, h float32) Box {
	return Box{
		X:      cx - w/2,
		Y:      cy - h/2,
		Width:  w,
		Height: h,
	}
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float32 { return b.X + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float32 { return b.Y + b.Height }

// Area returns Width*Height, or zero for degenerate boxes.
func (b Box) Area() float32 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// CalculateIoU measures the overlap of two boxes as Intersection over Union.
//
// The intersection rectangle starts at the larger of the two top-left corners
// and ends at the smaller of the two bottom-right corners. When it has no
// positive width or height the boxes are disjoint (or merely touching) and the
// result is 0. The union follows inclusion-exclusion:
//
//	Union(A, B) = Area(A) + Area(B) - Intersection(A, B)
//
// A union of zero (two zero-size boxes) yields 0 rather than NaN.
//
// Arguments:
//   - r: The first box.
//   - o: The other box.
//
// Returns:
//   - float32: A value in [0, 1]; 1 means identical boxes.
//
// Example:
//
// ```go
//
//	a := Box{X: 0, Y: 0, Width: 0.1, Height: 0.1}
//	b := Box{X: 0.05, Y: 0.05, Width: 0.1, Height: 0.1}
//	iou := CalculateIoU(a, b) // 0.0025 / 0.0175 ≈ 0.142857
//
// ```
func CalculateIoU(r, o Box) float32 {
	ix1 := math32.Max(r.X, o.X)
	iy1 := math32.Max(r.Y, o.Y)
	ix2 := math32.Min(r.Right(), o.Right())
	iy2 := math32.Min(r.Bottom(), o.Bottom())

	interW := math32.Max(0, ix2-ix1)
	interH := math32.Max(0, iy2-iy1)
	interArea := interW * interH

	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 || interArea <= 0 {
		return 0
	}

	return interArea / unionArea
}

// Clamp truncates the box so that it lies inside the unit square.
//
// Every field is first clamped to [0, 1] (NaN becomes 0). If the box still runs
// past the right or bottom edge its width or height is shrunk to end exactly on
// that edge. Boxes are never rejected; jitter near the image border is expected
// from real model output.
//
// Returns:
//   - Box: The truncated box.
//
// Example:
//
// ```go
//
//	Box{X: -0.1, Y: 0.2, Width: 1.5, Height: 0.3}.Clamp() // Box{X: 0, Y: 0.2, Width: 1, Height: 0.3}
//
// ```
func (b Box) Clamp() Box {
	out := Box{
		X:      unit(b.X),
		Y:      unit(b.Y),
		Width:  unit(b.Width),
		Height: unit(b.Height),
	}
	if out.X+out.Width > 1 {
		out.Width = 1 - out.X
	}
	if out.Y+out.Height > 1 {
		out.Height = 1 - out.Y
	}
	return out
}

// Scale converts the normalized box into pixel coordinates for an image of the
// given size.
//
// Arguments:
//   - width: The image width in pixels.
//   - height: The image height in pixels.
//
// Returns:
//   - image.Rectangle: The canonical pixel rectangle.
func (b Box) Scale(width, height int) image.Rectangle {
	w, h := float32(width), float32(height)
	return image.Rect(
		int(math32.Round(b.X*w)),
		int(math32.Round(b.Y*h)),
		int(math32.Round(b.Right()*w)),
		int(math32.Round(b.Bottom()*h)),
	).Canon()
}

func unit(v float32) float32 {
	if math32.IsNaN(v) {
		return 0
	}
	return math32.Max(0, math32.Min(1, v))
}
