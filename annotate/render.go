package annotate

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/fishcareyolo/mina/diagnosis"
)

var (
	// ErrRead is returned when the source image cannot be decoded.
	ErrRead = errors.New("failed to read image")
	// ErrWrite is returned when the annotated image cannot be encoded.
	ErrWrite = errors.New("failed to write image")
)

const (
	fontScale = 0.6
	thickness = 2
)

var textColor = color.RGBA{R: 255, G: 255, B: 255, A: 0}

// Render reads the photo at src, draws every detection onto it and writes the
// result to dst. The output format follows the extension of dst.
func Render(src, dst string, detections []diagnosis.Detection) error {
	img := gocv.IMRead(src, gocv.IMReadColor)
	if img.Empty() {
		return errors.Wrapf(ErrRead, "%s", src)
	}
	defer img.Close()

	if err := Draw(&img, detections); err != nil {
		return err
	}

	if !gocv.IMWrite(dst, img) {
		return errors.Wrapf(ErrWrite, "%s", dst)
	}
	return nil
}

// Draw paints detections onto img in place.
func Draw(img *gocv.Mat, detections []diagnosis.Detection) error {
	for _, o := range Overlays(detections, img.Cols(), img.Rows()) {
		// Mats are BGR.
		boxColor := color.RGBA{R: o.Color.B, G: o.Color.G, B: o.Color.R, A: 0}
		if err := gocv.Rectangle(img, o.Rect, boxColor, thickness); err != nil {
			return errors.Wrap(err, "failed to draw box")
		}

		size := gocv.GetTextSize(o.Label, gocv.FontHersheySimplex, fontScale, 1)
		origin := labelOrigin(o.Rect, size.Y)
		background := image.Rect(origin.X, origin.Y-size.Y-4, origin.X+size.X+4, origin.Y+4)
		if err := gocv.Rectangle(img, background, boxColor, -1); err != nil {
			return errors.Wrap(err, "failed to draw label background")
		}
		err := gocv.PutText(img, o.Label, image.Pt(origin.X+2, origin.Y), gocv.FontHersheySimplex, fontScale, textColor, 1)
		if err != nil {
			return errors.Wrap(err, "failed to draw label")
		}
	}
	return nil
}
