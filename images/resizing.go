package images

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// ChannelOrder defines the ordering of image channels in a tensor.
type ChannelOrder int

const (
	// ChannelOrderCHW is Channel-Height-Width ordering (common for ONNX).
	ChannelOrderCHW ChannelOrder = iota
	// ChannelOrderHWC is Height-Width-Channel ordering (common for TFLite).
	ChannelOrderHWC
)

// ToTensor resizes an image to the model input size and flattens it into a
// float32 RGB tensor with values scaled to [0, 1]. Alpha is dropped.
//
// The image is stretched to width x height without letterboxing, so normalized
// box coordinates produced by the model map straight back onto the original
// picture.
//
// Arguments:
//   - img: The source image.
//   - width: The model input width.
//   - height: The model input height.
//   - order: The tensor layout.
//
// Returns:
//   - []float32: A tensor of length 3*width*height.
//   - error: An error if the size is not positive.
//
// Example:
//
// ```go
//
//	data, err := ToTensor(img, 640, 640, ChannelOrderCHW)
//
// ```
func ToTensor(img image.Image, width, height int, order ChannelOrder) ([]float32, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid tensor size %dx%d", width, height)
	}
	if img == nil {
		return nil, errors.New("nil image")
	}

	resized := resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	bounds := resized.Bounds()
	plane := width * height
	data := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			rgb := [3]float32{
				float32(r>>8) / 255.0,
				float32(g>>8) / 255.0,
				float32(b>>8) / 255.0,
			}
			pixel := y*width + x
			for c, v := range rgb {
				switch order {
				case ChannelOrderHWC:
					data[pixel*3+c] = v
				default:
					data[c*plane+pixel] = v
				}
			}
		}
	}

	return data, nil
}
