// Package images - Image definition for processing utilities.
package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
)

// ImageFormat represents supported image formats.
type ImageFormat string

const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
)

// ErrUnsupportedFormat is returned when image bytes are not JPEG, PNG or WebP.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Image represents an encoded image with a format, data, width, and height.
type Image struct {
	// The format of the image.
	Format ImageFormat `json:"format" yaml:"format"`
	// The data of the image.
	Data []byte `json:"data" yaml:"data"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
}

// Decode decodes the encoded bytes held by the Image.
//
// Returns:
//   - image.Image: The decoded picture.
//   - error: ErrUnsupportedFormat for unknown formats, or the decoder error.
func (i Image) Decode() (image.Image, error) {
	var (
		img image.Image
		err error
	)
	switch i.Format {
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(i.Data))
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(i.Data))
	case FormatWebP:
		img, err = webp.Decode(bytes.NewReader(i.Data))
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "format %q", i.Format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", i.Format)
	}
	return img, nil
}

// NewImage sniffs the format of the encoded bytes and reads the dimensions
// from the header without decoding the pixels.
//
// Arguments:
//   - data: JPEG, PNG or WebP encoded bytes.
//
// Returns:
//   - Image: The image with format and dimensions filled in.
//   - error: ErrUnsupportedFormat if the bytes are not JPEG, PNG or WebP.
func NewImage(data []byte) (Image, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, errors.Wrap(ErrUnsupportedFormat, err.Error())
	}

	var format ImageFormat
	switch name {
	case "jpeg":
		format = FormatJPEG
	case "png":
		format = FormatPNG
	case "webp":
		format = FormatWebP
	default:
		return Image{}, errors.Wrapf(ErrUnsupportedFormat, "format %q", name)
	}

	return Image{Format: format, Data: data, Width: cfg.Width, Height: cfg.Height}, nil
}
