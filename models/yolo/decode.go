package yolo

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/fishcareyolo/mina/diagnosis"
	"github.com/fishcareyolo/mina/images"
	"github.com/fishcareyolo/mina/models/postprocess"
)

var (
	// ErrShapeMismatch is returned when an output buffer does not divide into
	// whole anchor records.
	ErrShapeMismatch = errors.New("output buffer does not match model shape")
	// ErrInputSize is returned for a non-positive model input size.
	ErrInputSize = errors.New("invalid model input size")
)

// AnchorCount returns the number of anchors a YOLOv8 head emits for a square
// input: one per cell of the stride 8, 16 and 32 grids.
func AnchorCount(inputSize int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		cells := inputSize / stride
		n += cells * cells
	}
	return n
}

// DecodeOutput converts an anchor-major output buffer into candidates.
//
// Each anchor record is cx, cy, w, h, objectness followed by one probability
// per disease class, with geometry in model input pixels. Every class whose
// objectness × probability reaches threshold yields one candidate, so a single
// anchor can produce several. Boxes are normalized by the input size and
// converted to corner form.
//
// Arguments:
//   - buffer: The raw output, anchor-major.
//   - inputWidth, inputHeight: The model input resolution.
//   - threshold: The minimum confidence to emit.
//
// Returns:
//   - []postprocess.RawDetection: The candidates in anchor order.
//   - error: ErrShapeMismatch if the buffer length is not a multiple of the
//     record width, ErrInputSize for a non-positive input size.
func DecodeOutput(buffer []float32, inputWidth, inputHeight int, threshold float32) ([]postprocess.RawDetection, error) {
	if inputWidth <= 0 || inputHeight <= 0 {
		return nil, errors.Wrapf(ErrInputSize, "%dx%d", inputWidth, inputHeight)
	}

	stride := diagnosis.AnchorChannels()
	if len(buffer)%stride != 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d values is not a multiple of %d channels", len(buffer), stride)
	}

	w, h := float32(inputWidth), float32(inputHeight)
	results := make([]postprocess.RawDetection, 0)

	for offset := 0; offset < len(buffer); offset += stride {
		record := buffer[offset : offset+stride]
		objectness := record[4]
		box := images.FromCenter(record[0]/w, record[1]/h, record[2]/w, record[3]/h)

		for c, p := range record[diagnosis.BoxChannels:] {
			confidence := objectness * p
			// Written this way round so NaN is never emitted.
			if !(confidence >= threshold) {
				continue
			}
			results = append(results, postprocess.RawDetection{
				Class: c,
				Score: confidence,
				Box:   box,
			})
		}
	}

	return results, nil
}

// ToAnchorMajor transposes a channel-major buffer ([channels, N]) into
// anchor-major order ([N, channels]).
//
// Arguments:
//   - buffer: The raw output, channel-major.
//   - channels: Values per anchor.
//
// Returns:
//   - []float32: A new buffer; the input is not modified.
//   - error: ErrShapeMismatch if the buffer does not divide into channels rows.
func ToAnchorMajor(buffer []float32, channels int) ([]float32, error) {
	if channels <= 0 || len(buffer)%channels != 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d values is not a multiple of %d channels", len(buffer), channels)
	}

	backing := make([]float32, len(buffer))
	copy(backing, buffer)

	anchors := len(buffer) / channels
	if anchors <= 1 || channels == 1 {
		return backing, nil
	}

	t := tensor.New(tensor.WithShape(channels, anchors), tensor.WithBacking(backing))
	if err := t.T(); err != nil {
		return nil, errors.Wrap(err, "transpose output")
	}
	if err := t.Transpose(); err != nil {
		return nil, errors.Wrap(err, "materialize transposed output")
	}

	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("unexpected tensor backing %T", t.Data())
	}
	return data, nil
}
