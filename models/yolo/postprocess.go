package yolo

import (
	"github.com/pkg/errors"

	"github.com/fishcareyolo/mina/diagnosis"
	"github.com/fishcareyolo/mina/models/model"
	"github.com/fishcareyolo/mina/models/postprocess"
)

// PostProcess transforms the raw output of the model into final detections by:
//   - Transposing channel-major output into anchor records.
//   - Decoding every anchor and class at or above the confidence threshold.
//   - Filtering by confidence.
//   - Applying class-aware NMS.
//   - Sorting by descending confidence.
//   - Assembling typed detections with clamped boxes and det_NNN ids.
//
// Arguments:
//   - output: The raw output buffer.
//   - imageWidth, imageHeight: The size of the source image.
//
// Returns:
//   - []diagnosis.Detection: The detections, best first.
//   - error: When the buffer shape or a class index does not match the model.
func (m *YOLO) PostProcess(output []float32, imageWidth, imageHeight int) ([]diagnosis.Detection, error) {
	if m.options.Layout == model.LayoutChannelMajor {
		var err error
		if output, err = ToAnchorMajor(output, diagnosis.AnchorChannels()); err != nil {
			return nil, err
		}
	}

	raw, err := DecodeOutput(output, m.options.InputWidth, m.options.InputHeight, m.options.ConfidenceThreshold)
	if err != nil {
		return nil, errors.Wrap(err, "decode output")
	}

	raw = postprocess.FilterByConfidence(raw, m.options.ConfidenceThreshold)
	raw = postprocess.ApplyNMS(raw, m.options.NMS)
	raw = postprocess.SortByConfidence(raw)

	return postprocess.AssembleDetections(raw, imageWidth, imageHeight)
}
