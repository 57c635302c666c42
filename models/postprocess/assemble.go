package postprocess

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/fishcareyolo/mina/diagnosis"
)

// DetectionID formats the sequential id of the i-th detection of a run.
func DetectionID(i int) string {
	return fmt.Sprintf("det_%03d", i)
}

// AssembleDetections converts final candidates into typed detections.
//
// Each candidate gets the id det_NNN by position, its class index is mapped
// through diagnosis.DiseaseClasses and its box is clamped into the unit square
// (width and height shrink when the box runs past the right or bottom edge).
// Confidence is copied unchanged.
//
// Arguments:
//   - raw: The candidates, usually the output of ApplyNMS.
//   - imageWidth, imageHeight: The source image size. Boxes stay normalized;
//     the size is accepted so callers do not have to special-case pixel models.
//
// Returns:
//   - []diagnosis.Detection: One detection per candidate, in input order.
//   - error: diagnosis.ErrUnknownClassIndex when a class index has no disease
//     class. Nothing is returned in that case.
func AssembleDetections(raw []RawDetection, imageWidth, imageHeight int) ([]diagnosis.Detection, error) {
	out := make([]diagnosis.Detection, 0, len(raw))
	for i, r := range raw {
		class, err := diagnosis.ClassAt(r.Class)
		if err != nil {
			return nil, errors.Wrapf(err, "assemble %s", DetectionID(i))
		}
		out = append(out, diagnosis.Detection{
			ID:           DetectionID(i),
			DiseaseClass: class,
			Confidence:   r.Score,
			BoundingBox:  r.Box.Clamp(),
		})
	}
	return out, nil
}
