// Package diagnosis - Disease classes, detections and sessions produced by the
// fish disease model, with their validation rules and JSON codec.
package diagnosis

import (
	"github.com/pkg/errors"
)

// DiseaseClass is one diagnostic category the model is trained to output.
type DiseaseClass string

const (
	// BacterialInfection is the bacterial_infection class.
	BacterialInfection DiseaseClass = "bacterial_infection"
	// FungalInfection is the fungal_infection class.
	FungalInfection DiseaseClass = "fungal_infection"
	// Healthy is the healthy class.
	Healthy DiseaseClass = "healthy"
	// Parasite is the parasite class.
	Parasite DiseaseClass = "parasite"
	// WhiteTail is the white_tail class.
	WhiteTail DiseaseClass = "white_tail"
)

// DiseaseClasses lists every class in model output channel order.
//
// Index i of this slice is class channel i of the model's output tensor. It is
// the only place the ordering is written down; never reorder it without
// retraining or re-exporting the model.
var DiseaseClasses = []DiseaseClass{
	BacterialInfection,
	FungalInfection,
	Healthy,
	Parasite,
	WhiteTail,
}

// BoxChannels is the number of per-anchor values that precede the class
// probabilities: cx, cy, w, h and objectness.
const BoxChannels = 5

var (
	// ErrUnknownClassIndex is returned when a model class index has no DiseaseClass.
	ErrUnknownClassIndex = errors.New("class index out of range")
	// ErrChannelCount is returned when a model's per-anchor width does not match DiseaseClasses.
	ErrChannelCount = errors.New("model channel count does not match disease classes")
)

// NumClasses returns the number of disease classes.
func NumClasses() int { return len(DiseaseClasses) }

// AnchorChannels returns the per-anchor record width the model must emit.
func AnchorChannels() int { return BoxChannels + len(DiseaseClasses) }

// ClassAt maps a model class index to its DiseaseClass.
//
// Arguments:
//   - idx: The class channel index reported by the model.
//
// Returns:
//   - DiseaseClass: The class at that index.
//   - error: ErrUnknownClassIndex when idx is out of range.
func ClassAt(idx int) (DiseaseClass, error) {
	if idx < 0 || idx >= len(DiseaseClasses) {
		return "", errors.Wrapf(ErrUnknownClassIndex, "index %d, have %d classes", idx, len(DiseaseClasses))
	}
	return DiseaseClasses[idx], nil
}

// Index returns the model channel index of the class, or -1 if unknown.
func (c DiseaseClass) Index() int {
	for i, known := range DiseaseClasses {
		if known == c {
			return i
		}
	}
	return -1
}

// IsValidDiseaseClass reports whether s names a known class exactly.
func IsValidDiseaseClass(s string) bool {
	return DiseaseClass(s).Index() >= 0
}

// CheckChannelCount verifies that a model emitting channels values per anchor
// agrees with DiseaseClasses.
func CheckChannelCount(channels int) error {
	if channels != AnchorChannels() {
		return errors.Wrapf(ErrChannelCount, "model has %d channels per anchor, want %d", channels, AnchorChannels())
	}
	return nil
}
