// Package postprocess - Turns decoded model candidates into final detections.
package postprocess

import "github.com/fishcareyolo/mina/images"

// DefaultConfidenceThreshold is the minimum objectness × class probability
// for a candidate to survive decoding and filtering.
const DefaultConfidenceThreshold float32 = 0.3

// DefaultIoUThreshold is the overlap at or above which NMS suppresses a
// lower-scoring box of the same class.
const DefaultIoUThreshold float32 = 0.45

// RawDetection is one decoded candidate before it is mapped to a disease class.
type RawDetection struct {
	// The class channel index reported by the model.
	Class int
	// objectness × class probability.
	Score float32
	// Normalized corner-form box.
	Box images.Box
}
