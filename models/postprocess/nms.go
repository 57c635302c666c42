package postprocess

import (
	"github.com/fishcareyolo/mina/images"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	// Overlap at or above which a lower-scoring box is suppressed.
	IoUThreshold float32
	// If true, boxes of different classes also suppress each other.
	ClassAgnostic bool
}

// DefaultNMSConfig returns the class-aware configuration used by the pipeline.
func DefaultNMSConfig() NMSConfig {
	return NMSConfig{IoUThreshold: DefaultIoUThreshold}
}

// ApplyNMS filters overlapping detections using greedy Non-Maximum Suppression.
//
// The candidates are first sorted by descending score (stable, so ties keep
// their input order). The best remaining candidate is kept and every later
// candidate of the same class whose IoU with it is at least the threshold is
// dropped. Candidates of different classes never suppress each other unless
// ClassAgnostic is set, so a fish can carry two diagnoses over the same region.
//
// Arguments:
//   - detections: The candidates, in any order.
//   - config: The NMS configuration.
//
// Returns:
//   - []RawDetection: The survivors in descending score order. The input slice
//     is not modified.
//
// Example:
//
// ```go
//
//	kept := ApplyNMS([]RawDetection{
//		{Class: 0, Score: 0.9, Box: images.Box{X: 0.1, Y: 0.1, Width: 0.3, Height: 0.3}},
//		{Class: 0, Score: 0.8, Box: images.Box{X: 0.12, Y: 0.12, Width: 0.3, Height: 0.3}},
//	}, DefaultNMSConfig()) // keeps only the 0.9 box
//
// ```
func ApplyNMS(detections []RawDetection, config NMSConfig) []RawDetection {
	sorted := SortByConfidence(detections)
	kept := make([]RawDetection, 0, len(sorted))
	suppressed := make([]bool, len(sorted))

	for i, anchor := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, anchor)

		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] {
				continue
			}
			if !config.ClassAgnostic && sorted[j].Class != anchor.Class {
				continue
			}
			if images.CalculateIoU(anchor.Box, sorted[j].Box) >= config.IoUThreshold {
				suppressed[j] = true
			}
		}
	}

	return kept
}
