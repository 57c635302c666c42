package postprocess

import (
	"sort"

	"github.com/samber/lo"
)

// FilterByConfidence keeps the candidates whose score is at least threshold.
//
// The input order is preserved and the input slice is not modified. Applying
// the filter twice with the same threshold gives the same result as once.
//
// Arguments:
//   - detections: The candidates to filter.
//   - threshold: The minimum score to keep.
//
// Returns:
//   - []RawDetection: A new slice holding the survivors.
func FilterByConfidence(detections []RawDetection, threshold float32) []RawDetection {
	return lo.Filter(detections, func(d RawDetection, _ int) bool {
		return d.Score >= threshold
	})
}

// SortByConfidence returns a copy of detections ordered by descending score.
// Equal scores keep their input order.
func SortByConfidence(detections []RawDetection) []RawDetection {
	sorted := make([]RawDetection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}
