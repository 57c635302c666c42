package diagnosis

import (
	"fmt"
	"strings"

	"github.com/fishcareyolo/mina/images"
)

func inUnit(v float32) bool {
	// NaN fails both comparisons.
	return v >= 0 && v <= 1
}

// IsValidConfidence reports whether v is in [0, 1].
func IsValidConfidence(v float32) bool {
	return inUnit(v)
}

// IsValidBoundingBox reports whether every field is in [0, 1] and the box
// does not extend past the right or bottom image edge.
func IsValidBoundingBox(b BoundingBox) bool {
	return len(ValidateBoundingBox(b)) == 0
}

// ValidateBoundingBox lists every range violation of b.
func ValidateBoundingBox(b BoundingBox) []string {
	var errs []string
	if !inUnit(b.X) {
		errs = append(errs, fmt.Sprintf("BBox x out of range: %v", b.X))
	}
	if !inUnit(b.Y) {
		errs = append(errs, fmt.Sprintf("BBox y out of range: %v", b.Y))
	}
	if !inUnit(b.Width) {
		errs = append(errs, fmt.Sprintf("BBox width out of range: %v", b.Width))
	}
	if !inUnit(b.Height) {
		errs = append(errs, fmt.Sprintf("BBox height out of range: %v", b.Height))
	}
	if float64(b.X)+float64(b.Width) > 1+images.BoxTolerance {
		errs = append(errs, fmt.Sprintf("BBox exceeds right edge: x=%v, width=%v", b.X, b.Width))
	}
	if float64(b.Y)+float64(b.Height) > 1+images.BoxTolerance {
		errs = append(errs, fmt.Sprintf("BBox exceeds bottom edge: y=%v, height=%v", b.Y, b.Height))
	}
	return errs
}

// ValidateDetection lists every violation of d. It does not stop at the first
// problem so the result can be logged as a complete diagnosis.
func ValidateDetection(d Detection) []string {
	var errs []string
	if !IsValidDiseaseClass(string(d.DiseaseClass)) {
		errs = append(errs, fmt.Sprintf("Invalid disease class: %s", d.DiseaseClass))
	}
	if !IsValidConfidence(d.Confidence) {
		errs = append(errs, fmt.Sprintf("Confidence out of range: %v", d.Confidence))
	}
	return append(errs, ValidateBoundingBox(d.BoundingBox)...)
}

// ValidateSession checks the session shell and every detection in it.
func ValidateSession(s Session) []string {
	errs := validateSessionShell(s)
	for _, d := range s.Detections {
		errs = append(errs, ValidateDetection(d)...)
	}
	return errs
}

func validateSessionShell(s Session) []string {
	var errs []string
	if s.ID == "" {
		errs = append(errs, "Session missing id")
	}
	if s.ImageURI == "" {
		errs = append(errs, "Session missing imageUri")
	}
	if s.Timestamp <= 0 {
		errs = append(errs, fmt.Sprintf("Invalid timestamp: %d", s.Timestamp))
	}
	return errs
}

// ValidateDiseaseInfo checks a reference entry for completeness.
func ValidateDiseaseInfo(info DiseaseInfo) []string {
	var errs []string
	if !IsValidDiseaseClass(string(info.DiseaseClass)) {
		errs = append(errs, fmt.Sprintf("Invalid disease class: %s", info.DiseaseClass))
	}
	if strings.TrimSpace(info.DisplayName) == "" {
		errs = append(errs, "Missing displayName")
	}
	if strings.TrimSpace(info.Description) == "" {
		errs = append(errs, "Missing description")
	}
	if len(info.Symptoms) == 0 {
		errs = append(errs, "Missing or empty symptoms array")
	}
	if len(info.Treatments) == 0 {
		errs = append(errs, "Missing or empty treatments array")
	}
	if !info.Severity.IsValid() {
		errs = append(errs, fmt.Sprintf("Invalid severity: %s", info.Severity))
	}
	return errs
}
