package diagnosis

import (
	"github.com/fishcareyolo/mina/images"
)

// BoundingBox is a corner-form box in image-normalized coordinates.
type BoundingBox = images.Box

// Detection is one diagnosed region of the photo.
type Detection struct {
	// Sequential id within one inference run: det_000, det_001, ...
	ID           string       `json:"id"`
	DiseaseClass DiseaseClass `json:"diseaseClass"`
	Confidence   float32      `json:"confidence"`
	BoundingBox  BoundingBox  `json:"boundingBox"`
}

// Session is the persisted record of one inference run.
type Session struct {
	ID         string      `json:"id"`
	ImageURI   string      `json:"imageUri"`
	Detections []Detection `json:"detections"`
	// Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// InferenceResult is what one pass of the model produced.
type InferenceResult struct {
	Detections      []Detection `json:"detections"`
	InferenceTimeMs int64       `json:"inferenceTimeMs"`
}

// HistoryItem is a saved inference together with the original and annotated images.
type HistoryItem struct {
	ID                string          `json:"id"`
	Timestamp         int64           `json:"timestamp"`
	OriginalImageURI  string          `json:"originalImageUri"`
	ProcessedImageURI string          `json:"processedImageUri"`
	Results           InferenceResult `json:"results"`
}

// Session converts the history item into a detection session over its original image.
func (h HistoryItem) Session() Session {
	return Session{
		ID:         h.ID,
		ImageURI:   h.OriginalImageURI,
		Detections: h.Results.Detections,
		Timestamp:  h.Timestamp,
	}
}
