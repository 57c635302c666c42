package diagnosis

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// wireFloat encodes non-finite values as null instead of failing, so a
// session holding bad numbers can still be written out and inspected later.
type wireFloat float32

func (f wireFloat) MarshalJSON() ([]byte, error) {
	v := float32(f)
	if math32.IsNaN(v) || math32.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(v), 'g', -1, 32), nil
}

type wireBox struct {
	X      wireFloat `json:"x"`
	Y      wireFloat `json:"y"`
	Width  wireFloat `json:"width"`
	Height wireFloat `json:"height"`
}

type wireDetection struct {
	ID           string    `json:"id"`
	DiseaseClass string    `json:"diseaseClass"`
	Confidence   wireFloat `json:"confidence"`
	BoundingBox  wireBox   `json:"boundingBox"`
}

type wireSession struct {
	ID         string          `json:"id"`
	ImageURI   string          `json:"imageUri"`
	Detections []wireDetection `json:"detections"`
	Timestamp  int64           `json:"timestamp"`
}

// SerializeSession encodes a session as JSON.
//
// It never fails and does not validate: invalid contents are written as they
// are, with NaN and infinities encoded as null.
//
// Arguments:
//   - s: The session to encode.
//
// Returns:
//   - string: The JSON text.
func SerializeSession(s Session) string {
	w := wireSession{
		ID:         s.ID,
		ImageURI:   s.ImageURI,
		Detections: make([]wireDetection, 0, len(s.Detections)),
		Timestamp:  s.Timestamp,
	}
	for _, d := range s.Detections {
		w.Detections = append(w.Detections, wireDetection{
			ID:           d.ID,
			DiseaseClass: string(d.DiseaseClass),
			Confidence:   wireFloat(d.Confidence),
			BoundingBox: wireBox{
				X:      wireFloat(d.BoundingBox.X),
				Y:      wireFloat(d.BoundingBox.Y),
				Width:  wireFloat(d.BoundingBox.Width),
				Height: wireFloat(d.BoundingBox.Height),
			},
		})
	}

	// Every field of wireSession has a total encoding.
	b, _ := json.Marshal(w)
	return string(b)
}

// DroppedDetection explains why one entry of a parsed session was discarded.
type DroppedDetection struct {
	// Position in the stored detections array.
	Index int
	// Stored id, if one could be read.
	ID      string
	Reasons []string
}

func (d DroppedDetection) String() string {
	return fmt.Sprintf("detection %d (%q): %s", d.Index, d.ID, strings.Join(d.Reasons, "; "))
}

// ParseResult is the outcome of ParseSessionWithDiagnostics.
type ParseResult struct {
	// Session is nil when the text is not a session at all.
	Session *Session
	// Rejected says why Session is nil.
	Rejected string
	// Dropped lists the detections that were discarded from an accepted session.
	Dropped []DroppedDetection
}

// member binds one JSON object member, matched by exact key, to the value it
// decodes into.
type member struct {
	key string
	dst any
}

// decodeMembers decodes the members of the JSON object in data whose keys
// match exactly. encoding/json folds case when matching struct tags, which
// would accept "ID" for "id".
func decodeMembers(data []byte, members ...member) error {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return err
	}
	for _, m := range members {
		raw, ok := object[m.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, m.dst); err != nil {
			return errors.Wrapf(err, "field %s", m.key)
		}
	}
	return nil
}

type sessionEnvelope struct {
	ID         *string
	ImageURI   *string
	Detections *[]json.RawMessage
	Timestamp  *timestampLiteral
}

// timestampLiteral holds a JSON number as written. Unlike json.Number it
// refuses quoted numbers.
type timestampLiteral string

func (t *timestampLiteral) UnmarshalJSON(data []byte) error {
	var n json.Number
	if len(data) == 0 || data[0] == '"' || json.Unmarshal(data, &n) != nil {
		return errors.Errorf("timestamp is not a number: %s", data)
	}
	*t = timestampLiteral(n)
	return nil
}

type boxEnvelope struct {
	X, Y, Width, Height *float32
}

func (b *boxEnvelope) UnmarshalJSON(data []byte) error {
	return decodeMembers(data,
		member{"x", &b.X},
		member{"y", &b.Y},
		member{"width", &b.Width},
		member{"height", &b.Height},
	)
}

type detectionEnvelope struct {
	ID           *string
	DiseaseClass *string
	Confidence   *float32
	BoundingBox  *boxEnvelope
}

// ParseSession decodes a session written by SerializeSession.
//
// It returns nil when the text is not JSON, when id, imageUri, detections or
// timestamp is missing or has the wrong type, or when the session shell is
// invalid (empty id or imageUri, timestamp not a positive integer). Detections
// that are malformed or invalid are dropped and the rest of the session is kept.
//
// Arguments:
//   - text: The JSON text.
//
// Returns:
//   - *Session: The session, or nil.
func ParseSession(text string) *Session {
	return ParseSessionWithDiagnostics(text).Session
}

// ParseSessionWithDiagnostics is ParseSession that also reports why the text
// was rejected or which detections were dropped.
func ParseSessionWithDiagnostics(text string) ParseResult {
	var env sessionEnvelope
	err := decodeMembers([]byte(text),
		member{"id", &env.ID},
		member{"imageUri", &env.ImageURI},
		member{"detections", &env.Detections},
		member{"timestamp", &env.Timestamp},
	)
	if err != nil {
		return ParseResult{Rejected: fmt.Sprintf("malformed session: %v", err)}
	}

	var missing []string
	if env.ID == nil {
		missing = append(missing, "id")
	}
	if env.ImageURI == nil {
		missing = append(missing, "imageUri")
	}
	if env.Detections == nil {
		missing = append(missing, "detections")
	}
	if env.Timestamp == nil {
		missing = append(missing, "timestamp")
	}
	if len(missing) > 0 {
		return ParseResult{Rejected: "session missing " + strings.Join(missing, ", ")}
	}

	ts, ok := parseTimestamp(*env.Timestamp)
	if !ok {
		return ParseResult{Rejected: fmt.Sprintf("Invalid timestamp: %v", *env.Timestamp)}
	}

	session := &Session{
		ID:         *env.ID,
		ImageURI:   *env.ImageURI,
		Detections: make([]Detection, 0, len(*env.Detections)),
		Timestamp:  ts,
	}
	if errs := validateSessionShell(*session); len(errs) > 0 {
		return ParseResult{Rejected: strings.Join(errs, "; ")}
	}

	result := ParseResult{Session: session}
	for i, raw := range *env.Detections {
		d, reasons := parseDetection(raw)
		if len(reasons) > 0 {
			result.Dropped = append(result.Dropped, DroppedDetection{Index: i, ID: d.ID, Reasons: reasons})
			continue
		}
		session.Detections = append(session.Detections, d)
	}

	return result
}

// parseTimestamp accepts positive whole numbers that fit in an int64. Integer
// literals are read exactly; other literals such as 1e12 go through float64.
func parseTimestamp(t timestampLiteral) (int64, bool) {
	n := json.Number(t)
	if ts, err := n.Int64(); err == nil {
		return ts, ts > 0
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f <= 0 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func parseDetection(raw json.RawMessage) (Detection, []string) {
	var env detectionEnvelope
	err := decodeMembers(raw,
		member{"id", &env.ID},
		member{"diseaseClass", &env.DiseaseClass},
		member{"confidence", &env.Confidence},
		member{"boundingBox", &env.BoundingBox},
	)
	if err != nil {
		return Detection{}, []string{fmt.Sprintf("malformed detection: %v", err)}
	}

	var (
		d       Detection
		reasons []string
	)
	if env.ID != nil {
		d.ID = *env.ID
	} else {
		reasons = append(reasons, "missing id")
	}
	if env.DiseaseClass != nil {
		d.DiseaseClass = DiseaseClass(*env.DiseaseClass)
	} else {
		reasons = append(reasons, "missing diseaseClass")
	}
	if env.Confidence != nil {
		d.Confidence = *env.Confidence
	} else {
		reasons = append(reasons, "missing confidence")
	}
	if b := env.BoundingBox; b != nil && b.X != nil && b.Y != nil && b.Width != nil && b.Height != nil {
		d.BoundingBox = BoundingBox{X: *b.X, Y: *b.Y, Width: *b.Width, Height: *b.Height}
	} else {
		reasons = append(reasons, "missing or incomplete boundingBox")
	}
	if len(reasons) > 0 {
		return d, reasons
	}

	return d, ValidateDetection(d)
}
