package history

import (
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/fishcareyolo/mina/diagnosis"
)

// ErrInvalidItemID is returned for an id SaveItem could not have generated.
var ErrInvalidItemID = errors.New("invalid history item id")

// IsItemID reports whether id has the form of a history item id.
func IsItemID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// SaveItem stores a new history item.
//
// The original and processed images are copied into <historyDir>/<id>/ as
// original<ext> and processed<ext>, and the returned item points at the
// copies. The id is generated; a zero timestamp is set to now.
func (s *Store) SaveItem(item diagnosis.HistoryItem) (diagnosis.HistoryItem, error) {
	item.ID = uuid.NewString()
	if item.Timestamp == 0 {
		item.Timestamp = time.Now().UnixMilli()
	}

	itemDir := filepath.Join(s.dir, item.ID)
	if err := os.MkdirAll(itemDir, 0o755); err != nil {
		return diagnosis.HistoryItem{}, errors.Wrap(err, "create history directory")
	}

	original, err := copyInto(itemDir, item.OriginalImageURI, "original", ".jpg")
	if err != nil {
		return diagnosis.HistoryItem{}, multierr.Append(err, os.RemoveAll(itemDir))
	}
	processed, err := copyInto(itemDir, item.ProcessedImageURI, "processed", ".png")
	if err != nil {
		return diagnosis.HistoryItem{}, multierr.Append(err, os.RemoveAll(itemDir))
	}
	item.OriginalImageURI = original
	item.ProcessedImageURI = processed

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.conn.Exec(`
		INSERT INTO history_items (id, timestamp, original_image, processed_image, inference_time_ms, session)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.ID, item.Timestamp, item.OriginalImageURI, item.ProcessedImageURI,
		item.Results.InferenceTimeMs, diagnosis.SerializeSession(item.Session()))
	if err != nil {
		return diagnosis.HistoryItem{}, multierr.Append(errors.Wrap(err, "failed to save history item"), os.RemoveAll(itemDir))
	}

	s.logger.Infow("saved history item", "id", item.ID, "detections", len(item.Results.Detections))
	return item, nil
}

// Items returns every readable history item, newest first.
func (s *Store) Items() ([]diagnosis.HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(`
		SELECT id, timestamp, original_image, processed_image, inference_time_ms, session
		FROM history_items ORDER BY timestamp DESC, id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list history items")
	}
	defer rows.Close()

	items := []diagnosis.HistoryItem{}
	for rows.Next() {
		item, err := s.scanItem(rows)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, errors.Wrap(rows.Err(), "failed to list history items")
}

// Item returns the history item with the given id, or nil when it does not
// exist or cannot be read.
func (s *Store) Item(id string) (*diagnosis.HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.conn.QueryRow(`
		SELECT id, timestamp, original_image, processed_image, inference_time_ms, session
		FROM history_items WHERE id = ?
	`, id)
	item, err := s.scanItem(row)
	if errors.Cause(err) == sql.ErrNoRows {
		return nil, nil
	}
	return item, err
}

// DeleteItem removes the history item and its image directory. A directory
// that cannot be removed is logged; the row is deleted regardless.
//
// Only ids of the form SaveItem generates are accepted, so the directory
// removed is always a single entry inside the history directory.
func (s *Store) DeleteItem(id string) error {
	if id == "" {
		return errors.Wrap(ErrMissingID, "delete history item")
	}
	if !IsItemID(id) {
		return errors.Wrapf(ErrInvalidItemID, "delete history item %q", id)
	}
	if err := os.RemoveAll(filepath.Join(s.dir, id)); err != nil {
		s.logger.Warnw("failed to delete history files", "id", id, "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`DELETE FROM history_items WHERE id = ?`, id)
	return errors.Wrap(err, "failed to delete history item")
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanItem(row scanner) (*diagnosis.HistoryItem, error) {
	var (
		item diagnosis.HistoryItem
		data string
	)
	err := row.Scan(&item.ID, &item.Timestamp, &item.OriginalImageURI, &item.ProcessedImageURI,
		&item.Results.InferenceTimeMs, &data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan history item")
	}

	session := s.parse(item.ID, data)
	if session == nil {
		return nil, nil
	}
	item.Results.Detections = session.Detections
	return &item, nil
}

// copyInto copies src into dir as name plus the extension of src, or
// fallbackExt when src has none.
func copyInto(dir, src, name, fallbackExt string) (dst string, err error) {
	ext := filepath.Ext(src)
	if ext == "" || ext == "." {
		ext = fallbackExt
	}
	dst = filepath.Join(dir, name+ext)

	in, err := os.Open(src)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", src)
	}
	defer func() { err = multierr.Append(err, in.Close()) }()

	out, err := os.Create(dst)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", dst)
	}
	defer func() { err = multierr.Append(err, out.Close()) }()

	if _, err := io.Copy(out, in); err != nil {
		return "", errors.Wrapf(err, "copy %s", src)
	}
	return dst, nil
}
