package history

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/fishcareyolo/mina/diagnosis"
)

// ErrMissingID is returned when saving a record without an id.
var ErrMissingID = errors.New("missing id")

// SaveSession inserts the session or replaces the one with the same id.
func (s *Store) SaveSession(session diagnosis.Session) error {
	if session.ID == "" {
		return errors.Wrap(ErrMissingID, "save session")
	}
	if problems := diagnosis.ValidateSession(session); len(problems) > 0 {
		s.logger.Warnw("saving session with invalid content", "id", session.ID, "problems", problems)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`
		INSERT INTO sessions (id, timestamp, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET timestamp = excluded.timestamp, data = excluded.data
	`, session.ID, session.Timestamp, diagnosis.SerializeSession(session))
	if err != nil {
		return errors.Wrap(err, "failed to save session")
	}
	return nil
}

// Sessions returns every readable session, newest first.
func (s *Store) Sessions() ([]diagnosis.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(`SELECT id, data FROM sessions ORDER BY timestamp DESC, id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	defer rows.Close()

	sessions := []diagnosis.Session{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, errors.Wrap(err, "failed to scan session")
		}
		if session := s.parse(id, data); session != nil {
			sessions = append(sessions, *session)
		}
	}
	return sessions, errors.Wrap(rows.Err(), "failed to list sessions")
}

// Session returns the session with the given id, or nil when it does not
// exist or cannot be read.
func (s *Store) Session(id string) (*diagnosis.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.conn.QueryRow(`SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get session")
	}
	return s.parse(id, data), nil
}

// DeleteSession removes the session with the given id. Deleting a missing
// session is not an error.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return errors.Wrap(err, "failed to delete session")
}

// ClearSessions removes every session.
func (s *Store) ClearSessions() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`DELETE FROM sessions`)
	return errors.Wrap(err, "failed to clear sessions")
}

// parse decodes a stored row and logs whatever had to be thrown away.
func (s *Store) parse(id, data string) *diagnosis.Session {
	result := diagnosis.ParseSessionWithDiagnostics(data)
	if result.Session == nil {
		s.logger.Warnw("skipping unreadable session", "id", id, "reason", result.Rejected)
		return nil
	}
	for _, d := range result.Dropped {
		s.logger.Warnw("dropped invalid detection", "session", id, "detection", d.String())
	}
	return result.Session
}
