// Package history - Durable storage for detection sessions and history items.
package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fishcareyolo/mina/logging"
)

// Store keeps sessions and history items in SQLite and history images on disk.
//
// Rows hold the session JSON written by diagnosis.SerializeSession and are
// read back through diagnosis.ParseSessionWithDiagnostics, so a corrupt row is
// skipped and logged instead of failing the whole listing.
type Store struct {
	conn   *sql.DB
	mu     sync.RWMutex
	dir    string
	logger *zap.SugaredLogger
}

// Open opens or creates the database at dbPath. History images are copied
// under historyDir.
func Open(dbPath, historyDir string, logger *zap.SugaredLogger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "create database directory")
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{conn: conn, dir: historyDir, logger: logger}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	return s, nil
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS history_items (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		original_image TEXT NOT NULL,
		processed_image TEXT NOT NULL,
		inference_time_ms INTEGER NOT NULL DEFAULT 0,
		session TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_timestamp ON sessions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_history_items_timestamp ON history_items(timestamp);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
