package draft

import (
	"database/sql"
	"errors"

	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/gorewood/echopost/internal/output"
)

// Keys of the SQLite key-value table.
const (
	KeyDrafts        = "echo_drafts"
	KeyActiveDraftID = "echo_current_draft_id"
)

// SQLiteStore keeps drafts in a single key-value table, one row for the
// serialized collection and one for the active pointer.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to open draft database", err)
	}
	_, err = conn.Exec(`
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`)
	if err != nil {
		_ = conn.Close()
		return nil, output.NewSystemErrorWithCause("failed to initialize draft database", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// ListDrafts reads the collection row. A missing row is an empty collection.
func (s *SQLiteStore) ListDrafts() ([]Draft, error) {
	value, err := s.get(KeyDrafts)
	if err != nil {
		return nil, err
	}
	return Decode([]byte(value)), nil
}

// SaveDrafts overwrites the collection row. A row that cannot be parsed
// is copied to KeyDrafts+".bad" first.
func (s *SQLiteStore) SaveDrafts(drafts []Draft) error {
	data, err := Encode(drafts)
	if err != nil {
		return output.NewSystemErrorWithCause("failed to serialize drafts", err)
	}
	current, err := s.get(KeyDrafts)
	if err != nil {
		return err
	}
	if Unreadable([]byte(current)) {
		if err := s.set(KeyDrafts+badSuffix, current); err != nil {
			return err
		}
	}
	return s.set(KeyDrafts, string(data))
}

// ActiveDraftID reads the pointer row.
func (s *SQLiteStore) ActiveDraftID() (string, error) {
	return s.get(KeyActiveDraftID)
}

// SetActiveDraftID writes the pointer row, or deletes it for "".
func (s *SQLiteStore) SetActiveDraftID(id string) error {
	if id == "" {
		if _, err := s.conn.Exec(`DELETE FROM kv WHERE key = ?`, KeyActiveDraftID); err != nil {
			return output.NewSystemErrorWithCause("failed to clear active draft", err)
		}
		return nil
	}
	return s.set(KeyActiveDraftID, id)
}

func (s *SQLiteStore) get(key string) (string, error) {
	var value string
	err := s.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", output.NewSystemErrorWithCause("failed to read "+key, err)
	}
	return value, nil
}

func (s *SQLiteStore) set(key, value string) error {
	_, err := s.conn.Exec(`
INSERT INTO kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return output.NewSystemErrorWithCause("failed to write "+key, err)
	}
	return nil
}
