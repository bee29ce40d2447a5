// ABOUTME: Persistent question and answer history backed by SQLite
// ABOUTME: Handles XDG data paths, schema setup, and recent-entry queries
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one answered question. Sources holds the source file names of the
// chunks that grounded the answer.
type Entry struct {
	ID        string
	Question  string
	Answer    string
	Sources   []string
	Provider  string
	Model     string
	CreatedAt time.Time
}

// Store persists entries in a SQLite database. The history is an audit log
// only; the vector index is rebuilt from documents and never stored here.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath returns the XDG-compliant history database location.
// Respects XDG_DATA_HOME environment variable override for testing.
func DefaultPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "docquery", "history.db")
}

// Open opens or creates the history database at path. An empty path selects
// DefaultPath.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		sources TEXT NOT NULL DEFAULT '[]',
		provider TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts an entry, assigning an ID and timestamp when absent.
func (s *Store) Record(entry Entry) (string, error) {
	if entry.ID == "" {
		entry.ID = "qa_" + uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	sources, err := json.Marshal(entry.Sources)
	if err != nil {
		return "", fmt.Errorf("failed to marshal sources: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO history (id, question, answer, sources, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Question, entry.Answer, string(sources), entry.Provider, entry.Model, entry.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert entry: %w", err)
	}

	return entry.ID, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`
		SELECT id, question, answer, sources, provider, model, created_at
		FROM history
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		var sources string
		if err := rows.Scan(
			&entry.ID,
			&entry.Question,
			&entry.Answer,
			&sources,
			&entry.Provider,
			&entry.Model,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &entry.Sources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Count returns the total number of stored entries.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// Clear deletes all entries and reports how many were removed.
func (s *Store) Clear() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM history`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return result.RowsAffected()
}
