// Package store provides SQLite-backed persistence for document snapshots.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/xonecas/inkline/document"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name     TEXT PRIMARY KEY,
	doc      TEXT NOT NULL,
	created  INTEGER NOT NULL,
	updated  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_updated ON snapshots(updated);
`

// Store is a SQLite-backed snapshot store. Documents are serialized whole;
// there is no incremental persistence.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Snapshot describes a stored document without its contents.
type Snapshot struct {
	Name    string
	Created time.Time
	Updated time.Time
}

// Open creates or opens a snapshot database at the given path.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}

	// SQLite pragmas for performance.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts a named snapshot of the document.
func (s *Store) Save(name string, d *document.Document) error {
	if s == nil {
		return fmt.Errorf("snapshot store not open")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := encodeDocument(d)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", name, err)
	}
	now := time.Now().Unix()
	_, err = s.db.Exec(
		`INSERT INTO snapshots (name, doc, created, updated) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET doc = excluded.doc, updated = excluded.updated`,
		name, body, now, now,
	)
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	return nil
}

// Load returns the named snapshot, or (nil, nil) when it does not exist.
func (s *Store) Load(name string) (*document.Document, error) {
	if s == nil {
		return nil, fmt.Errorf("snapshot store not open")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var body string
	err := s.db.QueryRow("SELECT doc FROM snapshots WHERE name = ?", name).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", name, err)
	}
	d, err := decodeDocument(body)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %q: %w", name, err)
	}
	return d, nil
}

// List returns all snapshots, most recently updated first.
func (s *Store) List() ([]Snapshot, error) {
	if s == nil {
		return nil, fmt.Errorf("snapshot store not open")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT name, created, updated FROM snapshots ORDER BY updated DESC")
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var name string
		var created, updated int64
		if err := rows.Scan(&name, &created, &updated); err != nil {
			log.Warn().Err(err).Msg("failed to scan snapshot row")
			continue
		}
		out = append(out, Snapshot{
			Name:    name,
			Created: time.Unix(created, 0),
			Updated: time.Unix(updated, 0),
		})
	}
	return out, rows.Err()
}

// Delete removes the named snapshot. Deleting a missing snapshot is not an
// error.
func (s *Store) Delete(name string) error {
	if s == nil {
		return fmt.Errorf("snapshot store not open")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM snapshots WHERE name = ?", name); err != nil {
		return fmt.Errorf("delete snapshot %q: %w", name, err)
	}
	return nil
}
