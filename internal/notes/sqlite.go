package notes

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists the scratchpad in an embedded SQLite database.
// It implements the same Store contract as DocumentStore; installations
// pick it via config when multiple processes share one scratchpad and a
// single JSON document would thrash. Appends are transactional, so the
// receipt count and the durable row always agree.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// OpenSQLite initializes the SQLite scratchpad at the given path.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratchpad dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open scratchpad db %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set journal_mode=WAL", zap.Error(err))
	}

	schema := `CREATE TABLE IF NOT EXISTS notes (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		ts       TEXT NOT NULL,
		content  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notes_category ON notes(category);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", ErrCorrupt, err)
	}

	logger.Debug("sqlite scratchpad opened", zap.String("path", path))
	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

// Write appends an entry in a single transaction and returns the entry
// count for the category after the append.
func (s *SQLiteStore) Write(category, content string) (WriteReceipt, error) {
	if category == "" {
		return WriteReceipt{}, ErrEmptyCategory
	}
	if content == "" {
		return WriteReceipt{}, ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return WriteReceipt{}, ErrClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return WriteReceipt{}, fmt.Errorf("begin scratchpad write: %w", err)
	}
	defer tx.Rollback()

	ts := time.Now().Format(time.RFC3339Nano)
	if _, err := tx.Exec(
		"INSERT INTO notes (category, ts, content) VALUES (?, ?, ?)",
		category, ts, content,
	); err != nil {
		return WriteReceipt{}, fmt.Errorf("append note: %w", err)
	}

	var count int
	if err := tx.QueryRow(
		"SELECT COUNT(*) FROM notes WHERE category = ?", category,
	).Scan(&count); err != nil {
		return WriteReceipt{}, fmt.Errorf("count notes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return WriteReceipt{}, fmt.Errorf("commit scratchpad write: %w", err)
	}

	s.logger.Debug("scratchpad write",
		zap.String("category", category),
		zap.Int("entries", count))
	return WriteReceipt{Category: category, EntryCount: count}, nil
}

// Read returns the entries of one category in insertion order.
func (s *SQLiteStore) Read(category string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.Query(
		"SELECT ts, content FROM notes WHERE category = ? ORDER BY id",
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("read category %q: %w", category, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReadAll returns every category in first-write order, derived from row
// order: a category's position is the position of its earliest entry.
func (s *SQLiteStore) ReadAll() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Snapshot{}, ErrClosed
	}

	rows, err := s.db.Query("SELECT category, ts, content FROM notes ORDER BY id")
	if err != nil {
		return Snapshot{}, fmt.Errorf("read scratchpad: %w", err)
	}
	defer rows.Close()

	var snap Snapshot
	index := make(map[string]int)
	for rows.Next() {
		var category, ts, content string
		if err := rows.Scan(&category, &ts, &content); err != nil {
			return Snapshot{}, fmt.Errorf("scan note: %w", err)
		}
		when, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: bad timestamp %q: %v", ErrCorrupt, ts, err)
		}
		i, ok := index[category]
		if !ok {
			i = len(snap.Categories)
			index[category] = i
			snap.Categories = append(snap.Categories, CategorySnapshot{Name: category})
		}
		snap.Categories[i].Entries = append(snap.Categories[i].Entries,
			Entry{Timestamp: when, Content: content})
	}
	return snap, rows.Err()
}

// Reset deletes every note. Readers and writers are excluded for the
// duration by the writer lock.
func (s *SQLiteStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, err := s.db.Exec("DELETE FROM notes"); err != nil {
		return fmt.Errorf("reset scratchpad: %w", err)
	}
	s.logger.Info("scratchpad reset", zap.String("path", s.path))
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var ts, content string
	if err := row.Scan(&ts, &content); err != nil {
		return Entry{}, fmt.Errorf("scan note: %w", err)
	}
	when, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: bad timestamp %q: %v", ErrCorrupt, ts, err)
	}
	return Entry{Timestamp: when, Content: content}, nil
}
