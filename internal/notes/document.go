package notes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DocumentStore persists the scratchpad as a single JSON document, the
// reference backend. Every write rebuilds the document and replaces it
// atomically (write to temp file, then rename); the in-memory cache is
// updated only after the rename succeeds.
type DocumentStore struct {
	path   string
	logger *zap.Logger

	mu         sync.RWMutex
	categories []CategorySnapshot
}

// OpenDocument loads (or lazily creates) the document store at path.
// A missing file is an empty store; a file that exists but does not
// decode is ErrCorrupt.
func OpenDocument(path string, logger *zap.Logger) (*DocumentStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DocumentStore{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read scratchpad %s: %w", path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	s.categories = snap.Categories
	logger.Debug("scratchpad loaded",
		zap.String("path", path),
		zap.Int("categories", len(snap.Categories)))
	return s, nil
}

// Write appends an entry under category. The append is all-or-nothing:
// if the durable replace fails, the in-memory state is left untouched
// and the error is returned.
func (s *DocumentStore) Write(category, content string) (WriteReceipt, error) {
	if category == "" {
		return WriteReceipt{}, ErrEmptyCategory
	}
	if content == "" {
		return WriteReceipt{}, ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{Timestamp: time.Now(), Content: content}

	// Build the updated document without touching current state.
	updated := make([]CategorySnapshot, len(s.categories))
	copy(updated, s.categories)
	idx := -1
	for i, c := range updated {
		if c.Name == category {
			idx = i
			break
		}
	}
	if idx == -1 {
		updated = append(updated, CategorySnapshot{Name: category})
		idx = len(updated) - 1
	}
	entries := make([]Entry, len(updated[idx].Entries), len(updated[idx].Entries)+1)
	copy(entries, updated[idx].Entries)
	updated[idx].Entries = append(entries, entry)

	if err := s.replace(Snapshot{Categories: updated}); err != nil {
		return WriteReceipt{}, err
	}
	s.categories = updated

	count := len(updated[idx].Entries)
	s.logger.Debug("scratchpad write",
		zap.String("category", category),
		zap.Int("entries", count))
	return WriteReceipt{Category: category, EntryCount: count}, nil
}

// Read returns the entries of one category, empty if never written.
func (s *DocumentStore) Read(category string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.Name == category {
			out := make([]Entry, len(c.Entries))
			copy(out, c.Entries)
			return out, nil
		}
	}
	return []Entry{}, nil
}

// ReadAll returns a deep copy of the whole store.
func (s *DocumentStore) ReadAll() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), nil
}

// Reset deletes all persisted content. It takes the writer lock, so no
// read or write can observe a half-cleared store.
func (s *DocumentStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reset scratchpad %s: %w", s.path, err)
	}
	s.categories = nil
	s.logger.Info("scratchpad reset", zap.String("path", s.path))
	return nil
}

// Close is a no-op for the document backend; it exists for Store
// interface symmetry with the SQLite backend.
func (s *DocumentStore) Close() error { return nil }

// Path returns the location of the durable document.
func (s *DocumentStore) Path() string { return s.path }

func (s *DocumentStore) snapshotLocked() Snapshot {
	cats := make([]CategorySnapshot, len(s.categories))
	for i, c := range s.categories {
		entries := make([]Entry, len(c.Entries))
		copy(entries, c.Entries)
		cats[i] = CategorySnapshot{Name: c.Name, Entries: entries}
	}
	return Snapshot{Categories: cats}
}

// replace atomically swaps the durable document for the given snapshot.
func (s *DocumentStore) replace(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scratchpad: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create scratchpad dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".scratchpad-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp scratchpad: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp scratchpad: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp scratchpad: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace scratchpad %s: %w", s.path, err)
	}
	return nil
}
