// Package notes implements the durable scratchpad used for context
// offloading: a categorized, append-only log that persists information
// outside the model's input window. Two backends share one contract, a
// single-file JSON document with atomic replacement and a SQLite store
// for installations that want database-grade durability.
package notes

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one scratchpad note. Entries are created by Write and are
// never mutated or deleted individually; the log is a replayable audit
// trail of everything the agents chose to remember.
type Entry struct {
	// Timestamp is the wall-clock write time. Within a category,
	// timestamps are non-decreasing.
	Timestamp time.Time `json:"timestamp"`

	// Content is the free-text note.
	Content string `json:"notes"`
}

// WriteReceipt confirms an append.
type WriteReceipt struct {
	// Category the entry was appended to.
	Category string

	// EntryCount is the number of entries in the category after the
	// append.
	EntryCount int
}

// CategorySnapshot is the ordered entry list of one category.
type CategorySnapshot struct {
	Name    string  `json:"category"`
	Entries []Entry `json:"entries"`
}

// Snapshot is a point-in-time copy of the whole store. Categories appear
// in first-write order; entries within a category in insertion order.
// Snapshots are copies; mutating one never affects the store.
type Snapshot struct {
	Categories []CategorySnapshot `json:"categories"`
}

// IsEmpty reports whether the snapshot holds no entries at all.
func (s Snapshot) IsEmpty() bool {
	for _, c := range s.Categories {
		if len(c.Entries) > 0 {
			return false
		}
	}
	return true
}

// Render formats the snapshot as bounded human-readable text, the shape
// handed back to the agent runtime: category headers with entry counts,
// then numbered, timestamped entries.
func (s Snapshot) Render() string {
	if s.IsEmpty() {
		return "scratchpad is empty, no notes have been saved yet"
	}
	var b strings.Builder
	b.WriteString("scratchpad contents\n")
	for _, cat := range s.Categories {
		fmt.Fprintf(&b, "\ncategory %q (%d entries)\n", cat.Name, len(cat.Entries))
		for i, e := range cat.Entries {
			fmt.Fprintf(&b, "%d. [%s]\n%s\n", i+1, e.Timestamp.Format(time.RFC3339), e.Content)
		}
	}
	return b.String()
}

// RenderCategory formats a single category's entries.
func RenderCategory(name string, entries []Entry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("no notes found in category %q", name)
	}
	return Snapshot{Categories: []CategorySnapshot{{Name: name, Entries: entries}}}.Render()
}

// Store is the scratchpad contract shared by the document and SQLite
// backends. Write is the only mutating primitive besides Reset; Reset
// deletes everything and is intended to run once at the start of a
// logical session, before any write.
type Store interface {
	// Write appends a timestamped entry under category, creating the
	// category on first use.
	Write(category, content string) (WriteReceipt, error)

	// Read returns the ordered entries of one category. A category that
	// was never written yields an empty slice, not an error.
	Read(category string) ([]Entry, error)

	// ReadAll returns every category with its entries.
	ReadAll() (Snapshot, error)

	// Reset deletes all persisted content.
	Reset() error

	// Close releases the backing resource.
	Close() error
}
