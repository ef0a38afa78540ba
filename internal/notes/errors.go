package notes

import "errors"

// Store errors. IO failures from the durable medium are wrapped with
// %w so callers can unwrap the underlying cause; corruption is distinct
// from absence, which read operations treat as empty.
var (
	// ErrEmptyCategory is returned when a write names no category.
	ErrEmptyCategory = errors.New("note category cannot be empty")

	// ErrEmptyContent is returned when a write carries no content.
	ErrEmptyContent = errors.New("note content cannot be empty")

	// ErrCorrupt is returned when the durable document exists but cannot
	// be decoded. Unlike a missing document, this never degrades to an
	// empty read.
	ErrCorrupt = errors.New("note store document is corrupt")

	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("note store is closed")
)
