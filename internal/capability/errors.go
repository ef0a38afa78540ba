package capability

import "errors"

// Selection errors. These are structural problems with the catalog or the
// request; callers get them as explicit values and nothing is retried.
var (
	// ErrEmptyID is returned when a descriptor has no identifier.
	ErrEmptyID = errors.New("capability id cannot be empty")

	// ErrDuplicateID is returned when a catalog contains two descriptors
	// with the same identifier.
	ErrDuplicateID = errors.New("duplicate capability id")

	// ErrNegativeTopK is returned when a selection is requested with a
	// negative optional-capability budget.
	ErrNegativeTopK = errors.New("top_k cannot be negative")
)
