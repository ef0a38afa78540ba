// Package capability implements deferred capability loading: a catalog of
// capability descriptors, a pluggable relevance scorer, and a selector that
// decides which capabilities are disclosed to the agent runtime for a given
// query. Mandatory capabilities are always disclosed; the rest compete for a
// bounded number of slots ranked by query relevance.
package capability

import "fmt"

// Descriptor describes one capability that can be exposed to the agent
// runtime. Descriptors are plain values; a slice of them forms a catalog
// snapshot that selection never mutates.
type Descriptor struct {
	// ID is the unique, stable identifier of the capability.
	ID string `yaml:"id" json:"id"`

	// Description is free text used both for relevance ranking and for
	// disclosure to the runtime.
	Description string `yaml:"description" json:"description"`

	// Examples are example invocations. Documentation only; they have no
	// runtime effect.
	Examples []string `yaml:"examples,omitempty" json:"examples,omitempty"`

	// Mandatory capabilities bypass ranking and are always selected.
	Mandatory bool `yaml:"mandatory" json:"mandatory"`
}

// Validate checks a descriptor in isolation.
func (d Descriptor) Validate() error {
	if d.ID == "" {
		return ErrEmptyID
	}
	return nil
}

// ValidateCatalog checks that every descriptor is valid and that no two
// descriptors share an ID. A malformed catalog is a configuration problem
// and surfaces immediately; it is never silently corrected.
func ValidateCatalog(catalog []Descriptor) error {
	seen := make(map[string]bool, len(catalog))
	for _, d := range catalog {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}
