package capability

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk shape of a capability catalog.
type catalogFile struct {
	Capabilities []Descriptor `yaml:"capabilities"`
}

// LoadFile reads a catalog of descriptors from a YAML file and validates
// it. The file lists descriptors under a top-level "capabilities" key so
// the harness can extend the capability set without recompiling.
func LoadFile(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog document.
func ParseCatalog(data []byte) ([]Descriptor, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := ValidateCatalog(cf.Capabilities); err != nil {
		return nil, err
	}
	return cf.Capabilities, nil
}
