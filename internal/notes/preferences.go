package notes

import (
	"fmt"
	"os"
	"strings"
)

// Preferences reads the companion free-form user preference text. The
// file is read-only from this core's perspective and may be absent;
// absence is not an error.
type Preferences struct {
	path string
}

// NewPreferences points at the preference file, conventionally
// user_preference.txt next to the scratchpad.
func NewPreferences(path string) *Preferences {
	return &Preferences{path: path}
}

// Read returns the preference text. found is false when the file is
// absent or blank; only a real IO failure yields an error.
func (p *Preferences) Read() (text string, found bool, err error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read preferences %s: %w", p.path, err)
	}
	text = strings.TrimSpace(string(data))
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}
