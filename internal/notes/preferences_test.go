package notes

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPreferencesRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user_preference.txt")

	prefs := NewPreferences(path)

	// Absent file is not an error.
	text, found, err := prefs.Read()
	if err != nil {
		t.Fatalf("Read of absent file must not error, got %v", err)
	}
	if found || text != "" {
		t.Errorf("absent file: found=%v text=%q", found, text)
	}

	// Blank file counts as no preferences.
	if err := os.WriteFile(path, []byte("   \n\t\n"), 0o644); err != nil {
		t.Fatalf("write blank file: %v", err)
	}
	if _, found, err = prefs.Read(); err != nil || found {
		t.Errorf("blank file: found=%v err=%v", found, err)
	}

	// A real preference comes back trimmed.
	if err := os.WriteFile(path, []byte("\nPrefers concise reports.\n"), 0o644); err != nil {
		t.Fatalf("write preference file: %v", err)
	}
	text, found, err = prefs.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !found || text != "Prefers concise reports." {
		t.Errorf("got found=%v text=%q", found, text)
	}
}
