package notes

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func openTestDocument(t *testing.T) (*DocumentStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scratchpad.json")
	store, err := OpenDocument(path, nil)
	if err != nil {
		t.Fatalf("OpenDocument failed: %v", err)
	}
	return store, path
}

func TestDocumentWriteThenRead(t *testing.T) {
	store, _ := openTestDocument(t)

	r1, err := store.Write("plan", "Step 1: outline")
	if err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if r1.EntryCount != 1 {
		t.Errorf("first receipt count = %d, want 1", r1.EntryCount)
	}

	r2, err := store.Write("plan", "Step 2: search")
	if err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if r2.EntryCount != 2 {
		t.Errorf("second receipt count = %d, want 2", r2.EntryCount)
	}

	entries, err := store.Read("plan")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Content != "Step 1: outline" || entries[1].Content != "Step 2: search" {
		t.Errorf("entries out of order: %q, %q", entries[0].Content, entries[1].Content)
	}
	if entries[1].Timestamp.Before(entries[0].Timestamp) {
		t.Errorf("timestamps not non-decreasing")
	}
}

func TestDocumentReadUnknownCategory(t *testing.T) {
	store, _ := openTestDocument(t)

	entries, err := store.Read("other")
	if err != nil {
		t.Fatalf("Read of unknown category must not error, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestDocumentAppendOnly(t *testing.T) {
	store, _ := openTestDocument(t)

	const n = 25
	for i := 0; i < n; i++ {
		receipt, err := store.Write("findings", "note")
		if err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
		if receipt.EntryCount != i+1 {
			t.Fatalf("write %d: count = %d, never allowed to shrink", i, receipt.EntryCount)
		}
	}

	entries, err := store.Read("findings")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != n {
		t.Errorf("got %d entries, want %d", len(entries), n)
	}
}

func TestDocumentRoundTripRestart(t *testing.T) {
	store, path := openTestDocument(t)

	written := []string{"alpha", "beta", "gamma"}
	for _, content := range written {
		if _, err := store.Write("research", content); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	if _, err := store.Write("summary", "done"); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Simulate a crash-free restart: a fresh store reads the same file.
	reopened, err := OpenDocument(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	entries, err := reopened.Read("research")
	if err != nil {
		t.Fatalf("Read after reopen failed: %v", err)
	}
	if len(entries) != len(written) {
		t.Fatalf("got %d entries after reopen, want %d", len(entries), len(written))
	}
	for i, want := range written {
		if entries[i].Content != want {
			t.Errorf("entry %d content = %q, want %q", i, entries[i].Content, want)
		}
	}

	snap, err := reopened.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(snap.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(snap.Categories))
	}
	// First-write order survives the restart.
	if snap.Categories[0].Name != "research" || snap.Categories[1].Name != "summary" {
		t.Errorf("category order = %s, %s", snap.Categories[0].Name, snap.Categories[1].Name)
	}
}

func TestDocumentResetClearsAll(t *testing.T) {
	store, path := openTestDocument(t)

	if _, err := store.Write("plan", "something"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := store.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	snap, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !snap.IsEmpty() {
		t.Errorf("store not empty after reset: %+v", snap)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("durable document still present after reset")
	}

	// Reset on an already-empty store is fine.
	if err := store.Reset(); err != nil {
		t.Errorf("second Reset failed: %v", err)
	}
}

func TestDocumentCorruptFileSurfaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scratchpad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	_, err := OpenDocument(path, nil)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("got error %v, want ErrCorrupt", err)
	}
}

func TestDocumentRejectsEmptyCategoryAndContent(t *testing.T) {
	store, _ := openTestDocument(t)

	if _, err := store.Write("", "content"); !errors.Is(err, ErrEmptyCategory) {
		t.Errorf("empty category: got %v, want ErrEmptyCategory", err)
	}
	if _, err := store.Write("plan", ""); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("empty content: got %v, want ErrEmptyContent", err)
	}

	// Failed writes leave no trace.
	snap, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !snap.IsEmpty() {
		t.Errorf("rejected writes must not create state: %+v", snap)
	}
}

func TestDocumentSnapshotIsCopy(t *testing.T) {
	store, _ := openTestDocument(t)
	if _, err := store.Write("plan", "original"); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	snap, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	snap.Categories[0].Entries[0].Content = "tampered"

	entries, err := store.Read("plan")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if entries[0].Content != "original" {
		t.Errorf("mutating a snapshot leaked into the store")
	}
}

func TestDocumentConcurrentWrites(t *testing.T) {
	store, _ := openTestDocument(t)

	const writers = 8
	const perWriter = 5
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				if _, err := store.Write("shared", "note"); err != nil {
					t.Errorf("concurrent write failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	entries, err := store.Read("shared")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != writers*perWriter {
		t.Errorf("got %d entries, want %d", len(entries), writers*perWriter)
	}
}

func TestSnapshotRender(t *testing.T) {
	store, _ := openTestDocument(t)
	if _, err := store.Write("plan", "Step 1: outline"); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	snap, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	text := snap.Render()
	if !strings.Contains(text, `category "plan"`) {
		t.Errorf("rendered text missing category header: %q", text)
	}
	if !strings.Contains(text, "Step 1: outline") {
		t.Errorf("rendered text missing entry content: %q", text)
	}

	empty := Snapshot{}
	if !strings.Contains(empty.Render(), "empty") {
		t.Errorf("empty snapshot should render as empty notice")
	}
}
