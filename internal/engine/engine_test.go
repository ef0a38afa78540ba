package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saishshinde15/context-engineering/internal/notes"
	"github.com/saishshinde15/context-engineering/internal/sandbox"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()

	store, err := notes.OpenDocument(filepath.Join(dir, "scratchpad.json"), nil)
	require.NoError(t, err)

	e, err := New(Options{
		Store:       store,
		Preferences: notes.NewPreferences(filepath.Join(dir, "user_preference.txt")),
		Runner:      sandbox.NewRunner(nil, 2),
		Limits:      sandbox.Limits{Timeout: 2 * time.Second},
	})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e, dir
}

func TestEngineScratchpadRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	out, err := e.Registry().Execute(ctx, CapScratchpadWrite, map[string]any{
		"notes":    "Step 1: outline",
		"category": "plan",
	})
	require.NoError(t, err)
	assert.Contains(t, out, `"plan"`)
	assert.Contains(t, out, "1")

	_, err = e.Registry().Execute(ctx, CapScratchpadWrite, map[string]any{
		"notes":    "Step 2: search",
		"category": "plan",
	})
	require.NoError(t, err)

	out, err = e.Registry().Execute(ctx, CapScratchpadRead, map[string]any{
		"reasoning": "verifying the plan",
		"category":  "plan",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Step 1: outline")
	assert.Contains(t, out, "Step 2: search")
	require.True(t, strings.Index(out, "Step 1") < strings.Index(out, "Step 2"),
		"entries out of write order")

	// Unknown category reads are not errors.
	out, err = e.Registry().Execute(ctx, CapScratchpadRead, map[string]any{
		"reasoning": "checking empty category",
		"category":  "other",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "no notes found")
}

func TestEngineScratchpadDefaultCategory(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Registry().Execute(ctx, CapScratchpadWrite, map[string]any{
		"notes": "uncategorized thought",
	})
	require.NoError(t, err)

	out, err := e.Registry().Execute(ctx, CapScratchpadRead, map[string]any{
		"reasoning": "read back",
		"category":  DefaultCategory,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "uncategorized thought")
}

func TestEnginePreferences(t *testing.T) {
	e, dir := newTestEngine(t)
	ctx := context.Background()

	out, err := e.Registry().Execute(ctx, CapReadPreferences, map[string]any{
		"query": "format preferences",
	})
	require.NoError(t, err)
	assert.Equal(t, "no preferences found", out)

	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "user_preference.txt"),
		[]byte("Prefers tables over prose.\n"), 0o644))

	out, err = e.Registry().Execute(ctx, CapReadPreferences, map[string]any{
		"query": "format preferences",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Prefers tables over prose.")
}

func TestEngineRunCode(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	out, err := e.Registry().Execute(ctx, CapRunCode, map[string]any{
		"code": "fmt.Println(1 + 2 + 3)",
	})
	require.NoError(t, err)
	assert.Equal(t, "6\n", out)

	// No stdout is still a success.
	out, err = e.Registry().Execute(ctx, CapRunCode, map[string]any{
		"code": "x := 1\n_ = x",
	})
	require.NoError(t, err)
	assert.Equal(t, "code executed successfully (no output)", out)

	// Faults come back as data, not as an error.
	out, err = e.Registry().Execute(ctx, CapRunCode, map[string]any{
		"code": `import "os"` + "\nos.Exit(1)",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "execution failed")
	assert.Contains(t, out, "forbidden imports")

	// Timeout is reported in-band too; the JSON-style float argument
	// shape must be accepted.
	out, err = e.Registry().Execute(ctx, CapRunCode, map[string]any{
		"code":            "for {}",
		"timeout_seconds": float64(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "execution failed: timeout", out)
}

func TestEngineSelectionDisclosure(t *testing.T) {
	e, dir := newTestEngine(t)

	catalog := `
capabilities:
  - id: open_meteo_weather
    description: One day weather forecast by city name.
  - id: fx_rate
    description: Currency conversion rate lookup.
`
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0o644))
	require.NoError(t, e.LoadCatalog(path))

	selected, err := e.SelectForQuery("What is the weather in Tokyo?", 1)
	require.NoError(t, err)

	var always, matched []string
	for _, s := range selected {
		if s.AlwaysLoaded {
			always = append(always, s.Descriptor.ID)
		} else {
			matched = append(matched, s.Descriptor.ID)
		}
	}
	assert.Contains(t, always, CapScratchpadWrite)
	assert.Contains(t, always, CapScratchpadRead)
	assert.Equal(t, []string{"open_meteo_weather"}, matched,
		"weather must be the single matched optional capability")
}

func TestEngineStartSessionResets(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Registry().Execute(ctx, CapScratchpadWrite, map[string]any{
		"notes": "stale note from a previous run",
	})
	require.NoError(t, err)

	id, err := e.StartSession()
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	out, err := e.Registry().Execute(ctx, CapScratchpadRead, map[string]any{
		"reasoning": "fresh session check",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "empty")

	second, err := e.StartSession()
	require.NoError(t, err)
	assert.NotEqual(t, id, second)
}
