package capability

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleCatalog = `
capabilities:
  - id: web_search
    description: Web search for fresh results.
    mandatory: true
    examples:
      - web_search("latest news about vector databases")
  - id: open_meteo_weather
    description: One day weather forecast by city name.
    examples:
      - get_weather("Tokyo")
  - id: fx_rate
    description: Currency conversion rate lookup.
`

func TestParseCatalog(t *testing.T) {
	catalog, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog failed: %v", err)
	}
	if len(catalog) != 3 {
		t.Fatalf("got %d descriptors, want 3", len(catalog))
	}
	if !catalog[0].Mandatory {
		t.Errorf("web_search should be mandatory")
	}
	if catalog[1].Mandatory {
		t.Errorf("open_meteo_weather should not be mandatory")
	}
	if len(catalog[0].Examples) != 1 {
		t.Errorf("web_search should carry one example, got %d", len(catalog[0].Examples))
	}
}

func TestParseCatalogRejectsDuplicates(t *testing.T) {
	doc := `
capabilities:
  - id: same
    description: first
  - id: same
    description: second
`
	_, err := ParseCatalog([]byte(doc))
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("got error %v, want ErrDuplicateID", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	catalog, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(catalog) != 3 {
		t.Errorf("got %d descriptors, want 3", len(catalog))
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing catalog file")
	}
}
