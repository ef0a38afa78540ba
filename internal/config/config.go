// Package config loads harness configuration from
// <workspace>/.ctxeng/config.json. A missing file yields defaults; a
// file that exists but does not parse is an error, never silently
// ignored.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store backends.
const (
	BackendDocument = "document"
	BackendSQLite   = "sqlite"
)

// Config holds all harness settings.
type Config struct {
	// TopK is the default optional-capability budget per selection.
	TopK int `json:"top_k"`

	// CatalogPath is the YAML capability catalog.
	CatalogPath string `json:"catalog_path"`

	// PreferencePath is the read-only user preference text file.
	PreferencePath string `json:"preference_path"`

	Store   StoreConfig   `json:"store"`
	Sandbox SandboxConfig `json:"sandbox"`
	Logging LoggingConfig `json:"logging"`
}

// StoreConfig selects and locates the scratchpad backend.
type StoreConfig struct {
	// Backend is "document" (single JSON file, default) or "sqlite".
	Backend string `json:"backend"`

	// Path is the scratchpad file or database location.
	Path string `json:"path"`
}

// SandboxConfig bounds sandboxed executions.
type SandboxConfig struct {
	TimeoutSeconds   int `json:"timeout_seconds"`
	OutputLimitBytes int `json:"output_limit_bytes"`
	MaxConcurrent    int `json:"max_concurrent"`
}

// Timeout returns the execution time limit.
func (s SandboxConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Debug bool `json:"debug"`
}

// Default returns the configuration for a workspace with no config
// file. The knowledge directory layout mirrors the scratchpad
// convention: knowledge/scratchpad.json next to
// knowledge/user_preference.txt.
func Default(workspace string) Config {
	knowledge := filepath.Join(workspace, "knowledge")
	return Config{
		TopK:           3,
		CatalogPath:    filepath.Join(workspace, "catalog.yaml"),
		PreferencePath: filepath.Join(knowledge, "user_preference.txt"),
		Store: StoreConfig{
			Backend: BackendDocument,
			Path:    filepath.Join(knowledge, "scratchpad.json"),
		},
		Sandbox: SandboxConfig{
			TimeoutSeconds:   5,
			OutputLimitBytes: 16 * 1024,
			MaxConcurrent:    4,
		},
	}
}

// Load reads <workspace>/.ctxeng/config.json merged over defaults.
func Load(workspace string) (Config, error) {
	cfg := Default(workspace)

	path := filepath.Join(workspace, ".ctxeng", "config.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks configured values.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendDocument, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.TopK < 0 {
		return fmt.Errorf("top_k cannot be negative, got %d", c.TopK)
	}
	if c.Sandbox.TimeoutSeconds < 0 {
		return fmt.Errorf("sandbox timeout cannot be negative, got %d", c.Sandbox.TimeoutSeconds)
	}
	if c.Sandbox.OutputLimitBytes < 0 {
		return fmt.Errorf("sandbox output limit cannot be negative, got %d", c.Sandbox.OutputLimitBytes)
	}
	return nil
}
