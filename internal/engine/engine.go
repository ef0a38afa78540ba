package engine

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saishshinde15/context-engineering/internal/capability"
	"github.com/saishshinde15/context-engineering/internal/notes"
	"github.com/saishshinde15/context-engineering/internal/sandbox"
)

// Engine is the context budget manager facade. It decides what enters
// the agent's input window (selection), what is diverted to durable
// storage (the scratchpad), and what is pushed to external execution
// (the sandbox).
type Engine struct {
	logger   *zap.Logger
	registry *Registry
	store    notes.Store
	prefs    *notes.Preferences
	runner   *sandbox.Runner
	selector *capability.Selector
	limits   sandbox.Limits
}

// Options configures an Engine.
type Options struct {
	// Store is the scratchpad backend. Required.
	Store notes.Store

	// Preferences reads the companion user preference text. Optional.
	Preferences *notes.Preferences

	// Runner executes sandboxed code. Required.
	Runner *sandbox.Runner

	// Scorer ranks optional capabilities; nil means the reference
	// lexical scorer.
	Scorer capability.Scorer

	// Limits are the default sandbox bounds per execution.
	Limits sandbox.Limits

	Logger *zap.Logger
}

// New wires an engine and registers the built-in capabilities.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("engine requires a note store")
	}
	if opts.Runner == nil {
		return nil, fmt.Errorf("engine requires a sandbox runner")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		logger:   logger,
		registry: NewRegistry(logger),
		store:    opts.Store,
		prefs:    opts.Preferences,
		runner:   opts.Runner,
		selector: capability.NewSelector(opts.Scorer),
		limits:   opts.Limits,
	}
	if err := e.registerBuiltins(); err != nil {
		return nil, fmt.Errorf("register builtins: %w", err)
	}
	return e, nil
}

// Registry exposes the capability registry.
func (e *Engine) Registry() *Registry { return e.registry }

// LoadCatalog reads a YAML catalog and installs its descriptors as
// declared-only capabilities.
func (e *Engine) LoadCatalog(path string) error {
	descriptors, err := capability.LoadFile(path)
	if err != nil {
		return err
	}
	return e.registry.ReplaceDeclared(descriptors)
}

// Selected is one disclosed capability, annotated with why it was
// disclosed: always loaded (mandatory) or matched by ranking.
type Selected struct {
	Descriptor capability.Descriptor

	// AlwaysLoaded is true for mandatory capabilities; false means the
	// capability was matched against the query.
	AlwaysLoaded bool
}

// SelectForQuery returns the capability subset disclosed for this
// query: every mandatory capability plus the topK best-matching
// optional ones. The registry's current catalog is snapshotted once,
// so a concurrent catalog reload cannot tear a selection.
func (e *Engine) SelectForQuery(query string, topK int) ([]Selected, error) {
	catalog := e.registry.Catalog()
	chosen, err := e.selector.Select(query, catalog, topK)
	if err != nil {
		return nil, err
	}

	out := make([]Selected, len(chosen))
	for i, d := range chosen {
		out[i] = Selected{Descriptor: d, AlwaysLoaded: d.Mandatory}
	}
	e.logger.Debug("capabilities selected",
		zap.String("query", query),
		zap.Int("top_k", topK),
		zap.Int("catalog", len(catalog)),
		zap.Int("selected", len(out)))
	return out, nil
}

// StartSession resets the scratchpad for a fresh logical run and
// returns the new session id. Reset happens before any write of the
// session; callers must not run it concurrently with store access.
func (e *Engine) StartSession() (string, error) {
	if err := e.store.Reset(); err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	id := uuid.NewString()
	e.logger.Info("session started", zap.String("session_id", id))
	return id, nil
}

// Close releases the engine's owned resources.
func (e *Engine) Close() error {
	return e.store.Close()
}
