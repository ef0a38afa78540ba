// Package engine is the orchestration facade: it wires capability
// selection, the note store, and the execution sandbox into a registry
// of invocable capabilities for the external agent runtime, and owns
// session lifecycle around them.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saishshinde15/context-engineering/internal/capability"
)

// HandlerFunc executes a capability with the given arguments.
type HandlerFunc func(ctx context.Context, args map[string]any) (string, error)

// Param documents one capability argument for disclosure to the agent
// runtime.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Capability pairs a descriptor with its invocation surface. A nil
// Handler marks a declared-only capability: it participates in
// selection and disclosure, but invocation belongs to the external
// runtime (the catalog file entries are all of this kind).
type Capability struct {
	Descriptor capability.Descriptor
	Params     []Param
	Handler    HandlerFunc
}

// requiredParams returns the names of required params.
func (c *Capability) requiredParams() []string {
	var names []string
	for _, p := range c.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Registry holds the capabilities exposed by this harness. It is
// thread-safe and preserves registration order, which doubles as the
// catalog order used for deterministic selection tie-breaks.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*Capability
	order    []string
	declared map[string]bool
	logger   *zap.Logger
}

// NewRegistry creates an empty capability registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		byName:   make(map[string]*Capability),
		declared: make(map[string]bool),
		logger:   logger,
	}
}

// Register adds an invocable capability.
func (r *Registry) Register(c *Capability) error {
	if err := c.Descriptor.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(c, false)
}

// RegisterDescriptor adds a declared-only capability.
func (r *Registry) RegisterDescriptor(d capability.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(&Capability{Descriptor: d}, true)
}

func (r *Registry) registerLocked(c *Capability, declaredOnly bool) error {
	name := c.Descriptor.ID
	if name == "" {
		return capability.ErrEmptyID
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.byName[name] = c
	r.order = append(r.order, name)
	if declaredOnly {
		r.declared[name] = true
	}
	r.logger.Debug("registered capability",
		zap.String("name", name),
		zap.Bool("mandatory", c.Descriptor.Mandatory),
		zap.Bool("declared_only", declaredOnly))
	return nil
}

// ReplaceDeclared swaps the declared-only capability set for the given
// descriptors in one step, keeping invocable capabilities untouched.
// Used by the catalog watcher on file change; in-flight selections keep
// the snapshot they already took.
func (r *Registry) ReplaceDeclared(descriptors []capability.Descriptor) error {
	if err := capability.ValidateCatalog(descriptors); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range descriptors {
		if _, ok := r.byName[d.ID]; ok && !r.declared[d.ID] {
			return fmt.Errorf("%w: %s shadows an invocable capability", ErrAlreadyRegistered, d.ID)
		}
	}

	kept := r.order[:0]
	for _, name := range r.order {
		if r.declared[name] {
			delete(r.byName, name)
			continue
		}
		kept = append(kept, name)
	}
	r.order = kept
	r.declared = make(map[string]bool)

	for i := range descriptors {
		d := descriptors[i]
		r.byName[d.ID] = &Capability{Descriptor: d}
		r.order = append(r.order, d.ID)
		r.declared[d.ID] = true
	}
	r.logger.Info("declared capabilities replaced", zap.Int("count", len(descriptors)))
	return nil
}

// Get returns a capability by name, or nil.
func (r *Registry) Get(name string) *Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Count returns the number of registered capabilities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Catalog returns an immutable descriptor snapshot in registration
// order, the input to one selection call.
func (r *Registry) Catalog() []capability.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]capability.Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].Descriptor)
	}
	return out
}

// Execute invokes a capability by name.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	c := r.Get(name)
	if c == nil {
		return "", fmt.Errorf("%w: %s", ErrCapabilityNotFound, name)
	}
	if c.Handler == nil {
		return "", fmt.Errorf("%w: %s", ErrNotInvocable, name)
	}
	for _, required := range c.requiredParams() {
		if _, ok := args[required]; !ok {
			return "", fmt.Errorf("%w: %s", ErrMissingArgument, required)
		}
	}

	start := time.Now()
	result, err := c.Handler(ctx, args)
	r.logger.Debug("capability executed",
		zap.String("name", name),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("success", err == nil))
	return result, err
}
