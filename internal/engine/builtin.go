package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saishshinde15/context-engineering/internal/capability"
	"github.com/saishshinde15/context-engineering/internal/notes"
	"github.com/saishshinde15/context-engineering/internal/sandbox"
)

// Built-in capability names.
const (
	CapScratchpadWrite = "scratchpad_write"
	CapScratchpadRead  = "scratchpad_read"
	CapReadPreferences = "read_user_preferences"
	CapRunCode         = "run_code"
)

// DefaultCategory is used when a scratchpad write names no category.
const DefaultCategory = "general"

// registerBuiltins installs the invocable capabilities this harness
// implements itself. The scratchpad pair is mandatory, the baseline
// every agent turn gets; preference reading and sandboxed execution
// are deferred and compete for selection slots like any other
// capability.
func (e *Engine) registerBuiltins() error {
	builtins := []*Capability{
		{
			Descriptor: capability.Descriptor{
				ID: CapScratchpadWrite,
				Description: "Write notes to the persistent scratchpad for future reference. " +
					"Use this to offload plans, findings, or summaries so they stay " +
					"available without occupying the context window.",
				Examples: []string{
					`scratchpad_write(notes="Step 1: survey recent papers", category="research_plan")`,
					`scratchpad_write(notes="Competitor pricing is tiered")`,
				},
				Mandatory: true,
			},
			Params: []Param{
				{Name: "notes", Type: "string", Description: "Content to save", Required: true},
				{Name: "category", Type: "string", Description: "Grouping key, defaults to " + DefaultCategory},
			},
			Handler: e.scratchpadWrite,
		},
		{
			Descriptor: capability.Descriptor{
				ID: CapScratchpadRead,
				Description: "Read notes from the persistent scratchpad. Essential for " +
					"building on work saved earlier in the session, by you or another agent.",
				Examples: []string{
					`scratchpad_read(reasoning="need the research plan", category="research_plan")`,
					`scratchpad_read(reasoning="collect everything for synthesis")`,
				},
				Mandatory: true,
			},
			Params: []Param{
				{Name: "reasoning", Type: "string", Description: "Why this read is needed", Required: true},
				{Name: "category", Type: "string", Description: "Specific category, omit for all"},
			},
			Handler: e.scratchpadRead,
		},
		{
			Descriptor: capability.Descriptor{
				ID: CapReadPreferences,
				Description: "Read user preferences and requirements from the knowledge base " +
					"to understand what should guide the work.",
				Examples: []string{
					`read_user_preferences(query="report format preferences")`,
				},
			},
			Params: []Param{
				{Name: "query", Type: "string", Description: "What preference information is sought", Required: true},
			},
			Handler: e.readPreferences,
		},
		{
			Descriptor: capability.Descriptor{
				ID: CapRunCode,
				Description: "Run Go code in a sandbox for data processing, loops, and " +
					"aggregation. Use it to derive a compact result from bulk data " +
					"instead of carrying every record through the context window. " +
					"Print the result to stdout.",
				Examples: []string{
					`run_code(code="fmt.Println(1 + 2 + 3)")`,
					`run_code(code="total := 0\nfor _, n := range []int{4, 5, 6} { total += n }\nfmt.Println(total)")`,
				},
			},
			Params: []Param{
				{Name: "code", Type: "string", Description: "Go code to execute", Required: true},
				{Name: "timeout_seconds", Type: "number", Description: "Execution time limit"},
				{Name: "output_limit_bytes", Type: "number", Description: "Captured stdout cap"},
			},
			Handler: e.runCode,
		},
	}

	for _, c := range builtins {
		if err := e.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) scratchpadWrite(ctx context.Context, args map[string]any) (string, error) {
	content, err := stringArg(args, "notes")
	if err != nil {
		return "", err
	}
	category := optionalStringArg(args, "category", DefaultCategory)

	receipt, err := e.store.Write(category, content)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("saved to scratchpad under category %q, entries in this category: %d",
		receipt.Category, receipt.EntryCount), nil
}

func (e *Engine) scratchpadRead(ctx context.Context, args map[string]any) (string, error) {
	reasoning, err := stringArg(args, "reasoning")
	if err != nil {
		return "", err
	}
	// The reasoning forces intentional retrieval; it is recorded, not
	// interpreted.
	e.logger.Debug("scratchpad read requested", zap.String("reasoning", reasoning))

	if _, ok := args["category"]; ok {
		name, err := stringArg(args, "category")
		if err != nil {
			return "", err
		}
		entries, err := e.store.Read(name)
		if err != nil {
			return "", err
		}
		return notes.RenderCategory(name, entries), nil
	}

	snap, err := e.store.ReadAll()
	if err != nil {
		return "", err
	}
	return snap.Render(), nil
}

func (e *Engine) readPreferences(ctx context.Context, args map[string]any) (string, error) {
	if _, err := stringArg(args, "query"); err != nil {
		return "", err
	}
	if e.prefs == nil {
		return "no preferences found", nil
	}
	text, found, err := e.prefs.Read()
	if err != nil {
		return "", err
	}
	if !found {
		return "no preferences found", nil
	}
	return "user preferences:\n" + text, nil
}

// runCode always reports execution faults as text, never as an error:
// agent-authored code fails often and the agent loop must observe the
// reason, not crash on it.
func (e *Engine) runCode(ctx context.Context, args map[string]any) (string, error) {
	code, err := stringArg(args, "code")
	if err != nil {
		return "", err
	}

	limits := e.limits
	if secs, ok, err := intArg(args, "timeout_seconds"); err != nil {
		return "", err
	} else if ok {
		limits.Timeout = time.Duration(secs) * time.Second
	}
	if cap, ok, err := intArg(args, "output_limit_bytes"); err != nil {
		return "", err
	} else if ok {
		limits.OutputLimit = cap
	}

	result := e.runner.Execute(ctx, code, limits)
	return renderResult(result), nil
}

// renderResult turns a sandbox result into the bounded text handed back
// to the runtime.
func renderResult(r sandbox.Result) string {
	if r.Failed() {
		return "execution failed: " + r.FailureReason
	}
	if r.Stdout == "" {
		return "code executed successfully (no output)"
	}
	out := r.Stdout
	if r.Truncated {
		out += "\n[output truncated at limit]"
	}
	return out
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArgument, key)
	}
	return s, nil
}

func optionalStringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// intArg reads an optional numeric argument, accepting the float64 that
// JSON decoding produces as well as native ints.
func intArg(args map[string]any, key string) (int, bool, error) {
	v, ok := args[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return n, true, nil
	case int64:
		return int(n), true, nil
	case float64:
		return int(n), true, nil
	default:
		return 0, false, fmt.Errorf("%w: %s must be a number", ErrInvalidArgument, key)
	}
}
