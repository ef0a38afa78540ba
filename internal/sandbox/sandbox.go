// Package sandbox executes caller-supplied Go snippets in an isolated
// yaegi interpreter. It exists so an agent can push bulk computation
// server-side, filter or aggregate large intermediate data in code, and
// return only a compact stdout result instead of paying context cost
// for every record.
//
// Isolation is an allow-list of compute-only stdlib imports; execution
// is bounded by a deadline and an output cap. Failures of any kind come
// back as data in the Result, never as an error or panic into the
// caller.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// FailureTimeout is the exact failure reason reported when execution
// exceeds its time limit.
const FailureTimeout = "timeout"

// Limits bounds one execution.
type Limits struct {
	// Timeout caps wall-clock execution time. Zero means DefaultTimeout.
	Timeout time.Duration

	// OutputLimit caps captured stdout in bytes. Zero means
	// DefaultOutputLimit. Exceeding it truncates the output and sets
	// Result.Truncated; truncation is signaled, never silent.
	OutputLimit int
}

// Default execution bounds.
const (
	DefaultTimeout     = 5 * time.Second
	DefaultOutputLimit = 16 * 1024
)

// normalized fills in defaults for unset fields.
func (l Limits) normalized() Limits {
	if l.Timeout <= 0 {
		l.Timeout = DefaultTimeout
	}
	if l.OutputLimit <= 0 {
		l.OutputLimit = DefaultOutputLimit
	}
	return l
}

// Result is the outcome of one execution. Exactly one of Stdout and
// FailureReason is populated.
type Result struct {
	// Stdout is the captured standard output, possibly truncated.
	Stdout string

	// Truncated reports that Stdout was cut at the output limit.
	Truncated bool

	// FailureReason describes why execution failed: "timeout", a
	// forbidden import, a compile or runtime fault. Empty on success.
	FailureReason string
}

// Failed reports whether the execution failed.
func (r Result) Failed() bool { return r.FailureReason != "" }

// Runner executes snippets. Each invocation gets a fresh interpreter, so
// executions never share state; a semaphore caps how many run at once.
type Runner struct {
	logger  *zap.Logger
	sem     *semaphore.Weighted
	allowed map[string]bool
	symbols interp.Exports
}

// NewRunner creates a runner. maxConcurrent <= 0 means unlimited.
func NewRunner(logger *zap.Logger, maxConcurrent int64) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := defaultAllowedImports()
	r := &Runner{
		logger:  logger,
		allowed: allowed,
		symbols: allowedSymbols(allowed),
	}
	if maxConcurrent > 0 {
		r.sem = semaphore.NewWeighted(maxConcurrent)
	}
	return r
}

// Execute runs code under the given limits and always returns a Result;
// it never returns an error and never panics into the caller. The
// runaway case is handled by yaegi's cancellable evaluation: when the
// deadline fires, the interpreter goroutine is stopped, not orphaned.
func (r *Runner) Execute(ctx context.Context, code string, limits Limits) Result {
	limits = limits.normalized()
	start := time.Now()

	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return Result{FailureReason: fmt.Sprintf("execution slot unavailable: %v", err)}
		}
		defer r.sem.Release(1)
	}

	if strings.TrimSpace(code) == "" {
		return Result{FailureReason: "no code provided"}
	}
	parsed, parseErr := parseCode(code)
	if parseErr == nil {
		if err := checkImports(parsed.imports, r.allowed); err != nil {
			r.logger.Debug("sandbox rejected code", zap.Error(err))
			return Result{FailureReason: err.Error()}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	out := newCappedWriter(limits.OutputLimit)
	result := r.run(ctx, code, parsed, parseErr != nil, out)

	r.logger.Debug("sandbox execution finished",
		zap.Duration("duration", time.Since(start)),
		zap.Bool("truncated", result.Truncated),
		zap.String("failure", result.FailureReason))
	return result
}

// run performs the interpretation. Any panic from the interpreter is
// recovered at this boundary and reported as a failure reason.
func (r *Runner) run(ctx context.Context, code string, parsed parsedCode, unparsed bool, out *cappedWriter) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = Result{FailureReason: fmt.Sprintf("panic during execution: %v", rec)}
		}
	}()

	i := interp.New(interp.Options{
		Stdout: out,
		Stderr: io.Discard,
	})
	if err := i.Use(r.symbols); err != nil {
		return Result{FailureReason: fmt.Sprintf("failed to load stdlib: %v", err)}
	}

	switch {
	case unparsed:
		// Unparsable source: evaluate raw and let the interpreter
		// report its own syntax error.
		if _, err := i.EvalWithContext(ctx, code); err != nil {
			return failureFrom(ctx, err)
		}
	case parsed.program:
		// A main package runs its main on evaluation.
		if _, err := i.EvalWithContext(ctx, code); err != nil {
			return failureFrom(ctx, err)
		}
	default:
		// Bare snippet: hoist its imports into the REPL scope, fill in
		// the rest of the allow-list so fmt, strings and friends need
		// no import block, then evaluate the statements.
		hoisted := make(map[string]bool, len(parsed.imports))
		for _, pkg := range parsed.imports {
			hoisted[pkg] = true
			if _, err := i.EvalWithContext(ctx, fmt.Sprintf("import %q", pkg)); err != nil {
				return failureFrom(ctx, err)
			}
		}
		for pkg := range r.allowed {
			if hoisted[pkg] {
				continue
			}
			if _, err := i.EvalWithContext(ctx, fmt.Sprintf("import %q", pkg)); err != nil {
				return failureFrom(ctx, err)
			}
		}
		if _, err := i.EvalWithContext(ctx, parsed.rest); err != nil {
			return failureFrom(ctx, err)
		}
	}

	stdout, truncated := out.contents()
	return Result{Stdout: stdout, Truncated: truncated}
}

// failureFrom maps an evaluation error to a Result, normalizing
// deadline expiry to the "timeout" reason.
func failureFrom(ctx context.Context, err error) Result {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return Result{FailureReason: FailureTimeout}
	}
	if ctx.Err() != nil {
		return Result{FailureReason: fmt.Sprintf("execution canceled: %v", ctx.Err())}
	}
	return Result{FailureReason: err.Error()}
}

// cappedWriter captures stdout up to a byte limit. Writes past the
// limit are counted as truncation but otherwise discarded, so runaway
// printers cannot exhaust memory.
type cappedWriter struct {
	mu        sync.Mutex
	buf       strings.Builder
	limit     int
	truncated bool
}

func newCappedWriter(limit int) *cappedWriter {
	return &cappedWriter{limit: limit}
}

// Write implements io.Writer. It always reports full success to the
// interpreted program; the cap is invisible from inside the sandbox.
func (w *cappedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		w.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		w.truncated = true
		return len(p), nil
	}
	w.buf.Write(p)
	return len(p), nil
}

func (w *cappedWriter) contents() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String(), w.truncated
}
