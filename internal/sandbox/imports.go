package sandbox

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Default import allow-list: compute-only stdlib packages. Isolation is
// capability-based: anything not listed has no symbols loaded into the
// interpreter, so executed code has no ambient filesystem, network, or
// process access. The scratchpad and any other side-effecting
// capability must be injected explicitly by the caller, never reached
// from inside.
func defaultAllowedImports() map[string]bool {
	return map[string]bool{
		"strings":         true,
		"strconv":         true,
		"fmt":             true,
		"math":            true,
		"regexp":          true,
		"encoding/json":   true,
		"encoding/base64": true,
		"encoding/csv":    true,
		"time":            true,
		"sort":            true,
		"bytes":           true,
		"unicode":         true,
		"unicode/utf8":    true,
		"errors":          true,

		// Blocked on purpose: os, os/exec, io, net, net/http, syscall,
		// unsafe, plugin, runtime, reflect.
	}
}

// allowedSymbols filters the interpreter's stdlib bindings down to the
// allow-list. Binding keys carry a trailing package name segment
// ("encoding/json/json"), so the import path is everything before the
// final slash. This is where isolation is actually enforced: a package
// outside the allow-list has no symbols loaded at all, so an import the
// textual check never saw still cannot resolve.
func allowedSymbols(allowed map[string]bool) interp.Exports {
	syms := make(interp.Exports, len(allowed))
	for key, bindings := range stdlib.Symbols {
		path := key
		if i := strings.LastIndex(key, "/"); i >= 0 {
			path = key[:i]
		}
		if allowed[path] {
			syms[key] = bindings
		}
	}
	return syms
}

// parsedCode is the import structure of one submission.
type parsedCode struct {
	// program marks source carrying its own package clause; it is
	// evaluated as a complete file.
	program bool

	imports []string

	// rest holds a bare snippet's statements after its import
	// declarations; the runner hoists the imports into interpreter
	// scope separately.
	rest string
}

const snippetPrefix = "package main\n"

// parseCode reads the import declarations of code, which may be a full
// file or a bare snippet.
func parseCode(code string) (parsedCode, error) {
	fset := token.NewFileSet()
	if f, perr := parser.ParseFile(fset, "input.go", code, parser.ImportsOnly); perr == nil {
		return parsedCode{program: true, imports: importPaths(f)}, nil
	}

	src := snippetPrefix + code
	fset = token.NewFileSet()
	f, err := parser.ParseFile(fset, "input.go", src, parser.ImportsOnly)
	if err != nil {
		return parsedCode{}, err
	}

	end := len(snippetPrefix)
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.IMPORT {
			continue
		}
		if offset := fset.Position(gd.End()).Offset; offset > end {
			end = offset
		}
	}
	if end > len(src) {
		end = len(src)
	}
	return parsedCode{
		imports: importPaths(f),
		rest:    strings.TrimLeft(src[end:], "; \t\r\n"),
	}, nil
}

func importPaths(f *ast.File) []string {
	paths := make([]string, 0, len(f.Imports))
	for _, spec := range f.Imports {
		if path, err := strconv.Unquote(spec.Path.Value); err == nil {
			paths = append(paths, path)
		}
	}
	return paths
}

// checkImports rejects import paths outside the allow-list.
func checkImports(imports []string, allowed map[string]bool) error {
	var forbidden []string
	for _, pkg := range imports {
		if !allowed[pkg] {
			forbidden = append(forbidden, pkg)
		}
	}
	if len(forbidden) == 0 {
		return nil
	}

	permitted := make([]string, 0, len(allowed))
	for pkg := range allowed {
		permitted = append(permitted, pkg)
	}
	sort.Strings(permitted)
	return fmt.Errorf("forbidden imports: %s (allowed: %s)",
		strings.Join(forbidden, ", "), strings.Join(permitted, ", "))
}

// validateImports parses code and rejects forbidden imports with a
// message naming them. Unparsable code passes here: it cannot resolve
// symbols outside allowedSymbols regardless, and evaluation reports
// the syntax error itself.
func validateImports(code string, allowed map[string]bool) error {
	parsed, err := parseCode(code)
	if err != nil {
		return nil
	}
	return checkImports(parsed.imports, allowed)
}
