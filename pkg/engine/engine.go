// Package engine evaluates Datum modeling scripts. It wraps zygomys in
// a sandboxed environment and builds a document from the script's
// geometry calls.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/perran/datum/pkg/doc"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning flags a script smell that does not stop evaluation, such
// as geometry that was built but never registered as a part.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	NodeID  doc.NodeID
}

// EvalResult bundles the full output of an evaluation for use by UI
// bindings. Document is nil when Errors is non-empty.
type EvalResult struct {
	Document *doc.Document
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for script evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs a modeling script and produces a new document.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: result with Document set, Errors nil
//   - On parse/eval failure: result with Errors set, Document nil
//   - On fatal failure (timeout, panic): nil result + error
func (e *Engine) Evaluate(source string) (*EvalResult, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, err := e.evaluate(source)
		ch <- evalResult{res: res, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*EvalResult, error) {
	d := doc.New()
	d.Materials = doc.DefaultMaterials()

	// Empty source is a valid program that produces an empty document.
	if strings.TrimSpace(source) == "" {
		return &EvalResult{Document: d}, nil
	}

	// Create a fresh sandboxed zygomys environment.
	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, d)

	// Load and compile the preprocessed source string into bytecode.
	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}, nil
	}

	// Execute the compiled bytecode. The builtins populate the document
	// as a side effect.
	_, err = env.Run()
	if err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}, nil
	}

	return &EvalResult{Document: d, Warnings: lintDocument(d)}, nil
}

// lintDocument reports script smells that are not errors: a script that
// built geometry but registered nothing, or nodes left dangling outside
// every registered part.
func lintDocument(d *doc.Document) []EvalWarning {
	if d.NodeCount() == 0 {
		return nil
	}
	if len(d.Roots) == 0 && len(d.PartDefs) == 0 {
		return []EvalWarning{{Message: "script built geometry but registered no part"}}
	}
	var warns []EvalWarning
	for _, id := range d.Unreachable() {
		n := d.Get(id)
		warns = append(warns, EvalWarning{
			NodeID:  id,
			Message: fmt.Sprintf("%s node %d is not reachable from any part", doc.OpType(n.Op), id),
		})
	}
	return warns
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// Try to extract line numbers from the error message.
	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	// Fallback: no line info available.
	return []EvalError{{
		Line:    0,
		Col:     0,
		Message: strings.TrimSpace(msg),
	}}
}
