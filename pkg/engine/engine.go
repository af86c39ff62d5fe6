// Package engine evaluates interlock module scripts. A script is a
// zygomys Lisp program that calls (interlock ...) once to describe the
// parameter set of one magnet module; every call to Evaluate runs in a
// fresh sandbox.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/interlock/pkg/module"
)

// EvalError is a non-fatal error in user code: a parse error, a runtime
// error or a malformed builtin call.
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

// sandboxMu serializes sandbox setup: zygomys keeps global state while
// creating an environment and registering functions.
var sandboxMu sync.Mutex

// Engine evaluates module scripts. Every call runs in its own sandbox, so
// one Engine may serve concurrent callers.
type Engine struct {
	// Timeout bounds a single evaluation. Zero means EvalTimeout.
	Timeout time.Duration
}

// NewEngine creates an Engine with the default timeout.
func NewEngine() *Engine {
	return &Engine{Timeout: EvalTimeout}
}

// Evaluate runs source and returns the parameters its (interlock ...)
// form describes. Keywords the script omits take their DefaultParams
// value; an omitted :split-at falls back to half the block height.
//
// Return semantics:
//   - On success: params + nil + nil
//   - On a script problem: nil + eval errors + nil
//   - On fatal failure (timeout, panic): nil + nil + error
//
// The parameters are not validated; pass them to module.Check.
func (e *Engine) Evaluate(source string) (*module.Params, []EvalError, error) {
	d := e.Timeout
	if d <= 0 {
		d = EvalTimeout
	}
	res := runWithTimeout(d, func() evalResult {
		p, evalErrs, err := e.evaluate(source)
		return evalResult{params: p, errors: evalErrs, err: err}
	})
	return res.params, res.errors, res.err
}

// evaluate performs the zygomys evaluation in a fresh sandbox, which keeps
// scripts away from the filesystem and syscalls.
func (e *Engine) evaluate(source string) (*module.Params, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return nil, []EvalError{{Message: errNoModule}}, nil
	}

	st := &scriptState{}
	env := newSandbox(st)
	defer env.Stop()

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if st.params == nil {
		return nil, []EvalError{{Message: errNoModule}}, nil
	}
	return st.params, nil, nil
}

func newSandbox(st *scriptState) *zygo.Zlisp {
	sandboxMu.Lock()
	defer sandboxMu.Unlock()
	env := zygo.NewZlispSandbox()
	registerBuiltins(env, st)
	return env
}

const errNoModule = "script does not call (interlock ...)"

// linePattern matches zygomys messages of the form "Error on line N: ...".
// The detail may continue over several lines.
var linePattern = regexp.MustCompile(`(?is)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches "line N: ...".
var linePatternShort = regexp.MustCompile(`(?is)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, keeping the
// line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
