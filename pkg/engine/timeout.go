package engine

import (
	"fmt"
	"time"

	"github.com/chazu/interlock/pkg/module"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	params *module.Params
	errors []EvalError
	err    error
}

// runWithTimeout runs fn on its own goroutine and returns its result, or
// a timeout error once d has passed. A panic in fn becomes an error.
//
// On timeout the goroutine keeps running; its result goes into a
// buffered channel nobody reads and is collected with it.
func runWithTimeout(d time.Duration, fn func() evalResult) evalResult {
	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		ch <- fn()
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res
	case <-timer.C:
		return evalResult{err: fmt.Errorf("evaluation timed out after %s", d)}
	}
}
