// Package patternrunner owns the currently active pattern generator and
// advances its per-generator frame counter once per controller tick.
package patternrunner

import (
	"fmt"
	"sync"

	"github.com/ledgrid/ledctld/internal/frame"
	"github.com/ledgrid/ledctld/internal/patterns"
)

// PatternFailure reports that a generator raised during a tick. The runner
// always reverts selection to external after returning one of these.
type PatternFailure struct {
	Name string
	Err  error
}

func (e *PatternFailure) Error() string {
	return fmt.Sprintf("pattern %q failed: %v", e.Name, e.Err)
}

func (e *PatternFailure) Unwrap() error { return e.Err }

// Selection names the active pattern. A zero-value Selection (empty Name)
// means external: the runner produces nothing and the controller relies
// entirely on ingress frames.
type Selection struct {
	Name   string
	Params map[string]string
}

func (s Selection) external() bool { return s.Name == "" }

// Runner holds at most one active generator selection and the frame
// counter driving it.
type Runner struct {
	registry *patterns.Registry

	mu         sync.Mutex
	selection  Selection
	generation uint64
	counter    int
	lastErr    error
}

// New creates a Runner that looks generators up in registry.
func New(registry *patterns.Registry) *Runner {
	return &Runner{registry: registry}
}

// SetSelection replaces the active selection and resets the frame counter.
// Called on an explicit pattern change, a Layout change, or on the
// asleep → awake transition — all of which must reset generator state per
// the counter-semantics contract.
func (r *Runner) SetSelection(sel Selection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selection = sel
	r.generation++
	r.counter = 0
	r.lastErr = nil
}

// Selection returns the currently active selection.
func (r *Runner) Selection() Selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selection
}

// LastError returns the most recent PatternFailure, if any generator has
// failed since the last successful selection change.
func (r *Runner) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Tick advances the frame counter and invokes the active generator for a
// canvas of size (w, h). It returns (nil, nil) when the selection is
// external — the controller then relies solely on the mailbox. On
// generator failure it reverts the selection to external and returns a
// *PatternFailure; the controller is expected to continue with the last
// successfully emitted frame.
func (r *Runner) Tick(w, h int) (*frame.Frame, error) {
	r.mu.Lock()
	sel := r.selection
	gen := r.generation
	counter := r.counter
	r.mu.Unlock()

	if sel.external() {
		return nil, nil
	}

	genFn, ok := r.registry.Lookup(sel.Name)
	if !ok {
		failure := &PatternFailure{Name: sel.Name, Err: fmt.Errorf("no generator registered")}
		r.revert(failure)
		return nil, failure
	}

	f, err := genFn(w, h, counter, sel.Params)
	if err != nil {
		failure := &PatternFailure{Name: sel.Name, Err: err}
		r.revert(failure)
		return nil, failure
	}
	if !f.SameSize(w, h) {
		failure := &PatternFailure{Name: sel.Name, Err: fmt.Errorf("generator returned %dx%d, want %dx%d", f.W, f.H, w, h)}
		r.revert(failure)
		return nil, failure
	}

	r.mu.Lock()
	if r.generation == gen {
		r.counter++
	}
	r.mu.Unlock()

	return f, nil
}

func (r *Runner) revert(failure *PatternFailure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selection = Selection{}
	r.generation++
	r.counter = 0
	r.lastErr = failure
}
