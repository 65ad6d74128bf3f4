// Package patterns holds the builtin frame generators and the registry the
// Pattern Runner looks names up in. Every generator is a pure function of
// its (width, height, frame_counter, params) inputs; none may retain state
// across calls.
package patterns

import (
	"fmt"
	"sync"

	"github.com/ledgrid/ledctld/internal/frame"
)

// Generator produces one frame for a canvas of size w x h on tick counter,
// given pattern-specific parameters. It must not block and must return a
// frame of exactly (w, h).
type Generator func(w, h, counter int, params map[string]string) (*frame.Frame, error)

// Registry is a concurrency-safe name -> Generator lookup table.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]Generator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Generator)}
}

// Register adds or replaces the generator bound to name.
func (r *Registry) Register(name string, fn Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[name] = fn
}

// Lookup returns the generator bound to name, if any.
func (r *Registry) Lookup(name string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.byKey[name]
	return fn, ok
}

// Names returns the registered generator names, used by the control
// surface's "list patterns" endpoint. Order is not significant.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		names = append(names, k)
	}
	return names
}

// NewDefaultRegistry returns a Registry with every builtin generator
// registered under its canonical name.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("solid", Solid)
	r.Register("wipe", Wipe)
	r.Register("checker", Checker)
	r.Register("text", Text)
	r.Register("svg", SVG)
	return r
}

func missingParam(pattern, name string) error {
	return fmt.Errorf("pattern %q: missing required param %q", pattern, name)
}
