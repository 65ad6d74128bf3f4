// Package mailbox implements the single-slot, latest-wins hand-off between
// frame producers (ingress sources, the pattern runner) and the display
// controller. Its critical section covers only the pointer swap; producers
// never block and never see backpressure.
package mailbox

import (
	"sync"

	"github.com/ledgrid/ledctld/internal/frame"
)

// RejectReason explains why Submit refused a frame.
type RejectReason string

const (
	// DimensionMismatch is returned when the submitted frame's dimensions
	// differ from the mailbox's configured canvas size.
	DimensionMismatch RejectReason = "dimension_mismatch"
)

// entry is the frame held in the slot, tagged with a monotonically
// increasing sequence number so callers can tell submissions apart even
// when two frames happen to be pixel-identical.
type entry struct {
	frame *frame.Frame
	tag   uint64
}

// Mailbox holds at most one pending frame. Safe for concurrent Submit calls
// from many goroutines; Take is intended to be called by a single reader
// (the controller), though it is also safe to call concurrently.
type Mailbox struct {
	mu      sync.Mutex
	w, h    int
	pending *entry
	nextTag uint64
}

// New creates a Mailbox that only accepts frames of size w x h.
func New(w, h int) *Mailbox {
	return &Mailbox{w: w, h: h}
}

// Resize updates the canvas size the mailbox accepts, discarding any
// pending frame from the old canvas. Called by the controller immediately
// after it observes a new Layout.
func (m *Mailbox) Resize(w, h int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.w, m.h = w, h
	m.pending = nil
}

// Submit overwrites any unconsumed frame with f (latest-wins). It rejects f
// with DimensionMismatch if f's size does not match the mailbox's current
// canvas.
func (m *Mailbox) Submit(f *frame.Frame) (ok bool, reason RejectReason) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !f.SameSize(m.w, m.h) {
		return false, DimensionMismatch
	}

	m.nextTag++
	m.pending = &entry{frame: f, tag: m.nextTag}
	return true, ""
}

// Take empties the slot and returns its contents, if any.
func (m *Mailbox) Take() (f *frame.Frame, tag uint64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return nil, 0, false
	}
	e := m.pending
	m.pending = nil
	return e.frame, e.tag, true
}

// Depth reports whether a frame is currently pending (0 or 1, matching the
// single-slot design).
func (m *Mailbox) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return 0
	}
	return 1
}
