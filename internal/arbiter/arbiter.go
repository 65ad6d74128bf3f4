// Package arbiter serializes configuration changes (layout, brightness,
// pattern, schedule, power ceiling) against the display controller, which
// reads a consistent, immutable Snapshot once per tick.
package arbiter

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ledgrid/ledctld/internal/layout"
	"github.com/ledgrid/ledctld/internal/mapper"
	"github.com/ledgrid/ledctld/internal/patternrunner"
)

// ScheduleState is whether the display is currently expected to be lit.
type ScheduleState string

const (
	Awake  ScheduleState = "awake"
	Asleep ScheduleState = "asleep"
)

// PowerCeiling is the configured current limit.
type PowerCeiling struct {
	Amps    float64
	Enabled bool
}

// Snapshot is the immutable configuration the controller reads atomically
// at the top of every tick. Never mutated after publication — a change
// always produces a new Snapshot.
type Snapshot struct {
	Layout       *layout.Layout
	IndexTable   *mapper.IndexTable
	Brightness   uint8
	Pattern      patternrunner.Selection
	Schedule     ScheduleState
	PowerCeiling PowerCeiling
	// generation increases by one on every new Layout, letting the
	// controller detect "a new Layout was published since the previous
	// tick" without comparing pointers across goroutines.
	generation uint64
}

// Generation returns the Snapshot's layout generation counter.
func (s *Snapshot) Generation() uint64 { return s.generation }

// Persister persists a layout description so a hot-reloaded layout
// survives a restart. Implemented by internal/configstore; defined here to
// avoid an import cycle (arbiter must not depend on configstore's own
// arbiter-facing wiring).
type Persister interface {
	SaveLayout(desc layout.Description) error
}

// Arbiter owns the published Snapshot. Snapshot is lock-free for readers
// (atomic.Pointer load on the controller's hot path); Set* writers
// serialize on writeMu so two concurrent Set* calls always compose — one
// read-modify-store at a time — instead of racing to replace the whole
// Snapshot and silently dropping whichever field lost the race.
type Arbiter struct {
	current   atomic.Pointer[Snapshot]
	writeMu   sync.Mutex
	persister Persister
}

// New creates an Arbiter seeded with an initial layout description. The
// persister may be nil, in which case set_layout never persists.
func New(initial layout.Description, persister Persister) (*Arbiter, error) {
	l, err := layout.Parse(initial)
	if err != nil {
		return nil, fmt.Errorf("arbiter: initial layout: %w", err)
	}
	table, err := mapper.Build(l)
	if err != nil {
		return nil, fmt.Errorf("arbiter: initial layout index: %w", err)
	}

	a := &Arbiter{persister: persister}
	a.current.Store(&Snapshot{
		Layout:       l,
		IndexTable:   table,
		Brightness:   255,
		Pattern:      patternrunner.Selection{},
		Schedule:     Awake,
		PowerCeiling: PowerCeiling{Amps: 0, Enabled: false},
		generation:   1,
	})
	return a, nil
}

// Snapshot returns the currently published configuration. Cheap and
// lock-free; safe to call on the controller's hot path.
func (a *Arbiter) Snapshot() *Snapshot {
	return a.current.Load()
}

// SetBrightness publishes a new Snapshot with brightness b. b must be in
// [0, 255]; the type system already enforces the upper bound via uint8.
func (a *Arbiter) SetBrightness(b uint8) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	prev := a.current.Load()
	next := *prev
	next.Brightness = b
	a.current.Store(&next)
}

// SetPattern publishes a new Snapshot with the given pattern selection.
func (a *Arbiter) SetPattern(sel patternrunner.Selection) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	prev := a.current.Load()
	next := *prev
	next.Pattern = sel
	a.current.Store(&next)
}

// SetSchedule publishes a new Snapshot with the given schedule state.
func (a *Arbiter) SetSchedule(state ScheduleState) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	prev := a.current.Load()
	next := *prev
	next.Schedule = state
	a.current.Store(&next)
}

// SetPowerCeiling publishes a new Snapshot with the given power ceiling.
// Returns an error (leaving the prior Snapshot unchanged) if amps <= 0.
func (a *Arbiter) SetPowerCeiling(amps float64, enabled bool) error {
	if amps <= 0 {
		return fmt.Errorf("arbiter: power ceiling must be > 0, got %v", amps)
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	prev := a.current.Load()
	next := *prev
	next.PowerCeiling = PowerCeiling{Amps: amps, Enabled: enabled}
	a.current.Store(&next)
	return nil
}

// SetLayout parses desc, builds its IndexTable, and — only if both
// succeed — publishes a new Snapshot with the layout generation bumped.
// On success it also asks the Persister (if any) to save desc; a
// persistence failure is returned to the caller as a non-fatal error but
// does not roll back the already-published in-memory Snapshot.
func (a *Arbiter) SetLayout(desc layout.Description) error {
	l, err := layout.Parse(desc)
	if err != nil {
		return fmt.Errorf("arbiter: set_layout parse: %w", err)
	}
	table, err := mapper.Build(l)
	if err != nil {
		return fmt.Errorf("arbiter: set_layout index: %w", err)
	}

	a.writeMu.Lock()
	prev := a.current.Load()
	next := *prev
	next.Layout = l
	next.IndexTable = table
	next.generation = prev.generation + 1
	a.current.Store(&next)
	a.writeMu.Unlock()

	if a.persister != nil {
		if err := a.persister.SaveLayout(desc); err != nil {
			return fmt.Errorf("arbiter: layout applied but persistence failed: %w", err)
		}
	}
	return nil
}
