package arbiter

import (
	"errors"
	"testing"

	"github.com/ledgrid/ledctld/internal/layout"
	"github.com/ledgrid/ledctld/internal/patternrunner"
)

func smallDescription() layout.Description {
	return layout.Description{
		Grid: layout.GridDescription{GridWidth: 1, GridHeight: 1, PanelWidth: 4, PanelHeight: 4, WiringPattern: "sequential"},
		Panels: []layout.PanelDescription{
			{ID: 0, Position: [2]int{0, 0}, Rotation: 0},
		},
	}
}

func TestNewPublishesInitialSnapshot(t *testing.T) {
	a, err := New(smallDescription(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	snap := a.Snapshot()
	w, h := snap.Layout.CanvasSize()
	if w != 4 || h != 4 {
		t.Errorf("initial canvas = (%d,%d), want (4,4)", w, h)
	}
	if snap.Schedule != Awake {
		t.Errorf("initial schedule = %v, want Awake", snap.Schedule)
	}
	if snap.Generation() != 1 {
		t.Errorf("initial generation = %d, want 1", snap.Generation())
	}
}

func TestNewRejectsInvalidLayout(t *testing.T) {
	bad := smallDescription()
	bad.Grid.GridWidth = 0
	if _, err := New(bad, nil); err == nil {
		t.Error("New() error = nil, want error for invalid layout")
	}
}

func TestSetBrightnessPublishesNewSnapshot(t *testing.T) {
	a, _ := New(smallDescription(), nil)
	a.SetBrightness(77)
	if got := a.Snapshot().Brightness; got != 77 {
		t.Errorf("Brightness = %d, want 77", got)
	}
}

func TestSetPatternPublishesNewSnapshot(t *testing.T) {
	a, _ := New(smallDescription(), nil)
	sel := patternrunner.Selection{Name: "wipe"}
	a.SetPattern(sel)
	if got := a.Snapshot().Pattern; got.Name != sel.Name {
		t.Errorf("Pattern = %+v, want %+v", got, sel)
	}
}

func TestSetSchedulePublishesNewSnapshot(t *testing.T) {
	a, _ := New(smallDescription(), nil)
	a.SetSchedule(Asleep)
	if got := a.Snapshot().Schedule; got != Asleep {
		t.Errorf("Schedule = %v, want Asleep", got)
	}
}

func TestSetPowerCeilingValidation(t *testing.T) {
	a, _ := New(smallDescription(), nil)
	if err := a.SetPowerCeiling(0, true); err == nil {
		t.Error("SetPowerCeiling(0, ...) error = nil, want error")
	}
	if err := a.SetPowerCeiling(-1, true); err == nil {
		t.Error("SetPowerCeiling(-1, ...) error = nil, want error")
	}
	if err := a.SetPowerCeiling(5, true); err != nil {
		t.Fatalf("SetPowerCeiling(5, true) error = %v", err)
	}
	if got := a.Snapshot().PowerCeiling; got.Amps != 5 || !got.Enabled {
		t.Errorf("PowerCeiling = %+v, want {5 true}", got)
	}
}

func TestSetLayoutBumpsGeneration(t *testing.T) {
	a, _ := New(smallDescription(), nil)
	g0 := a.Snapshot().Generation()

	bigger := layout.Description{
		Grid: layout.GridDescription{GridWidth: 2, GridHeight: 1, PanelWidth: 4, PanelHeight: 4, WiringPattern: "sequential"},
		Panels: []layout.PanelDescription{
			{ID: 0, Position: [2]int{0, 0}, Rotation: 0},
			{ID: 1, Position: [2]int{1, 0}, Rotation: 0},
		},
	}
	if err := a.SetLayout(bigger); err != nil {
		t.Fatalf("SetLayout() error = %v", err)
	}

	snap := a.Snapshot()
	if snap.Generation() != g0+1 {
		t.Errorf("Generation() = %d, want %d", snap.Generation(), g0+1)
	}
	w, _ := snap.Layout.CanvasSize()
	if w != 8 {
		t.Errorf("CanvasSize().W = %d, want 8", w)
	}
}

func TestSetLayoutInvalidLeavesSnapshotUnchanged(t *testing.T) {
	a, _ := New(smallDescription(), nil)
	before := a.Snapshot()

	bad := smallDescription()
	bad.Grid.WiringPattern = "nonsense"
	if err := a.SetLayout(bad); err == nil {
		t.Fatal("SetLayout() error = nil, want error for invalid wiring")
	}

	if a.Snapshot() != before {
		t.Error("SetLayout() with an invalid description replaced the published Snapshot")
	}
}

type fakePersister struct {
	saved layout.Description
	err   error
}

func (f *fakePersister) SaveLayout(desc layout.Description) error {
	f.saved = desc
	return f.err
}

func TestSetLayoutPersistsOnSuccess(t *testing.T) {
	p := &fakePersister{}
	a, _ := New(smallDescription(), p)

	desc := smallDescription()
	desc.Grid.PanelWidth = 8
	if err := a.SetLayout(desc); err != nil {
		t.Fatalf("SetLayout() error = %v", err)
	}
	if p.saved.Grid.PanelWidth != 8 {
		t.Errorf("persister saved PanelWidth = %d, want 8", p.saved.Grid.PanelWidth)
	}
}

func TestSetLayoutPersistenceFailureDoesNotRollBack(t *testing.T) {
	wantErr := errors.New("disk full")
	p := &fakePersister{err: wantErr}
	a, _ := New(smallDescription(), p)

	desc := smallDescription()
	desc.Grid.PanelWidth = 8
	err := a.SetLayout(desc)
	if !errors.Is(err, wantErr) {
		t.Fatalf("SetLayout() error = %v, want wrapping %v", err, wantErr)
	}

	// In-memory Snapshot must still reflect the new layout despite the
	// persistence failure.
	w, _ := a.Snapshot().Layout.CanvasSize()
	if w != 8 {
		t.Errorf("CanvasSize().W = %d, want 8 (in-memory snapshot rolled back)", w)
	}
}
