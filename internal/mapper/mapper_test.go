package mapper

import (
	"testing"

	"github.com/ledgrid/ledctld/internal/frame"
	"github.com/ledgrid/ledctld/internal/layout"
)

func parse(t *testing.T, desc layout.Description) *layout.Layout {
	t.Helper()
	l, err := layout.Parse(desc)
	if err != nil {
		t.Fatalf("layout.Parse() error = %v", err)
	}
	return l
}

func defaultCanvasDescription() layout.Description {
	return layout.Description{
		Grid: layout.GridDescription{GridWidth: 2, GridHeight: 2, PanelWidth: 16, PanelHeight: 16, WiringPattern: "snake"},
		Panels: []layout.PanelDescription{
			{ID: 0, Position: [2]int{0, 0}, Rotation: 0},
			{ID: 1, Position: [2]int{1, 0}, Rotation: 0},
			{ID: 2, Position: [2]int{1, 1}, Rotation: 180},
			{ID: 3, Position: [2]int{0, 1}, Rotation: 180},
		},
	}
}

// TestScenarioDefaultCanvas covers the default canvas mapping.
func TestScenarioDefaultCanvas(t *testing.T) {
	l := parse(t, defaultCanvasDescription())
	table, err := Build(l)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	w, h := l.CanvasSize()
	f := frame.New(w, h)
	f.Set(0, 0, frame.RGB{R: 255})

	n := l.LEDCount()
	phys := make([]frame.RGB, n)
	for v := 0; v < table.Len(); v++ {
		phys[table.Physical(v)] = f.Pix[v]
	}

	if phys[0] != (frame.RGB{R: 255}) {
		t.Errorf("phys[0] = %v, want red", phys[0])
	}
	for i := 1; i < n; i++ {
		if phys[i] != (frame.RGB{}) {
			t.Errorf("phys[%d] = %v, want black", i, phys[i])
		}
	}
}

func TestBijection(t *testing.T) {
	l := parse(t, defaultCanvasDescription())
	table, err := Build(l)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	seen := make(map[int]bool)
	for v := 0; v < table.Len(); v++ {
		p := table.Physical(v)
		if p < 0 || p >= l.LEDCount() {
			t.Fatalf("Physical(%d) = %d out of range [0,%d)", v, p, l.LEDCount())
		}
		if seen[p] {
			t.Fatalf("Physical(%d) = %d collides with an earlier virtual index", v, p)
		}
		seen[p] = true
	}
	if len(seen) != table.Len() {
		t.Fatalf("mapped %d distinct physical indices, want %d", len(seen), table.Len())
	}
}

func TestTrivialIdentity(t *testing.T) {
	desc := layout.Description{
		Grid: layout.GridDescription{GridWidth: 1, GridHeight: 1, PanelWidth: 1, PanelHeight: 1, WiringPattern: "sequential"},
		Panels: []layout.PanelDescription{
			{ID: 0, Position: [2]int{0, 0}, Rotation: 0},
		},
	}
	l := parse(t, desc)
	table, err := Build(l)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if table.Len() != 1 || table.Physical(0) != 0 {
		t.Errorf("1x1 identity mapping broken: len=%d phys(0)=%d", table.Len(), table.Physical(0))
	}
}

// TestNonSquareRotationBijection covers the boundary behaviour that
// rotating a non-square unit (pw != ph) by 90/270 still yields a bijection.
func TestNonSquareRotationBijection(t *testing.T) {
	for _, rot := range []int{90, 270} {
		desc := layout.Description{
			Grid: layout.GridDescription{GridWidth: 1, GridHeight: 1, PanelWidth: 8, PanelHeight: 4, WiringPattern: "sequential"},
			Panels: []layout.PanelDescription{
				{ID: 0, Position: [2]int{0, 0}, Rotation: rot},
			},
		}
		l := parse(t, desc)
		table, err := Build(l)
		if err != nil {
			t.Fatalf("rotation %d: Build() error = %v", rot, err)
		}

		seen := make(map[int]bool)
		for v := 0; v < table.Len(); v++ {
			p := table.Physical(v)
			if p < 0 || p >= l.LEDCount() || seen[p] {
				t.Fatalf("rotation %d: Physical(%d) = %d broke bijection", rot, v, p)
			}
			seen[p] = true
		}
	}
}

func TestVerticalSnakeWiring(t *testing.T) {
	desc := layout.Description{
		Grid: layout.GridDescription{GridWidth: 1, GridHeight: 1, PanelWidth: 2, PanelHeight: 2, WiringPattern: "vertical_snake"},
		Panels: []layout.PanelDescription{
			{ID: 0, Position: [2]int{0, 0}, Rotation: 0},
		},
	}
	l := parse(t, desc)
	table, err := Build(l)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// column 0 (even): top-to-bottom => (0,0)->0, (0,1)->1
	// column 1 (odd): bottom-to-top  => (1,1)->2, (1,0)->3
	want := map[[2]int]int{
		{0, 0}: 0,
		{0, 1}: 1,
		{1, 1}: 2,
		{1, 0}: 3,
	}
	for pos, wantPhys := range want {
		v := pos[1]*2 + pos[0]
		if got := table.Physical(v); got != wantPhys {
			t.Errorf("Physical(%v) = %d, want %d", pos, got, wantPhys)
		}
	}
}

func TestUncoveredCell(t *testing.T) {
	desc := layout.Description{
		Grid: layout.GridDescription{GridWidth: 2, GridHeight: 1, PanelWidth: 4, PanelHeight: 4, WiringPattern: "sequential"},
		Panels: []layout.PanelDescription{
			{ID: 0, Position: [2]int{0, 0}, Rotation: 0},
		},
	}
	l := parse(t, desc)
	if _, err := Build(l); err == nil {
		t.Fatal("Build() error = nil, want ErrUncoveredCell for the unpopulated grid cell")
	}
}
