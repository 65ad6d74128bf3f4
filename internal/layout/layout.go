// Package layout parses and validates the panel-grid description that
// drives the coordinate mapper. It holds data only; nothing here mutates
// once parsed.
package layout

import (
	"errors"
	"fmt"
)

// Wiring is the intra-unit wiring mode of the whole grid.
type Wiring string

const (
	Sequential    Wiring = "sequential"
	Snake         Wiring = "snake"
	VerticalSnake Wiring = "vertical_snake"
)

func (w Wiring) valid() bool {
	switch w {
	case Sequential, Snake, VerticalSnake:
		return true
	}
	return false
}

// Rotation is the physical orientation of a unit relative to canvas up.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Unit is one LED panel in the chain.
type Unit struct {
	ChainIndex int
	Col, Row   int
	Rotation   Rotation
}

// Layout is the immutable, validated grid description.
type Layout struct {
	GridWidth, GridHeight   int
	PanelWidth, PanelHeight int
	Wiring                  Wiring
	Units                   []Unit
}

// Sentinel validation errors, returned (optionally wrapped with
// fmt.Errorf("%w: ...")) from Parse.
var (
	ErrZeroDimension           = errors.New("zero dimension")
	ErrInvalidWiring           = errors.New("invalid wiring pattern")
	ErrRotationNotMultipleOf90 = errors.New("rotation not a multiple of 90")
	ErrOutOfBoundsPosition     = errors.New("grid position out of bounds")
	ErrDuplicateGridPosition   = errors.New("duplicate grid position")
	ErrDuplicateChainIndex     = errors.New("duplicate chain index")
	ErrUnitCountMismatch       = errors.New("chain index out of range for unit count")
)

// GridDescription is the "grid" object of the persisted Layout document.
type GridDescription struct {
	GridWidth     int    `json:"grid_width"`
	GridHeight    int    `json:"grid_height"`
	PanelWidth    int    `json:"panel_width"`
	PanelHeight   int    `json:"panel_height"`
	WiringPattern string `json:"wiring_pattern"`
}

// PanelDescription is one entry of the persisted document's "panels" array.
type PanelDescription struct {
	ID       int    `json:"id"`
	Position [2]int `json:"position"`
	Rotation int    `json:"rotation"`
}

// Description is the full persisted Layout document.
type Description struct {
	Grid   GridDescription    `json:"grid"`
	Panels []PanelDescription `json:"panels"`
}

// Parse validates desc and builds a Layout, or returns one of the sentinel
// errors above (wrapped with context) on the first violation found.
func Parse(desc Description) (*Layout, error) {
	g := desc.Grid
	if g.GridWidth <= 0 || g.GridHeight <= 0 || g.PanelWidth <= 0 || g.PanelHeight <= 0 {
		return nil, fmt.Errorf("%w: grid=%dx%d panel=%dx%d", ErrZeroDimension, g.GridWidth, g.GridHeight, g.PanelWidth, g.PanelHeight)
	}

	wiring := Wiring(g.WiringPattern)
	if !wiring.valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWiring, g.WiringPattern)
	}

	units := make([]Unit, 0, len(desc.Panels))
	seenPos := make(map[[2]int]bool, len(desc.Panels))
	seenChain := make(map[int]bool, len(desc.Panels))

	for _, p := range desc.Panels {
		if p.Rotation%90 != 0 {
			return nil, fmt.Errorf("%w: panel %d rotation %d", ErrRotationNotMultipleOf90, p.ID, p.Rotation)
		}
		rot := Rotation(((p.Rotation % 360) + 360) % 360)
		if rot != Rotate0 && rot != Rotate90 && rot != Rotate180 && rot != Rotate270 {
			return nil, fmt.Errorf("%w: panel %d rotation %d", ErrRotationNotMultipleOf90, p.ID, p.Rotation)
		}

		col, row := p.Position[0], p.Position[1]
		if col < 0 || col >= g.GridWidth || row < 0 || row >= g.GridHeight {
			return nil, fmt.Errorf("%w: panel %d position (%d,%d)", ErrOutOfBoundsPosition, p.ID, col, row)
		}

		pos := [2]int{col, row}
		if seenPos[pos] {
			return nil, fmt.Errorf("%w: position (%d,%d)", ErrDuplicateGridPosition, col, row)
		}
		seenPos[pos] = true

		if p.ID < 0 || p.ID >= len(desc.Panels) {
			return nil, fmt.Errorf("%w: chain index %d for %d units", ErrUnitCountMismatch, p.ID, len(desc.Panels))
		}
		if seenChain[p.ID] {
			return nil, fmt.Errorf("%w: chain index %d", ErrDuplicateChainIndex, p.ID)
		}
		seenChain[p.ID] = true

		units = append(units, Unit{ChainIndex: p.ID, Col: col, Row: row, Rotation: rot})
	}

	return &Layout{
		GridWidth:   g.GridWidth,
		GridHeight:  g.GridHeight,
		PanelWidth:  g.PanelWidth,
		PanelHeight: g.PanelHeight,
		Wiring:      wiring,
		Units:       units,
	}, nil
}

// CanvasSize returns the virtual canvas dimensions (W, H).
func (l *Layout) CanvasSize() (w, h int) {
	return l.GridWidth * l.PanelWidth, l.GridHeight * l.PanelHeight
}

// LEDCount returns N, the total number of physical LEDs in the chain.
func (l *Layout) LEDCount() int {
	return len(l.Units) * l.PanelWidth * l.PanelHeight
}

// UnitAt returns the unit covering grid cell (col, row), if any.
func (l *Layout) UnitAt(col, row int) (Unit, bool) {
	for _, u := range l.Units {
		if u.Col == col && u.Row == row {
			return u, true
		}
	}
	return Unit{}, false
}

// Describe converts a Layout back into its persisted document shape, used
// by the control surface's "get layout" handler.
func (l *Layout) Describe() Description {
	panels := make([]PanelDescription, len(l.Units))
	for i, u := range l.Units {
		panels[i] = PanelDescription{ID: u.ChainIndex, Position: [2]int{u.Col, u.Row}, Rotation: int(u.Rotation)}
	}
	return Description{
		Grid: GridDescription{
			GridWidth:     l.GridWidth,
			GridHeight:    l.GridHeight,
			PanelWidth:    l.PanelWidth,
			PanelHeight:   l.PanelHeight,
			WiringPattern: string(l.Wiring),
		},
		Panels: panels,
	}
}
