// Package mapper precomputes the virtual-pixel-index → physical-LED-index
// lookup table for a Layout. Build is pure: the same Layout always yields
// the same table, and the table never changes once built.
package mapper

import (
	"errors"
	"fmt"

	"github.com/ledgrid/ledctld/internal/layout"
)

// ErrUncoveredCell is returned when a canvas cell falls inside the grid's
// bounding rectangle but no unit's grid position covers it. Layout.parse
// only requires unit positions to be a subset of the grid, so a table build
// over a partially-populated grid surfaces this instead of mapping the
// pixel to LED 0 by default.
var ErrUncoveredCell = errors.New("mapper: canvas cell not covered by any unit")

// IndexTable is the precomputed virtual→physical mapping for one Layout.
// Immutable once built.
type IndexTable struct {
	W, H int
	phys []int // phys[v] = physical LED index for virtual index v
}

// Build constructs the IndexTable for l, implementing the five-step
// algorithm: locate the covering unit, compute local coordinates,
// undo the unit's rotation, apply the intra-unit wiring, then offset by the
// unit's chain index.
func Build(l *layout.Layout) (*IndexTable, error) {
	w, h := l.CanvasSize()
	pw, ph := l.PanelWidth, l.PanelHeight

	byPos := make(map[[2]int]layout.Unit, len(l.Units))
	for _, u := range l.Units {
		byPos[[2]int{u.Col, u.Row}] = u
	}

	phys := make([]int, w*h)
	for y := 0; y < h; y++ {
		row := y / ph
		ly := y % ph
		for x := 0; x < w; x++ {
			col := x / pw
			lx := x % pw

			u, ok := byPos[[2]int{col, row}]
			if !ok {
				return nil, fmt.Errorf("%w: (%d,%d)", ErrUncoveredCell, x, y)
			}

			cx, cy := undoRotation(u.Rotation, lx, ly, pw, ph)
			// A unit turned by 90/270 is ph wide and pw tall in its own
			// chip-local frame, so the wiring walks those dimensions.
			cw, ch := pw, ph
			if u.Rotation == layout.Rotate90 || u.Rotation == layout.Rotate270 {
				cw, ch = ph, pw
			}
			k := wireIndex(l.Wiring, cx, cy, cw, ch)
			phys[y*w+x] = u.ChainIndex*(pw*ph) + k
		}
	}

	return &IndexTable{W: w, H: h, phys: phys}, nil
}

// undoRotation maps canvas-local coordinates (lx, ly) back to chip-local
// coordinates by inverting the unit's physical rotation.
func undoRotation(r layout.Rotation, lx, ly, pw, ph int) (cx, cy int) {
	switch r {
	case layout.Rotate0:
		return lx, ly
	case layout.Rotate90:
		return ly, pw - 1 - lx
	case layout.Rotate180:
		return pw - 1 - lx, ph - 1 - ly
	case layout.Rotate270:
		return ph - 1 - ly, lx
	default:
		return lx, ly
	}
}

// wireIndex converts chip-local coordinates to a within-unit LED index
// according to the grid's intra-unit wiring mode.
func wireIndex(w layout.Wiring, cx, cy, pw, ph int) int {
	switch w {
	case layout.Snake:
		if cy%2 == 0 {
			return cy*pw + cx
		}
		return cy*pw + (pw - 1 - cx)
	case layout.VerticalSnake:
		if cx%2 == 0 {
			return cx*ph + cy
		}
		return cx*ph + (ph - 1 - cy)
	default: // Sequential
		return cy*pw + cx
	}
}

// Physical returns the physical LED index for virtual index v.
func (t *IndexTable) Physical(v int) int {
	return t.phys[v]
}

// Len returns the number of virtual indices the table covers (W*H).
func (t *IndexTable) Len() int {
	return len(t.phys)
}
