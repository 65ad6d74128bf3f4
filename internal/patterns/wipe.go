package patterns

import "github.com/ledgrid/ledctld/internal/frame"

// Wipe sweeps a vertical bar of params["color"] (default white) left to
// right, advancing one column per tick and wrapping at the canvas edge.
// params["speed"] scales columns advanced per tick (default 1).
func Wipe(w, h, counter int, params map[string]string) (*frame.Frame, error) {
	color := frame.RGB{R: 255, G: 255, B: 255}
	if s, ok := params["color"]; ok {
		c, err := parseHexColor(s)
		if err != nil {
			return nil, err
		}
		color = c
	}
	speed := paramInt(params, "speed", 1)
	if speed < 1 {
		speed = 1
	}

	f := frame.New(w, h)
	if w == 0 {
		return f, nil
	}
	col := (counter * speed) % w
	for y := 0; y < h; y++ {
		f.Set(col, y, color)
	}
	return f, nil
}
