package patterns

import "github.com/ledgrid/ledctld/internal/frame"

// Solid fills the whole canvas with params["color"] (default white).
func Solid(w, h, counter int, params map[string]string) (*frame.Frame, error) {
	color := frame.RGB{R: 255, G: 255, B: 255}
	if s, ok := params["color"]; ok {
		c, err := parseHexColor(s)
		if err != nil {
			return nil, err
		}
		color = c
	}

	f := frame.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, color)
		}
	}
	return f, nil
}
