package patterns

import "github.com/ledgrid/ledctld/internal/frame"

// Checker draws a static checkerboard with cell size params["cell"] pixels
// (default 4), alternating params["color_a"]/params["color_b"] (default
// white/black). The pattern does not animate; counter is ignored.
func Checker(w, h, counter int, params map[string]string) (*frame.Frame, error) {
	cell := paramInt(params, "cell", 4)
	if cell < 1 {
		cell = 1
	}

	a := frame.RGB{R: 255, G: 255, B: 255}
	if s, ok := params["color_a"]; ok {
		c, err := parseHexColor(s)
		if err != nil {
			return nil, err
		}
		a = c
	}
	b := frame.RGB{}
	if s, ok := params["color_b"]; ok {
		c, err := parseHexColor(s)
		if err != nil {
			return nil, err
		}
		b = c
	}

	f := frame.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if ((x/cell)+(y/cell))%2 == 0 {
				f.Set(x, y, a)
			} else {
				f.Set(x, y, b)
			}
		}
	}
	return f, nil
}
