package patterns

import (
	"fmt"
	"strconv"

	"github.com/ledgrid/ledctld/internal/frame"
)

// parseHexColor parses a "#RRGGBB" string into an RGB. Returns an error for
// any other length or invalid hex digits.
func parseHexColor(s string) (frame.RGB, error) {
	if len(s) != 7 || s[0] != '#' {
		return frame.RGB{}, fmt.Errorf("invalid color %q, want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return frame.RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return frame.RGB{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

func paramInt(params map[string]string, key string, def int) int {
	s, ok := params[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
