// Package ingress holds the wire-format constants and header parser shared
// by the UDP, pipe, and BLE ingress adapters.
package ingress

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic is the 4-byte marker that opens every frame header.
const Magic = "LEDF"

// HeaderLen is the size in bytes of the magic + two big-endian u16
// dimensions.
const HeaderLen = len(Magic) + 4

// MaxDimension guards against a corrupt or hostile header driving an
// unbounded allocation; no Layout in this system plausibly exceeds it.
const MaxDimension = 2048

var (
	ErrTruncatedHeader   = errors.New("ingress: truncated header")
	ErrBadMagic          = errors.New("ingress: bad magic")
	ErrDimensionOverflow = errors.New("ingress: dimension exceeds maximum")
)

// Header is the parsed frame header: canvas dimensions in pixels.
type Header struct {
	Width, Height uint16
}

// ParseHeader validates and decodes the leading HeaderLen bytes of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, fmt.Errorf("%w: got %d bytes, want %d", ErrTruncatedHeader, len(b), HeaderLen)
	}
	if string(b[:len(Magic)]) != Magic {
		return Header{}, fmt.Errorf("%w: got %q", ErrBadMagic, b[:len(Magic)])
	}

	w := binary.BigEndian.Uint16(b[len(Magic) : len(Magic)+2])
	h := binary.BigEndian.Uint16(b[len(Magic)+2 : len(Magic)+4])
	if int(w) > MaxDimension || int(h) > MaxDimension {
		return Header{}, fmt.Errorf("%w: %dx%d", ErrDimensionOverflow, w, h)
	}
	return Header{Width: w, Height: h}, nil
}

// PayloadLen returns the number of RGB body bytes a frame of this header's
// dimensions carries (W*H*3).
func (h Header) PayloadLen() int {
	return int(h.Width) * int(h.Height) * 3
}
