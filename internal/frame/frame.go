// Package frame defines the pixel grid type producers hand to the
// multiplexer and the controller hands to the hardware renderer.
package frame

import "hash/fnv"

// RGB is a 24-bit colour triple.
type RGB struct {
	R, G, B uint8
}

// Frame is a dense, row-major H×W grid of RGB pixels, origin top-left.
type Frame struct {
	W, H int
	Pix  []RGB
}

// New allocates a black frame of the given dimensions.
func New(w, h int) *Frame {
	return &Frame{W: w, H: h, Pix: make([]RGB, w*h)}
}

// Index returns the row-major virtual index for (x, y).
func (f Frame) Index(x, y int) int {
	return y*f.W + x
}

// At returns the pixel at (x, y). No bounds checking: callers that accept
// external dimensions must validate against f.W/f.H first.
func (f Frame) At(x, y int) RGB {
	return f.Pix[f.Index(x, y)]
}

// Set writes the pixel at (x, y).
func (f Frame) Set(x, y int, c RGB) {
	f.Pix[f.Index(x, y)] = c
}

// SameSize reports whether f is w pixels wide and h pixels high.
func (f Frame) SameSize(w, h int) bool {
	return f.W == w && f.H == h
}

// Clone returns an independent copy of f.
func (f Frame) Clone() *Frame {
	cp := &Frame{W: f.W, H: f.H, Pix: make([]RGB, len(f.Pix))}
	copy(cp.Pix, f.Pix)
	return cp
}

// ChannelSum returns the sum of every R+G+B channel value across the frame,
// the aggregate raw input to the power limiter's current estimate.
func (f Frame) ChannelSum() int64 {
	var s int64
	for _, p := range f.Pix {
		s += int64(p.R) + int64(p.G) + int64(p.B)
	}
	return s
}

// Hash returns a content hash of the frame, used by status probes and tests
// to confirm which of several submitted frames was actually emitted.
func (f Frame) Hash() uint64 {
	h := fnv.New64a()
	for _, p := range f.Pix {
		h.Write([]byte{p.R, p.G, p.B})
	}
	return h.Sum64()
}

// FromBytes builds a Frame from a row-major RGB byte stream (len must equal
// w*h*3), the wire shape used by every ingress transport.
func FromBytes(w, h int, data []byte) *Frame {
	f := New(w, h)
	for i := range f.Pix {
		o := i * 3
		f.Pix[i] = RGB{data[o], data[o+1], data[o+2]}
	}
	return f
}
