package hardware

import (
	"context"
	"fmt"
	"image/color"
	"sync"
)

// Sim is an in-memory Renderer used by tests and `--sim` mode when no real
// strip is attached. It records the last rendered frame and brightness so
// callers can assert on them.
type Sim struct {
	mu         sync.RWMutex
	count      int
	closed     bool
	brightness uint8
	last       []color.RGBA
	renderHook func([]color.RGBA, uint8) error
}

// NewSim creates a simulated renderer for a chain of count LEDs.
func NewSim(count int) *Sim {
	return &Sim{count: count, last: make([]color.RGBA, count)}
}

// SetRenderHook installs a callback invoked on every Render, before the
// frame is recorded — used by tests that want to inject a HardwareIo
// failure or simulate a slow render under cadence-overload scenarios.
func (s *Sim) SetRenderHook(fn func(pixels []color.RGBA, brightness uint8) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderHook = fn
}

// Render implements Renderer.
func (s *Sim) Render(ctx context.Context, pixels []color.RGBA, brightness uint8) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("hardware: sim renderer is closed")
	}
	if len(pixels) != s.count {
		return fmt.Errorf("hardware: render called with %d pixels, sim has %d", len(pixels), s.count)
	}
	if s.renderHook != nil {
		if err := s.renderHook(pixels, brightness); err != nil {
			return err
		}
	}

	copy(s.last, pixels)
	s.brightness = brightness
	return nil
}

// Close marks the renderer closed; further Render calls fail.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of LEDs this renderer simulates.
func (s *Sim) Len() int { return s.count }

// LastFrame returns a copy of the most recently rendered pixels and the
// brightness they were rendered at.
func (s *Sim) LastFrame() ([]color.RGBA, uint8) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]color.RGBA, len(s.last))
	copy(out, s.last)
	return out, s.brightness
}
