// Package hardware defines the Renderer boundary between the display
// controller and whatever physically drives the LED chain, plus the
// concrete backends: a real ws281x strip, an in-memory simulator for tests
// and dev mode, and a GPIO kill-switch relay.
package hardware

import (
	"context"
	"image/color"
)

// Renderer is the only interface the controller calls on its hot path. A
// Renderer is owned exclusively by the controller goroutine; no other
// component may touch it.
type Renderer interface {
	// Render pushes pixels (already mapped to physical LED order) to the
	// chain at the given global brightness. A HardwareIo condition is
	// reported as an error; the controller logs it and continues.
	Render(ctx context.Context, pixels []color.RGBA, brightness uint8) error
	// Close releases any underlying hardware handle. Safe to call once
	// during shutdown.
	Close() error
	// Len returns the number of LEDs this renderer drives.
	Len() int
}
