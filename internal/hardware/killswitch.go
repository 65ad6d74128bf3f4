package hardware

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// KillSwitch drives a single GPIO output line that gates power to the LED
// chain at the relay, independent of anything the Renderer does. Engaged
// (active) cuts power; released restores it.
type KillSwitch struct {
	mu   sync.Mutex
	line *gpiocdev.Line
}

// NewKillSwitch requests pin on chip as an output, initially released
// (line low).
func NewKillSwitch(chip string, pin int) (*KillSwitch, error) {
	if chip == "" {
		chip = "gpiochip0"
	}
	line, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("hardware: request kill-switch line %s:%d: %w", chip, pin, err)
	}
	return &KillSwitch{line: line}, nil
}

// Engage cuts power to the chain.
func (k *KillSwitch) Engage() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.line.SetValue(1); err != nil {
		return fmt.Errorf("hardware: engage kill-switch: %w", err)
	}
	return nil
}

// Release restores power to the chain.
func (k *KillSwitch) Release() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.line.SetValue(0); err != nil {
		return fmt.Errorf("hardware: release kill-switch: %w", err)
	}
	return nil
}

// Close releases the underlying GPIO line handle.
func (k *KillSwitch) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.line.Close()
}
