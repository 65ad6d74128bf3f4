package hardware

import (
	"context"
	"fmt"
	"image/color"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"
)

// WS281xConfig configures the real addressable-LED strip backend.
type WS281xConfig struct {
	GPIOPin    int
	LEDCount   int
	Brightness int
}

// WS281x drives a physical WS2811/WS2812/SK6812-class LED chain via
// rpi-ws281x-go.
type WS281x struct {
	strip *ws2811.WS2811
	count int
}

// NewWS281x initializes the strip. The returned Renderer owns the strip
// handle; Close must be called exactly once during shutdown.
func NewWS281x(cfg WS281xConfig) (*WS281x, error) {
	wsCfg := ws2811.DefaultConfig
	wsCfg.Channels[0].Brightness = cfg.Brightness
	wsCfg.Channels[0].GpioPin = cfg.GPIOPin
	wsCfg.Channels[0].LedCount = cfg.LEDCount
	wsCfg.Channels[0].StripeType = ws2811.WS2811StripGRB

	strip, err := ws2811.MakeWS2811(&wsCfg)
	if err != nil {
		return nil, fmt.Errorf("hardware: create ws2811: %w", err)
	}
	if err := strip.Init(); err != nil {
		return nil, fmt.Errorf("hardware: init ws2811: %w", err)
	}

	return &WS281x{strip: strip, count: cfg.LEDCount}, nil
}

// Render pushes pixels to the chain, converting each to the packed
// 0x00RRGGBB word the driver's LED buffer holds; the driver reorders it
// for the configured GRB strip type.
func (w *WS281x) Render(ctx context.Context, pixels []color.RGBA, brightness uint8) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(pixels) != w.count {
		return fmt.Errorf("hardware: render called with %d pixels, strip has %d", len(pixels), w.count)
	}

	w.strip.SetBrightness(0, int(brightness))
	buf := w.strip.Leds(0)
	for i, p := range pixels {
		buf[i] = uint32(p.R)<<16 | uint32(p.G)<<8 | uint32(p.B)
	}
	if err := w.strip.Render(); err != nil {
		return fmt.Errorf("hardware: render ws2811: %w", err)
	}
	return nil
}

// Close tears down the underlying ws2811 driver.
func (w *WS281x) Close() error {
	w.strip.Fini()
	return nil
}

// Len returns the number of LEDs in the chain.
func (w *WS281x) Len() int { return w.count }
