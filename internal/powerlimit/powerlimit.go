// Package powerlimit clamps a requested brightness so the estimated
// aggregate current drawn by a frame never exceeds a configured ceiling.
package powerlimit

import (
	"math"

	"github.com/ledgrid/ledctld/internal/frame"
)

// Config holds the constants of the linear current model.
type Config struct {
	// IMaxPerLED is the per-channel-unit current contribution at full
	// brightness, in amperes. Default 0.06.
	IMaxPerLED float64
	// IIdle is the per-LED idle current drawn regardless of color, in
	// amperes. Treated as a constant; it is not modelled as scaling with
	// brightness.
	IIdle float64
}

// DefaultConfig matches the constants used throughout the design scenarios.
func DefaultConfig() Config {
	return Config{IMaxPerLED: 0.06, IIdle: 0}
}

// Result is the outcome of a Limit call.
type Result struct {
	BApplied uint8
	Limited  bool
	// EstimatedAmps is the current drawn at BApplied.
	EstimatedAmps float64
}

// Estimate returns the estimated current in amperes drawn by f at brightness
// b, given N LEDs in the chain.
func Estimate(cfg Config, f *frame.Frame, b uint8, ledCount int) float64 {
	s := float64(f.ChannelSum())
	return (s/255)*cfg.IMaxPerLED*(float64(b)/255) + float64(ledCount)*cfg.IIdle
}

// Limit computes the applied brightness for f at requested brightness
// bReq such that the estimated current stays at or below iMax. enabled
// selects the active limiter; when false, Limit is a pass-through that
// never reports limiting.
func Limit(cfg Config, f *frame.Frame, bReq uint8, iMax float64, ledCount int, enabled bool) Result {
	if !enabled {
		return Result{BApplied: bReq, Limited: false, EstimatedAmps: Estimate(cfg, f, bReq, ledCount)}
	}

	idleAmps := float64(ledCount) * cfg.IIdle
	if iMax <= idleAmps {
		return Result{BApplied: 0, Limited: true, EstimatedAmps: idleAmps}
	}

	if Estimate(cfg, f, bReq, ledCount) <= iMax {
		return Result{BApplied: bReq, Limited: false, EstimatedAmps: Estimate(cfg, f, bReq, ledCount)}
	}

	s := float64(f.ChannelSum())
	if s == 0 {
		// Pure black frame: current is idle-only and already within ceiling,
		// but we only reach here if the above check failed, which cannot
		// happen when s == 0. Guard against division by zero regardless.
		return Result{BApplied: bReq, Limited: false, EstimatedAmps: idleAmps}
	}

	bMax := (iMax - idleAmps) * 255 * 255 / (s * cfg.IMaxPerLED)
	b := int(math.Floor(bMax))
	if b < 0 {
		b = 0
	}
	if b > int(bReq) {
		b = int(bReq)
	}

	applied := uint8(b)
	return Result{
		BApplied:      applied,
		Limited:       true,
		EstimatedAmps: Estimate(cfg, f, applied, ledCount),
	}
}
