// Package controller implements the display controller: the one goroutine
// that owns the hardware renderer and drives the fixed-cadence tick loop
// merging ingress frames with generated patterns.
package controller

import (
	"context"
	"image/color"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgrid/ledctld/internal/arbiter"
	"github.com/ledgrid/ledctld/internal/frame"
	"github.com/ledgrid/ledctld/internal/hardware"
	"github.com/ledgrid/ledctld/internal/mailbox"
	"github.com/ledgrid/ledctld/internal/patternrunner"
	"github.com/ledgrid/ledctld/internal/powerlimit"
	"github.com/ledgrid/ledctld/internal/status"
)

// Config holds the controller's tunables.
type Config struct {
	TargetFPS  int
	PowerLimit powerlimit.Config
}

// Controller is the only component that touches the hardware Renderer. It
// must be run from a single goroutine (Run blocks until ctx is cancelled).
type Controller struct {
	arb       *arbiter.Arbiter
	mbox      *mailbox.Mailbox
	runner    *patternrunner.Runner
	hw        hardware.Renderer
	statusPub *status.Publisher
	cfg       Config
	log       zerolog.Logger

	lastFrame      *frame.Frame
	everEmitted    bool
	lastGeneration uint64
	lastPatternKey string
	lastSchedule   arbiter.ScheduleState
}

// New wires a Controller. mbox's canvas size should already match the
// Arbiter's initial Layout; the controller resizes it itself on every
// Layout change.
func New(arb *arbiter.Arbiter, mbox *mailbox.Mailbox, runner *patternrunner.Runner, hw hardware.Renderer, statusPub *status.Publisher, cfg Config, log zerolog.Logger) *Controller {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 30
	}
	return &Controller{
		arb:       arb,
		mbox:      mbox,
		runner:    runner,
		hw:        hw,
		statusPub: statusPub,
		cfg:       cfg,
		log:       log,
	}
}

// Run executes the fixed-cadence tick loop until ctx is cancelled. On
// cancellation it emits one final black frame and returns ctx.Err(); the
// Renderer itself is left open for its owner to Close.
func (c *Controller) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(c.cfg.TargetFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.emitBlackOnShutdown(ctx)
			return ctx.Err()
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick runs the controller's per-frame pipeline once.
func (c *Controller) tick(ctx context.Context) {
	// Step 1: read the published snapshot.
	snap := c.arb.Snapshot()

	newLayout := c.lastGeneration != 0 && snap.Generation() != c.lastGeneration
	firstTick := c.lastGeneration == 0
	if newLayout || firstTick {
		w, h := snap.Layout.CanvasSize()
		c.mbox.Resize(w, h)
		if newLayout {
			// Open question (a): a Layout change clears the last-emitted
			// frame rather than padding/cropping it.
			c.lastFrame = nil
			c.everEmitted = false
		}
		c.lastGeneration = snap.Generation()
	}

	patternKey := snap.Pattern.Name
	wokeUp := c.lastSchedule == arbiter.Asleep && snap.Schedule == arbiter.Awake
	if patternKey != c.lastPatternKey || newLayout || wokeUp || firstTick {
		c.runner.SetSelection(snap.Pattern)
		c.lastPatternKey = patternKey
	}
	c.lastSchedule = snap.Schedule

	w, h := snap.Layout.CanvasSize()

	// Step 2: asleep short-circuits to a zeroed frame.
	if snap.Schedule == arbiter.Asleep {
		c.emit(ctx, snap, frame.New(w, h), false, false)
		return
	}

	// Step 3: ask the Pattern Runner for a generated frame.
	if patternKey != "" {
		f, err := c.runner.Tick(w, h)
		if err != nil {
			c.log.Warn().Err(err).Str("pattern", patternKey).Msg("pattern generator failed, reverted to external")
			c.statusPub.RecordError(err)
		} else if f != nil {
			c.mbox.Submit(f)
		}
	}

	// Step 4: take the pending frame, or reuse/emit black.
	chosen, _, ok := c.mbox.Take()
	dimensionMismatch := false
	if !ok {
		chosen = c.fallbackFrame(w, h)
	} else if !chosen.SameSize(w, h) {
		dimensionMismatch = true
		chosen = c.fallbackFrame(w, h)
	}

	c.emit(ctx, snap, chosen, dimensionMismatch, false)
}

// fallbackFrame implements step 4/5's "reuse the last emitted frame, or
// black if nothing has ever been emitted" rule.
func (c *Controller) fallbackFrame(w, h int) *frame.Frame {
	if c.everEmitted && c.lastFrame != nil && c.lastFrame.SameSize(w, h) {
		return c.lastFrame
	}
	return frame.New(w, h)
}

// emit applies the power limiter, maps the frame through the current
// IndexTable, calls the hardware renderer, and updates Status (steps 6-8).
func (c *Controller) emit(ctx context.Context, snap *arbiter.Snapshot, f *frame.Frame, dimensionMismatch, asleep bool) {
	res := powerlimit.Limit(c.cfg.PowerLimit, f, snap.Brightness, snap.PowerCeiling.Amps, snap.Layout.LEDCount(), snap.PowerCeiling.Enabled)

	table := snap.IndexTable
	n := table.Len()
	phys := make([]color.RGBA, snap.Layout.LEDCount())
	for v := 0; v < n; v++ {
		rgb := f.Pix[v]
		phys[table.Physical(v)] = color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
	}

	if err := c.hw.Render(ctx, phys, res.BApplied); err != nil {
		c.log.Warn().Err(err).Msg("hardware render failed")
	}

	c.lastFrame = f
	c.everEmitted = true

	// The runner's selection, not the snapshot's, so a generator failure
	// that reverted the runner to external shows up as "external".
	patternName := c.runner.Selection().Name
	if patternName == "" {
		patternName = "external"
	}
	c.statusPub.RecordTick(time.Now(), res.BApplied, res.Limited, dimensionMismatch, res.EstimatedAmps, patternName, string(snap.Schedule), snap.Layout.GridWidth*snap.Layout.PanelWidth, snap.Layout.GridHeight*snap.Layout.PanelHeight, snap.Layout.LEDCount())
}

// emitBlackOnShutdown performs the clean-exit contract: emit black
// once more before returning.
func (c *Controller) emitBlackOnShutdown(ctx context.Context) {
	snap := c.arb.Snapshot()
	w, h := snap.Layout.CanvasSize()
	black := frame.New(w, h)

	table := snap.IndexTable
	phys := make([]color.RGBA, snap.Layout.LEDCount())
	for v := 0; v < table.Len(); v++ {
		phys[table.Physical(v)] = color.RGBA{A: 255}
	}
	// Use context.Background: ctx is already cancelled here, but a final
	// black-out write should not itself be aborted by that cancellation.
	if err := c.hw.Render(context.Background(), phys, 0); err != nil {
		c.log.Warn().Err(err).Msg("hardware render failed during shutdown black-out")
	}
}
