// Package status aggregates the display controller's running statistics,
// exposes them to in-process readers, and mirrors them to Prometheus
// gauges/counters for external scraping.
package status

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats is a read-only snapshot of the controller's running statistics
// , extended with best-effort telemetry fields folded in by
// internal/telemetry on its own sampling cadence.
type Stats struct {
	FPS1s                  float64
	FramesEmitted          uint64
	BApplied               uint8
	Limited                bool
	LimitedTotal           uint64
	DimensionMismatchCount uint64
	CurrentEstimateAmps    float64
	PatternName            string
	ScheduleState          string
	CanvasWidth            int
	CanvasHeight           int
	LEDCount               int
	LastError              string

	CPUPercent         float64
	MemUsedBytes       uint64
	TemperatureCelsius float64
}

// Publisher owns the live Stats and the Prometheus collectors that mirror
// them. Safe for concurrent use: the controller calls RecordTick once per
// tick; any number of readers call Snapshot concurrently.
type Publisher struct {
	mu    sync.RWMutex
	stats Stats
	ticks []time.Time // tick timestamps within the trailing 1s window, for fps_1s

	framesEmitted    prometheus.Counter
	fps              prometheus.Gauge
	brightness       prometheus.Gauge
	limitedTotal     prometheus.Counter
	dimMismatchTotal prometheus.Counter
	currentEstimate  prometheus.Gauge
}

// NewPublisher creates a Publisher and registers its collectors against
// reg. reg may be prometheus.DefaultRegisterer or a scoped registry built
// by the caller for testing.
func NewPublisher(reg prometheus.Registerer) *Publisher {
	p := &Publisher{
		framesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledctld_frames_emitted_total",
			Help: "Total frames emitted to the hardware renderer.",
		}),
		fps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledctld_fps",
			Help: "Moving-average frames per second over the trailing one-second window.",
		}),
		brightness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledctld_brightness_applied",
			Help: "Brightness actually applied to the last emitted frame, after power limiting.",
		}),
		limitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledctld_limited_total",
			Help: "Total ticks where the power limiter clamped brightness.",
		}),
		dimMismatchTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledctld_dimension_mismatch_total",
			Help: "Total frames dropped for not matching the active layout's canvas size.",
		}),
		currentEstimate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledctld_current_estimate_amps",
			Help: "Estimated current draw of the last emitted frame, in amperes.",
		}),
	}

	if reg != nil {
		reg.MustRegister(p.framesEmitted, p.fps, p.brightness, p.limitedTotal, p.dimMismatchTotal, p.currentEstimate)
	}
	return p
}

// RecordTick folds the outcome of one controller tick into the running
// statistics. now is passed in rather than read internally so callers (and
// tests) fully control the sliding FPS window.
func (p *Publisher) RecordTick(now time.Time, bApplied uint8, limited, dimensionMismatch bool, currentEstimateAmps float64, patternName, scheduleState string, canvasW, canvasH, ledCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.FramesEmitted++
	p.stats.BApplied = bApplied
	p.stats.Limited = limited
	if limited {
		p.stats.LimitedTotal++
	}
	if dimensionMismatch {
		p.stats.DimensionMismatchCount++
	}
	p.stats.CurrentEstimateAmps = currentEstimateAmps
	p.stats.PatternName = patternName
	p.stats.ScheduleState = scheduleState
	p.stats.CanvasWidth = canvasW
	p.stats.CanvasHeight = canvasH
	p.stats.LEDCount = ledCount

	p.ticks = append(p.ticks, now)
	cutoff := now.Add(-time.Second)
	i := 0
	for i < len(p.ticks) && p.ticks[i].Before(cutoff) {
		i++
	}
	p.ticks = p.ticks[i:]
	p.stats.FPS1s = float64(len(p.ticks))

	p.framesEmitted.Inc()
	p.fps.Set(p.stats.FPS1s)
	p.brightness.Set(float64(bApplied))
	if limited {
		p.limitedTotal.Inc()
	}
	if dimensionMismatch {
		p.dimMismatchTotal.Inc()
	}
	p.currentEstimate.Set(currentEstimateAmps)
}

// RecordError sets the last observed non-fatal error (PatternFailure,
// HardwareIo, ...). Pass nil to clear it.
func (p *Publisher) RecordError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		p.stats.LastError = ""
		return
	}
	p.stats.LastError = err.Error()
}

// SetTelemetry folds in the latest best-effort system telemetry sample.
func (p *Publisher) SetTelemetry(cpuPercent float64, memUsedBytes uint64, temperatureCelsius float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.CPUPercent = cpuPercent
	p.stats.MemUsedBytes = memUsedBytes
	p.stats.TemperatureCelsius = temperatureCelsius
}

// Snapshot returns a copy of the current statistics.
func (p *Publisher) Snapshot() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}
