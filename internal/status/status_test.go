package status

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestPublisher() *Publisher {
	return NewPublisher(prometheus.NewRegistry())
}

func TestRecordTickAccumulates(t *testing.T) {
	p := newTestPublisher()
	base := time.Unix(1000, 0)

	p.RecordTick(base, 200, false, false, 1.5, "solid", "awake", 32, 32, 1024)
	snap := p.Snapshot()

	if snap.FramesEmitted != 1 {
		t.Errorf("FramesEmitted = %d, want 1", snap.FramesEmitted)
	}
	if snap.BApplied != 200 {
		t.Errorf("BApplied = %d, want 200", snap.BApplied)
	}
	if snap.PatternName != "solid" {
		t.Errorf("PatternName = %q, want solid", snap.PatternName)
	}
	if snap.CanvasWidth != 32 || snap.CanvasHeight != 32 || snap.LEDCount != 1024 {
		t.Errorf("canvas/led fields = %+v", snap)
	}
}

func TestFPS1sSlidingWindow(t *testing.T) {
	p := newTestPublisher()
	base := time.Unix(1000, 0)

	// 30 ticks within the same second.
	for i := 0; i < 30; i++ {
		p.RecordTick(base.Add(time.Duration(i)*33*time.Millisecond), 255, false, false, 0, "", "awake", 1, 1, 1)
	}
	if got := p.Snapshot().FPS1s; got != 30 {
		t.Errorf("FPS1s = %v, want 30", got)
	}

	// A tick more than a second later should push the old ticks out of
	// the window.
	p.RecordTick(base.Add(5*time.Second), 255, false, false, 0, "", "awake", 1, 1, 1)
	if got := p.Snapshot().FPS1s; got != 1 {
		t.Errorf("FPS1s after gap = %v, want 1", got)
	}
}

func TestLimitedAndDimensionMismatchCounters(t *testing.T) {
	p := newTestPublisher()
	base := time.Unix(2000, 0)

	p.RecordTick(base, 10, true, true, 0, "", "awake", 1, 1, 1)
	p.RecordTick(base.Add(time.Millisecond), 10, true, false, 0, "", "awake", 1, 1, 1)
	p.RecordTick(base.Add(2*time.Millisecond), 10, false, true, 0, "", "awake", 1, 1, 1)

	snap := p.Snapshot()
	if snap.LimitedTotal != 2 {
		t.Errorf("LimitedTotal = %d, want 2", snap.LimitedTotal)
	}
	if snap.DimensionMismatchCount != 2 {
		t.Errorf("DimensionMismatchCount = %d, want 2", snap.DimensionMismatchCount)
	}
}

func TestRecordErrorSetsAndClearsLastError(t *testing.T) {
	p := newTestPublisher()
	p.RecordError(errors.New("boom"))
	if got := p.Snapshot().LastError; got != "boom" {
		t.Errorf("LastError = %q, want boom", got)
	}
	p.RecordError(nil)
	if got := p.Snapshot().LastError; got != "" {
		t.Errorf("LastError after clear = %q, want empty", got)
	}
}

func TestSetTelemetry(t *testing.T) {
	p := newTestPublisher()
	p.SetTelemetry(12.5, 2048, 45.0)
	snap := p.Snapshot()
	if snap.CPUPercent != 12.5 || snap.MemUsedBytes != 2048 || snap.TemperatureCelsius != 45.0 {
		t.Errorf("telemetry fields = %+v", snap)
	}
}
