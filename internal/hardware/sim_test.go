package hardware

import (
	"context"
	"errors"
	"image/color"
	"testing"
)

func TestSimRenderRecordsFrame(t *testing.T) {
	s := NewSim(3)
	pixels := []color.RGBA{
		{R: 1, A: 255}, {G: 2, A: 255}, {B: 3, A: 255},
	}

	if err := s.Render(context.Background(), pixels, 128); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	last, b := s.LastFrame()
	if b != 128 {
		t.Errorf("brightness = %d, want 128", b)
	}
	for i, want := range pixels {
		if last[i] != want {
			t.Errorf("pixel %d = %v, want %v", i, last[i], want)
		}
	}
}

func TestSimRenderRejectsWrongLength(t *testing.T) {
	s := NewSim(4)
	if err := s.Render(context.Background(), make([]color.RGBA, 3), 0); err == nil {
		t.Error("Render() error = nil, want error for pixel count mismatch")
	}
}

func TestSimRenderAfterCloseFails(t *testing.T) {
	s := NewSim(1)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Render(context.Background(), make([]color.RGBA, 1), 0); err == nil {
		t.Error("Render() error = nil after Close(), want error")
	}
}

func TestSimRenderRespectsContextCancellation(t *testing.T) {
	s := NewSim(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Render(ctx, make([]color.RGBA, 1), 0); err == nil {
		t.Error("Render() error = nil for a cancelled context, want error")
	}
}

func TestSimRenderHookCanInjectFailure(t *testing.T) {
	s := NewSim(1)
	wantErr := errors.New("simulated HardwareIo failure")
	s.SetRenderHook(func(pixels []color.RGBA, brightness uint8) error {
		return wantErr
	})

	err := s.Render(context.Background(), make([]color.RGBA, 1), 0)
	if !errors.Is(err, wantErr) {
		t.Errorf("Render() error = %v, want %v", err, wantErr)
	}
}

func TestSimLen(t *testing.T) {
	s := NewSim(42)
	if s.Len() != 42 {
		t.Errorf("Len() = %d, want 42", s.Len())
	}
}
