// Package telemetry samples host CPU, memory, and temperature on its own
// slow cadence and folds the result into the Status Publisher, kept
// independent of the controller's tick rate since the controller may
// never block on anything but its paced sleep and the hardware call.
package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ledgrid/ledctld/internal/status"
)

// Sampler periodically reads host telemetry and publishes it.
type Sampler struct {
	pub      *status.Publisher
	interval time.Duration
	log      zerolog.Logger
}

// New returns a Sampler that updates pub roughly every interval.
func New(pub *status.Publisher, interval time.Duration, log zerolog.Logger) *Sampler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Sampler{pub: pub, interval: interval, log: log}
}

// Run samples on a ticker until ctx is cancelled. Each sample is
// best-effort: a failed reading for one metric does not block the
// others, and the sampler never aborts on a sensor error (most visibly
// temperature, which is unavailable on many hosts entirely).
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sample(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample(ctx)
		}
	}
}

func (s *Sampler) sample(ctx context.Context) {
	var cpuPercent float64
	if pcts, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		s.log.Debug().Err(err).Msg("telemetry: cpu sample failed")
	} else if len(pcts) > 0 {
		cpuPercent = pcts[0]
	}

	var memUsed uint64
	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		s.log.Debug().Err(err).Msg("telemetry: memory sample failed")
	} else {
		memUsed = vm.Used
	}

	var temp float64
	if stats, err := host.SensorsTemperaturesWithContext(ctx); err != nil {
		s.log.Debug().Err(err).Msg("telemetry: temperature sample failed")
	} else if len(stats) > 0 {
		temp = stats[0].Temperature
	}

	s.pub.SetTelemetry(cpuPercent, memUsed, temp)
}
