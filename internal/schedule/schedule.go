// Package schedule drives the Arbiter's wake/sleep state from cron
// expressions, so a display can be dark overnight without an operator
// manually toggling it.
package schedule

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/ledgrid/ledctld/internal/arbiter"
)

// setter is the slice of Arbiter the scheduler needs, kept narrow so
// tests can substitute a fake.
type setter interface {
	SetSchedule(state arbiter.ScheduleState)
}

// Scheduler owns a pair of cron jobs (wake, sleep) that flip the
// Arbiter's schedule state.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New builds a Scheduler from wake/sleep cron expressions and registers
// its jobs against target. It does not start running until Start is
// called. New takes no enabled flag: a caller whose schedule is disabled
// does not construct or Start a Scheduler at all.
func New(wakeCron, sleepCron string, target setter, log zerolog.Logger) (*Scheduler, error) {
	c := cron.New()

	if _, err := c.AddFunc(wakeCron, func() {
		log.Info().Str("component", "schedule").Msg("waking display")
		target.SetSchedule(arbiter.Awake)
	}); err != nil {
		return nil, fmt.Errorf("schedule: invalid wake_cron %q: %w", wakeCron, err)
	}

	if _, err := c.AddFunc(sleepCron, func() {
		log.Info().Str("component", "schedule").Msg("sleeping display")
		target.SetSchedule(arbiter.Asleep)
	}); err != nil {
		return nil, fmt.Errorf("schedule: invalid sleep_cron %q: %w", sleepCron, err)
	}

	return &Scheduler{cron: c, log: log}, nil
}

// Start begins running the scheduled jobs in the background. cron.Cron
// manages its own goroutine internally.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler, waiting for any in-flight job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
