// Package scheduler fires the periodic fetch on a cron schedule.
package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a callback on a cron schedule (standard five-field
// specs plus descriptors such as @hourly).
type Scheduler struct {
	cron *cron.Cron
	spec string
	log  *slog.Logger
}

// New validates the schedule and registers fn to run on it.
func New(spec string, fn func(), log *slog.Logger) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, fn); err != nil {
		return nil, fmt.Errorf("bad schedule %q: %w", spec, err)
	}

	return &Scheduler{
		cron: c,
		spec: spec,
		log:  log,
	}, nil
}

// Start begins firing the schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	if entries := s.cron.Entries(); len(entries) > 0 {
		s.log.Info("schedule started", "spec", s.spec, "next_run", entries[0].Next)
	}
}

// Stop stops the schedule and waits for a running callback to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("schedule stopped", "spec", s.spec)
}
