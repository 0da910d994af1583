// Package scheduler implements background job scheduling
package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Sweeper removes expired entries from the resolution cache.
type Sweeper interface {
	SweepExpired() int
}

// Scheduler runs the periodic cache sweep.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string
}

// NewScheduler creates a scheduler that sweeps the cache per the cron spec.
func NewScheduler(sweeper Sweeper, spec string) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		sweeper: sweeper,
		spec:    spec,
	}
}

// Start registers the sweep job and begins the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		removed := s.sweeper.SweepExpired()
		if removed > 0 {
			slog.Info("cache sweep completed", "removed", removed)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("cache sweep scheduled", "spec", s.spec)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
