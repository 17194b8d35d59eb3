// Package scheduler runs collection and report synthesis on cron
// schedules.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"psyinsight/internal/config"
)

// Jobs are the scheduled entry points. The scheduler owns no pipeline
// state; it only dispatches.
type Jobs struct {
	CollectNews    func(context.Context)
	CollectPapers  func(context.Context)
	CollectEconomy func(context.Context)
}

// Scheduler wraps a cron runner over the configured schedule.
type Scheduler struct {
	cron *cron.Cron
	cfg  config.Schedule
	jobs Jobs
}

func New(cfg config.Schedule, jobs Jobs) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		cfg:  cfg,
		jobs: jobs,
	}
}

// Start registers the enabled jobs and starts the cron loop. It
// returns immediately; Stop shuts the loop down.
func (s *Scheduler) Start() error {
	entries := []struct {
		name string
		spec string
		run  func(context.Context)
	}{
		{"news", s.cfg.News, s.jobs.CollectNews},
		{"papers", s.cfg.Papers, s.jobs.CollectPapers},
		{"economy", s.cfg.Economy, s.jobs.CollectEconomy},
	}

	for _, e := range entries {
		if e.spec == "" || e.run == nil {
			continue
		}
		name, run := e.name, e.run
		_, err := s.cron.AddFunc(e.spec, func() {
			log.Printf("scheduler: running %s collection", name)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			run(ctx)
		})
		if err != nil {
			return err
		}
		log.Printf("scheduler: %s collection scheduled at %q", name, e.spec)
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
