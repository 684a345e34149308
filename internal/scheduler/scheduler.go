// Package scheduler drives periodic sync runs on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a scheduled task.
type Job func(ctx context.Context)

// Scheduler manages the periodic sync trigger.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a new scheduler.
func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// AddSyncJob schedules job to run every interval.
func (s *Scheduler) AddSyncJob(interval time.Duration, job Job) error {
	schedule := fmt.Sprintf("@every %s", interval)
	_, err := s.cron.AddFunc(schedule, func() {
		log.Printf("[scheduler] Starting sync (interval: %s)", interval)
		start := time.Now()
		job(context.Background())
		log.Printf("[scheduler] Sync finished in %v", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	log.Println("[scheduler] Starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and returns a context that is done once running
// jobs complete.
func (s *Scheduler) Stop() context.Context {
	log.Println("[scheduler] Stopping scheduler")
	return s.cron.Stop()
}
