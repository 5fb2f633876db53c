package usecase

import (
	"context"
	"errors"
	"time"

	"ReviewPulse/internal/domain"
	"ReviewPulse/internal/ports"
)

// ErrRunInProgress is returned when a trigger arrives while a run is
// still executing. Runs are never allowed to overlap: overlapping runs
// for the same period would race on the existence-check-then-insert.
var ErrRunInProgress = errors.New("a batch run is already in progress")

// Scheduler wires the cron driver to the pipeline and enforces the
// single-active-run rule for scheduled and manual triggers alike.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline

	running chan struct{}
}

// NewScheduler returns a helper to start/stop the recurring daily run.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline) *Scheduler {
	running := make(chan struct{}, 1)
	running <- struct{}{}
	return &Scheduler{driver: driver, pipeline: pipeline, running: running}
}

// Start registers the daily job with the provided scheduler driver.
// A trigger firing while a run is active is dropped, not queued; the
// idempotency check makes the next trigger cover the same ground.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		_, _ = s.TriggerRun(ctx, RunOptions{Period: domain.PreviousDay(trigger)})
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

// TriggerRun executes one run if no other run is active, otherwise it
// returns ErrRunInProgress. The manual/backfill path shares this gate
// with the scheduled one.
func (s *Scheduler) TriggerRun(ctx context.Context, opts RunOptions) (domain.BatchRunReport, error) {
	select {
	case <-s.running:
	default:
		return domain.BatchRunReport{}, ErrRunInProgress
	}
	defer func() { s.running <- struct{}{} }()

	return s.pipeline.Run(ctx, opts)
}
