// Package scheduler runs the background maintenance jobs on cron
// schedules: run-history pruning, WAL checkpoints, and database
// backups.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aristath/qfactor/internal/events"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	bus  *events.Bus
	log  zerolog.Logger
}

// New creates a new scheduler. The bus is optional; when present a
// JobCompleted event is published after every run.
func New(bus *events.Bus, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		bus:  bus,
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with a cron schedule
// Schedule examples:
//   - "*/5 * * * *"     - Every 5 minutes
//   - "@hourly"         - Every hour
//   - "30 3 * * *"      - 03:30 daily
//   - "@every 30s"      - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.run(job)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}

func (s *Scheduler) run(job Job) {
	s.log.Debug().Str("job", job.Name()).Msg("Running job")
	start := time.Now()

	err := job.Run()
	elapsed := time.Since(start)

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Dur("elapsed", elapsed).
			Msg("Job failed")
	} else {
		s.log.Debug().
			Str("job", job.Name()).
			Dur("elapsed", elapsed).
			Msg("Job completed")
	}

	if s.bus != nil {
		data := &events.JobCompletedData{
			Job:        job.Name(),
			DurationMS: elapsed.Milliseconds(),
		}
		if err != nil {
			data.Error = err.Error()
		}
		s.bus.Publish("scheduler", data)
	}
}
