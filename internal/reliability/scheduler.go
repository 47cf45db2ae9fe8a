package reliability

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a named unit of periodic work.
type Job interface {
	Run() error
	Name() string
}

// Scheduler drives periodic jobs (the in-flight staleness sweep, the
// process-health check) on their own cron schedules, independently of the
// engine's event loop. A Scheduler never touches engine state directly;
// jobs it runs only ever read snapshots.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New builds a Scheduler. Schedules passed to AddJob use standard five-field
// cron syntax plus the "@every" shorthand.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start begins running registered jobs on their schedules. Non-blocking.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop waits for any in-flight job run to finish, then returns.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers job on schedule, e.g. "@every 30s" or "0 */5 * * * *".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := job.Run(); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
		}
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("job registered")
	return nil
}

// SweepJob adapts engine.Engine.SweepStaleInFlight into a Job. It never
// mutates the store; it only inspects a read-only snapshot and emits a log
// line and an audit record when it finds stale in-flight opens.
type SweepJob struct {
	Sweep func()
}

func (j SweepJob) Run() error {
	j.Sweep()
	return nil
}

func (j SweepJob) Name() string { return "in_flight_sweep" }

// ProcessHealthJob adapts MonitoringService.CheckProcessHealth into a Job.
type ProcessHealthJob struct {
	Monitoring *MonitoringService
}

func (j ProcessHealthJob) Run() error {
	return j.Monitoring.CheckProcessHealth()
}

func (j ProcessHealthJob) Name() string { return "process_health" }
