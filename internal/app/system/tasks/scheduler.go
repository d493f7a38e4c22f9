// internal/app/system/tasks/scheduler.go
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dalemusser/trainhub/internal/app/system/timeouts"
)

// Job is one scheduled unit of background work. Spec is a 6-field cron
// expression (seconds first), e.g. "0 */15 * * * *" for every 15 minutes.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs registered jobs on their cron specs. Runs get a
// batch-length timeout and a panic guard so one bad sweep cannot take the
// process down.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// NewScheduler creates a stopped scheduler. Register jobs, then Start.
func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log,
	}
}

// Register adds a job. Returns an error when the cron spec does not parse.
func (s *Scheduler) Register(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %q has no run function", job.Name)
	}
	_, err := s.cron.AddFunc(job.Spec, func() {
		s.runOne(job)
	})
	if err != nil {
		return fmt.Errorf("register job %q (%q): %w", job.Name, job.Spec, err)
	}
	s.log.Info("job registered",
		zap.String("job", job.Name),
		zap.String("spec", job.Spec))
	return nil
}

func (s *Scheduler) runOne(job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("job panicked",
				zap.String("job", job.Name),
				zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error("job failed",
			zap.String("job", job.Name),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return
	}
	s.log.Debug("job finished",
		zap.String("job", job.Name),
		zap.Duration("took", time.Since(start)))
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop halts scheduling and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}
