// internal/app/system/tasks/scheduler.go
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/fiveplanner/internal/app/system/timeouts"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a periodic maintenance task. Spec, when set, is a cron expression
// and takes precedence over Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Spec     string
	Run      func(ctx context.Context) error
}

func (j Job) schedule() (string, error) {
	if j.Spec != "" {
		return j.Spec, nil
	}
	if j.Interval <= 0 {
		return "", fmt.Errorf("job %q: needs an interval or a cron spec", j.Name)
	}
	return "@every " + j.Interval.String(), nil
}

// Scheduler runs Jobs on a cron. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// New creates a stopped Scheduler.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: logger,
	}
}

// Add registers a job. Each run gets its own context bounded by timeouts.Long.
func (s *Scheduler) Add(j Job) error {
	if j.Run == nil {
		return errors.New("tasks: job has no Run func")
	}
	spec, err := j.schedule()
	if err != nil {
		return err
	}
	_, err = s.cron.AddFunc(spec, func() { s.runOnce(j) })
	if err != nil {
		return fmt.Errorf("job %q: %w", j.Name, err)
	}
	s.log.Info("scheduled job", zap.String("job", j.Name), zap.String("schedule", spec))
	return nil
}

func (s *Scheduler) runOnce(j Job) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()

	start := time.Now()
	if err := j.Run(ctx); err != nil {
		s.log.Warn("job failed", zap.String("job", j.Name), zap.Error(err))
		return
	}
	s.log.Debug("job finished", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

// Start begins running jobs in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for running jobs, or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
