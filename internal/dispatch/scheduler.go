package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron schedule. Runs never overlap: a tick that
// fires while the previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	loc    *time.Location
	job    Job
	logger *zap.Logger
}

// NewScheduler parses spec (standard five-field cron) in loc.
func NewScheduler(spec string, loc *time.Location, job Job, logger *zap.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("scheduler: job is required")
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", spec, err)
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger}), cron.Recover(cronLogger{logger})),
	)
	return &Scheduler{cron: c, spec: spec, loc: loc, job: job, logger: logger}, nil
}

// Run schedules the job and blocks until ctx is done. With runOnStart the job
// also runs once immediately.
func (s *Scheduler) Run(ctx context.Context, runOnStart bool) error {
	if runOnStart {
		s.run(ctx, "start")
	}

	id, err := s.cron.AddFunc(s.spec, func() { s.run(ctx, "cron") })
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("cron", s.spec),
		zap.Time("next", s.cron.Entry(id).Next),
	)

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// Next returns the next n activation times after from.
func (s *Scheduler) Next(from time.Time, n int) []time.Time {
	sched, err := cron.ParseStandard(s.spec)
	if err != nil {
		return nil
	}
	out := make([]time.Time, 0, n)
	t := from.In(s.loc)
	for range n {
		t = sched.Next(t)
		out = append(out, t)
	}
	return out
}

func (s *Scheduler) run(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled run failed", zap.String("trigger", trigger), zap.Error(err))
		return
	}
	s.logger.Info("scheduled run finished",
		zap.String("trigger", trigger),
		zap.Duration("took", time.Since(start)),
	)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
