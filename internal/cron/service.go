package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/durent/durent-backend/pkg/logger"
	"github.com/durent/durent-backend/pkg/metrics"
	robfig "github.com/robfig/cron/v3"
)

// ServiceParams configure the cron service. Guard is optional; without it
// every replica runs every fire.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Guard    FireGuard
	Metrics  *metrics.CronJobMetrics
	Location *time.Location
}

// Service executes registered cron jobs on their cron expressions.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	guard    FireGuard
	metrics  *metrics.CronJobMetrics
	loc      *time.Location
	now      func() time.Time
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		guard:    params.Guard,
		metrics:  params.Metrics,
		loc:      loc,
		now:      time.Now,
	}, nil
}

// Run schedules every registered entry and blocks until the context is
// canceled, then waits for in-flight jobs to finish.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	scheduler, err := s.scheduler(ctx)
	if err != nil {
		return err
	}
	if s.guard == nil {
		s.logg.Warn(ctx, "cron.guard.disabled")
	}

	scheduler.Start()
	for _, entry := range scheduler.Entries() {
		s.logg.Info(s.logg.WithField(ctx, "next_run", entry.Next), "cron.entry.scheduled")
	}

	<-ctx.Done()
	s.logg.Info(ctx, "cron service context canceled")
	<-scheduler.Stop().Done()
	return ctx.Err()
}

func (s *Service) scheduler(ctx context.Context) (*robfig.Cron, error) {
	cronLog := cronLogger{logg: s.logg, ctx: ctx}
	scheduler := robfig.New(
		robfig.WithLocation(s.loc),
		robfig.WithLogger(cronLog),
		robfig.WithChain(robfig.Recover(cronLog), robfig.SkipIfStillRunning(cronLog)),
	)
	for _, entry := range s.registry.Entries() {
		job := entry.Job
		if _, err := scheduler.AddFunc(entry.Spec, func() { s.fire(ctx, job) }); err != nil {
			return nil, fmt.Errorf("register %s (%q): %w", job.Name(), entry.Spec, err)
		}
	}
	return scheduler, nil
}

// fire runs a scheduled tick of job unless another replica already claimed it.
func (s *Service) fire(ctx context.Context, job Job) {
	jobCtx := s.logg.WithJob(ctx, job.Name())
	if s.guard != nil {
		claimed, err := s.guard.Claim(jobCtx, job.Name(), s.now())
		if err != nil {
			s.logg.Error(jobCtx, "cron.job.claim_failed", err)
			s.recordFailure(job.Name())
			return
		}
		if !claimed {
			s.logg.Info(jobCtx, "cron.job.skipped")
			s.metrics.IncSkipped(job.Name())
			return
		}
	}
	_ = s.Execute(ctx, job)
}

// Execute runs job once, recording duration and outcome. Scheduled fires and
// manual triggers both go through here.
func (s *Service) Execute(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithJob(ctx, job.Name())
	jobCtx = s.logg.WithField(jobCtx, "event", "cron.job")
	s.logg.Info(jobCtx, "cron.job.started")
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.observeDuration(job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "cron.job.failed", err)
		s.recordFailure(job.Name())
		return err
	}
	s.logg.Info(jobCtx, "cron.job.completed")
	s.recordSuccess(job.Name())
	return nil
}

// Trigger executes a registered job by name, bypassing the fire guard.
func (s *Service) Trigger(ctx context.Context, name string) error {
	job, ok := s.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown cron job %q", name)
	}
	return s.Execute(s.logg.WithField(ctx, "trigger", "manual"), job)
}

func (s *Service) observeDuration(job string, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(job, duration)
}

func (s *Service) recordSuccess(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncSuccess(job)
}

func (s *Service) recordFailure(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncFailure(job)
}

// cronLogger routes scheduler internals into the service logger.
type cronLogger struct {
	logg *logger.Logger
	ctx  context.Context
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logg.Debug(l.logg.WithFields(l.ctx, pairs(keysAndValues)), "cron.scheduler."+msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logg.Error(l.logg.WithFields(l.ctx, pairs(keysAndValues)), "cron.scheduler."+msg, err)
}

func pairs(keysAndValues []any) map[string]any {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
