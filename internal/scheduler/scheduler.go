// Package scheduler runs the leave sweeps on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go-lms/internal/leave"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	defaultKitchenExpirySpec = "5 0 * * *"
	defaultOnLeaveCheckSpec  = "@daily"
	defaultActivationSpec    = "@hourly"
	defaultOutboxPurgeSpec   = "@daily"
	defaultOutboxRetention   = 7 * 24 * time.Hour
	defaultJobTimeout        = 5 * time.Minute
)

// OutboxPurger removes relayed outbox rows.
type OutboxPurger interface {
	PurgeSent(ctx context.Context, olderThan time.Time) (int64, error)
}

type Runner struct {
	sweeper   leave.Sweeper
	cron      *cron.Cron
	loc       *time.Location
	now       func() time.Time
	log       *zap.Logger
	timeout   time.Duration
	schedules map[string]string

	outbox          OutboxPurger
	outboxSchedule  string
	outboxRetention time.Duration
}

type Option func(*Runner)

// WithCron injects a preconfigured cron instance, mainly for tests.
func WithCron(c *cron.Cron) Option {
	return func(r *Runner) {
		if c != nil {
			r.cron = c
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLocation evaluates cron specs in loc.
func WithLocation(loc *time.Location) Option {
	return func(r *Runner) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l.Named("scheduler")
		}
	}
}

// WithSchedule overrides the cron spec for one sweep. Empty specs keep the default.
func WithSchedule(sweep, spec string) Option {
	return func(r *Runner) {
		if spec != "" {
			r.schedules[sweep] = spec
		}
	}
}

// WithOutboxPurge also deletes sent outbox rows older than retention.
func WithOutboxPurge(p OutboxPurger, spec string, retention time.Duration) Option {
	return func(r *Runner) {
		r.outbox = p
		if spec != "" {
			r.outboxSchedule = spec
		}
		if retention > 0 {
			r.outboxRetention = retention
		}
	}
}

func NewRunner(sweeper leave.Sweeper, opts ...Option) *Runner {
	r := &Runner{
		sweeper: sweeper,
		loc:     time.UTC,
		now:     time.Now,
		log:     zap.L().Named("scheduler"),
		timeout: defaultJobTimeout,
		schedules: map[string]string{
			leave.SweepExpireKitchenLeaves:  defaultKitchenExpirySpec,
			leave.SweepCheckExpiredOnLeaves: defaultOnLeaveCheckSpec,
			leave.SweepActivateFutureLeaves: defaultActivationSpec,
		},
		outboxSchedule:  defaultOutboxPurgeSpec,
		outboxRetention: defaultOutboxRetention,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cron == nil {
		r.cron = cron.New(
			cron.WithLocation(r.loc),
			cron.WithLogger(cron.DiscardLogger),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		)
	}
	return r
}

// Start registers every job and starts the cron loop.
func (r *Runner) Start() error {
	for _, name := range leave.SweepNames {
		spec := r.schedules[name]
		if _, err := r.cron.AddFunc(spec, func() { r.runSweep(name) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
		}
		r.log.Info("sweep scheduled", zap.String("sweep", name), zap.String("spec", spec))
	}

	if r.outbox != nil {
		if _, err := r.cron.AddFunc(r.outboxSchedule, r.purgeOutbox); err != nil {
			return fmt.Errorf("schedule outbox purge (%q): %w", r.outboxSchedule, err)
		}
	}

	r.cron.Start()
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (r *Runner) Stop() context.Context {
	return r.cron.Stop()
}

// RunOnce runs every sweep in order and reports all failures together.
func (r *Runner) RunOnce(ctx context.Context) error {
	var errs error
	for _, name := range leave.SweepNames {
		res, err := leave.RunSweep(ctx, r.sweeper, name)
		r.logResult(res, err)
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (r *Runner) runSweep(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	res, err := leave.RunSweep(ctx, r.sweeper, name)
	r.logResult(res, err)
}

func (r *Runner) purgeOutbox() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	cutoff := r.now().Add(-r.outboxRetention)
	n, err := r.outbox.PurgeSent(ctx, cutoff)
	if err != nil {
		r.log.Warn("outbox purge failed", zap.Error(err))
		return
	}
	r.log.Info("outbox purged", zap.Int64("deleted", n), zap.Time("older_than", cutoff))
}

func (r *Runner) logResult(res leave.SweepResult, err error) {
	fields := []zap.Field{
		zap.String("sweep", res.Sweep),
		zap.Int("scanned", res.Scanned),
		zap.Int("processed", res.Processed),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	}
	if err != nil {
		r.log.Warn("sweep finished with errors", append(fields, zap.Error(err))...)
		return
	}
	r.log.Info("sweep finished", fields...)
}
