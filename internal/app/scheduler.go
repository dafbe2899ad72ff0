package app

import (
	"context"

	"go-lms/internal/bootstrap"
	"go-lms/internal/config"
	"go-lms/internal/leave"
	"go-lms/internal/messaging/kafka"
	"go-lms/internal/scheduler"

	"go.uber.org/zap"
)

// RunScheduler runs the leave sweeps on their cron schedules until a shutdown signal.
func RunScheduler(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.scheduler")

	in, err := connectInfra(cfg, true, log)
	if err != nil {
		return err
	}
	defer in.Close()

	leaveService, err := newLeaveService(cfg, in, logger)
	if err != nil {
		return err
	}
	loc, err := cfg.Leave.Location()
	if err != nil {
		return err
	}

	opts := []scheduler.Option{
		scheduler.WithLogger(logger),
		scheduler.WithLocation(loc),
		scheduler.WithSchedule(leave.SweepExpireKitchenLeaves, cfg.Sweep.KitchenExpirySchedule),
		scheduler.WithSchedule(leave.SweepCheckExpiredOnLeaves, cfg.Sweep.OnLeaveCheckSchedule),
		scheduler.WithSchedule(leave.SweepActivateFutureLeaves, cfg.Sweep.ActivationSchedule),
	}
	if cfg.Notification.Delivery == config.DeliveryOutbox {
		opts = append(opts, scheduler.WithOutboxPurge(
			kafka.NewOutboxRepository(in.sqlDB),
			cfg.Sweep.OutboxPurgeSchedule,
			cfg.Sweep.OutboxRetention,
		))
	}
	runner := scheduler.NewRunner(leaveService, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Sweep.RunOnStart {
		if err := runner.RunOnce(ctx); err != nil {
			log.Warn("startup sweep finished with errors", zap.Error(err))
		}
	}

	if err := runner.Start(); err != nil {
		return err
	}

	sig := bootstrap.WaitForSignal(ctx)
	log.Info("scheduler shutting down", zap.String("signal", sig))
	<-runner.Stop().Done()

	return nil
}
