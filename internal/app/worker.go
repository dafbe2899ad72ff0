package app

import (
	"context"
	"fmt"

	"go-lms/internal/bootstrap"
	"go-lms/internal/config"
	"go-lms/internal/messaging/kafka"
	"go-lms/internal/messaging/kafka/producer"
	"go-lms/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker relays queued notification events from outbox_events to Kafka.
func RunWorker(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.worker")

	if cfg.Kafka.Broker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	in, err := connectInfra(cfg, false, log)
	if err != nil {
		return err
	}
	defer in.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.Kafka.Broker, cfg.Database.MaxRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(in.sqlDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		cfg.Kafka.PollInterval,
	)

	sig := bootstrap.WaitForSignal(ctx)
	log.Info("worker shutting down", zap.String("signal", sig))
	cancel()

	return nil
}
