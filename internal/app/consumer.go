package app

import (
	"context"
	"fmt"

	"go-lms/internal/bootstrap"
	"go-lms/internal/config"
	"go-lms/internal/events"
	"go-lms/internal/messaging/kafka/consumer"
	"go-lms/internal/notification"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer stores notification events published by the outbox worker.
func RunConsumer(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.consumer")

	if cfg.Kafka.Broker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	in, err := connectInfra(cfg, false, log)
	if err != nil {
		return err
	}
	defer in.Close()

	notificationService := notification.NewService(notification.NewRepository(in.gormDB), logger)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.Kafka.Broker},
		Topic:          events.NotificationRequestedTopic,
		GroupID:        cfg.Kafka.NotificationGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeNotificationRequested(ctx, reader, notificationService, logger)

	sig := bootstrap.WaitForSignal(ctx)
	log.Info("consumer shutting down", zap.String("signal", sig))
	cancel()

	return nil
}
