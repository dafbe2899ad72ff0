package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"go-lms/internal/events"
	"go-lms/internal/notification"
	notificationerrors "go-lms/internal/notification/errors"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafkago.Reader the consumers use.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// ConsumeNotificationRequested stores notification intents published through the outbox.
// Undecodable or invalid payloads are committed and skipped; store failures are left
// uncommitted so the group redelivers them after a rebalance.
func ConsumeNotificationRequested(
	ctx context.Context,
	reader MessageReader,
	notificationService notification.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.notification_requested")
	log.Info("notification consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("notification consumer stopped")
				return
			}
			log.Error("fetch notification message failed", zap.Error(err))
			continue
		}

		var event events.NotificationRequestedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode notification_requested event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := notificationService.Persist(ctx, notification.IntentFromEvent(event)); err != nil {
			if errors.Is(err, notificationerrors.ErrInvalidIntent) {
				log.Warn("invalid notification intent, skipping",
					zap.String("intent_id", event.IntentID),
					zap.String("request_id", event.RequestID),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			log.Error("persist notification failed",
				zap.String("intent_id", event.IntentID),
				zap.String("user_id", event.UserID),
				zap.String("request_id", event.RequestID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit notification message failed", zap.Error(err))
			continue
		}

		log.Info("notification stored from event",
			zap.String("intent_id", event.IntentID),
			zap.String("user_id", event.UserID),
			zap.String("type", event.Type),
		)
	}
}
