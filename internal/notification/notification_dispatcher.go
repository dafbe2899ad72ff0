package notification

import (
	"context"
	"database/sql"
	"encoding/json"

	"go-lms/internal/events"
	"go-lms/internal/messaging/kafka"
	"go-lms/internal/shared/contextutil"
	"go-lms/internal/shared/metrics"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type directDispatcher struct {
	svc    Service
	logger *zap.Logger
}

// NewDirectDispatcher stores intents synchronously, without Kafka.
func NewDirectDispatcher(svc Service, logger ...*zap.Logger) Dispatcher {
	l := zap.L().Named("notification.dispatcher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.dispatcher")
	}
	return &directDispatcher{svc: svc, logger: l}
}

// Dispatch stores every intent and reports all failures together.
func (d *directDispatcher) Dispatch(ctx context.Context, intents ...Intent) error {
	var errs error
	for _, intent := range intents {
		if err := d.svc.Persist(ctx, intent); err != nil {
			metrics.NotificationDispatch.WithLabelValues("error").Inc()
			errs = multierr.Append(errs, err)
			continue
		}
		metrics.NotificationDispatch.WithLabelValues("ok").Inc()
	}
	return errs
}

type outboxDispatcher struct {
	db     *sql.DB
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

// NewOutboxDispatcher queues intents in outbox_events. The outbox worker publishes them to
// Kafka and the notification consumer stores them.
func NewOutboxDispatcher(db *sql.DB, outbox kafka.OutboxRepository, logger ...*zap.Logger) Dispatcher {
	l := zap.L().Named("notification.dispatcher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.dispatcher")
	}
	return &outboxDispatcher{db: db, outbox: outbox, logger: l}
}

// Dispatch queues all intents in one transaction: either every intent is queued or none is.
func (d *outboxDispatcher) Dispatch(ctx context.Context, intents ...Intent) error {
	if len(intents) == 0 {
		return nil
	}
	rid := contextutil.GetRequestID(ctx)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		d.logger.Error("notification outbox begin tx failed", zap.Error(err))
		metrics.NotificationDispatch.WithLabelValues("error").Add(float64(len(intents)))
		return err
	}
	defer tx.Rollback()

	outboxRepo := d.outbox.WithTx(tx)
	for _, intent := range intents {
		payload, err := json.Marshal(EventFromIntent(intent, rid))
		if err != nil {
			metrics.NotificationDispatch.WithLabelValues("error").Add(float64(len(intents)))
			return err
		}

		if err := outboxRepo.Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			AggregateType: "notification",
			AggregateID:   intent.UserID,
			EventType:     events.NotificationRequestedEventType,
			Topic:         events.NotificationRequestedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			d.logger.Error("notification outbox persist failed",
				zap.String("intent_id", intent.ID),
				zap.String("user_id", intent.UserID),
				zap.Error(err),
			)
			metrics.NotificationDispatch.WithLabelValues("error").Add(float64(len(intents)))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		d.logger.Error("notification outbox commit failed", zap.Error(err))
		metrics.NotificationDispatch.WithLabelValues("error").Add(float64(len(intents)))
		return err
	}

	metrics.NotificationDispatch.WithLabelValues("ok").Add(float64(len(intents)))
	d.logger.Debug("notification intents queued", zap.Int("count", len(intents)), zap.String("request_id", rid))
	return nil
}

func EventFromIntent(intent Intent, requestID string) events.NotificationRequestedEvent {
	return events.NotificationRequestedEvent{
		EventType:      events.NotificationRequestedEventType,
		RequestID:      requestID,
		IntentID:       intent.ID,
		UserID:         intent.UserID,
		Type:           intent.Type,
		Title:          intent.Title,
		Message:        intent.Message,
		RelatedLeaveID: intent.RelatedLeaveID,
		OccurredAt:     intent.CreatedAt,
	}
}

func IntentFromEvent(event events.NotificationRequestedEvent) Intent {
	return Intent{
		ID:             event.IntentID,
		UserID:         event.UserID,
		Type:           event.Type,
		Title:          event.Title,
		Message:        event.Message,
		RelatedLeaveID: event.RelatedLeaveID,
		CreatedAt:      event.OccurredAt,
	}
}
