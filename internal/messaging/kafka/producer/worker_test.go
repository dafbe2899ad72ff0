package producer

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"go-lms/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeOutboxRepo struct {
	pending []kafka.OutboxEvent
	listErr error
	sent    []string
	failed  map[string]string
}

func (f *fakeOutboxRepo) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepo) Create(ctx context.Context, event kafka.OutboxEvent) error { return nil }

func (f *fakeOutboxRepo) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return f.pending, f.listErr
}

func (f *fakeOutboxRepo) MarkSent(ctx context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(ctx context.Context, id string, reason string) (bool, error) {
	if f.failed == nil {
		f.failed = map[string]string{}
	}
	f.failed[id] = reason
	return false, nil
}

func (f *fakeOutboxRepo) PurgeSent(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

type fakeWriter struct {
	failTopic string
	messages  []kafkago.Message
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if m.Topic == w.failTopic {
			return errors.New("leader not available")
		}
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func TestProcessPendingEvents(t *testing.T) {
	repo := &fakeOutboxRepo{
		pending: []kafka.OutboxEvent{
			{ID: "a", RequestID: "req-1", AggregateID: "leave-1", Topic: "ok.topic", EventType: "notification_requested", Payload: []byte(`{}`)},
			{ID: "b", AggregateID: "leave-2", Topic: "broken.topic", EventType: "notification_requested", Payload: []byte(`{}`)},
		},
	}
	writer := &fakeWriter{failTopic: "broken.topic"}

	err := processPendingEvents(context.Background(), repo, writer, zap.NewNop())

	assert.NoError(t, err)
	assert.Equal(t, []string{"a"}, repo.sent)
	assert.Equal(t, "leader not available", repo.failed["b"])
	if assert.Len(t, writer.messages, 1) {
		msg := writer.messages[0]
		assert.Equal(t, []byte("leave-1"), msg.Key)
		assert.Contains(t, msg.Headers, kafkago.Header{Key: "request_id", Value: []byte("req-1")})
	}
}

func TestProcessPendingEvents_ListError(t *testing.T) {
	repo := &fakeOutboxRepo{listErr: errors.New("db down")}

	err := processPendingEvents(context.Background(), repo, &fakeWriter{}, zap.NewNop())

	assert.Error(t, err)
}

func TestProcessOutboxEvents_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		ProcessOutboxEvents(ctx, &fakeOutboxRepo{}, &fakeWriter{}, zap.NewNop(), 10*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
