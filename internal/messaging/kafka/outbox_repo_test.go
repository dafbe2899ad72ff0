package kafka_test

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"go-lms/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts inside the bound transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO outbox_events").
			WithArgs("evt-1", "req-1", "notification", "leave-1", "notification_requested",
				"lms.notification.requested.v1", []byte(`{}`), kafka.OutboxStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := db.Begin()
		require.NoError(t, err)

		repo := kafka.NewOutboxRepository(db).WithTx(tx)
		err = repo.Create(ctx, kafka.OutboxEvent{
			ID:            "evt-1",
			RequestID:     "req-1",
			AggregateType: "notification",
			AggregateID:   "leave-1",
			EventType:     "notification_requested",
			Topic:         "lms.notification.requested.v1",
			Payload:       []byte(`{}`),
			Status:        kafka.OutboxStatusPending,
		})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects invalid event", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		err = kafka.NewOutboxRepository(db).Create(ctx, kafka.OutboxEvent{ID: "evt-1", Status: kafka.OutboxStatusPending})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_ListPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "request_id", "aggregate_type", "aggregate_id", "event_type", "topic", "payload", "status", "retry_count", "next_retry_at",
	}).AddRow("evt-1", "req-1", "notification", "leave-1", "notification_requested", "lms.notification.requested.v1", []byte(`{}`), "pending", 0, now)

	mock.ExpectQuery("FROM outbox_events").
		WithArgs(kafka.OutboxStatusPending, kafka.OutboxStatusFailed, 50).
		WillReturnRows(rows)

	events, err := kafka.NewOutboxRepository(db).ListPending(context.Background(), 50)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, now, events[0].NextRetryAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_MarkFailedAndPurge(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := kafka.NewOutboxRepository(db)
	ctx := context.Background()
	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("UPDATE outbox_events").
		WithArgs("evt-1", kafka.OutboxStatusFailed, "broker down", kafka.MaxDeliveryAttempts, kafka.OutboxStatusDead).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(kafka.OutboxStatusFailed))
	mock.ExpectQuery("UPDATE outbox_events").
		WithArgs("evt-2", kafka.OutboxStatusFailed, "broker down", kafka.MaxDeliveryAttempts, kafka.OutboxStatusDead).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(kafka.OutboxStatusDead))
	mock.ExpectExec("DELETE FROM outbox_events").
		WithArgs(kafka.OutboxStatusSent, driver.Value(cutoff)).
		WillReturnResult(sqlmock.NewResult(0, 12))

	dead, err := repo.MarkFailed(ctx, "evt-1", "broker down")
	require.NoError(t, err)
	assert.False(t, dead)

	dead, err = repo.MarkFailed(ctx, "evt-2", "broker down")
	require.NoError(t, err)
	assert.True(t, dead)

	purged, err := repo.PurgeSent(ctx, cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(12), purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
