package events

import "time"

const NotificationRequestedTopic = "lms.notification.requested.v1"

const NotificationRequestedEventType = "notification_requested"

// NotificationRequestedEvent carries one notification intent from the outbox to the consumer.
// IntentID is stable across redeliveries and is used to drop duplicates.
type NotificationRequestedEvent struct {
	EventType      string    `json:"event_type"`
	RequestID      string    `json:"request_id,omitempty"`
	IntentID       string    `json:"intent_id"`
	UserID         string    `json:"user_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	RelatedLeaveID string    `json:"related_leave_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
