package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeLeaveRequested    = "leave_requested"
	TypeLeaveApproved     = "leave_approved"
	TypeLeaveRejected     = "leave_rejected"
	TypeLeaveExpired      = "leave_expired"
	TypeLeaveExpiredAdmin = "leave_expired_admin"
)

// Intent is a request to tell a user something. The leave lifecycle only produces intents;
// a Dispatcher decides how and when they become stored notifications.
type Intent struct {
	ID             string
	UserID         string
	Type           string
	Title          string
	Message        string
	RelatedLeaveID string
	CreatedAt      time.Time
}

func NewIntent(userID, typ, title, message, relatedLeaveID string) Intent {
	return Intent{
		ID:             uuid.NewString(),
		UserID:         userID,
		Type:           typ,
		Title:          title,
		Message:        message,
		RelatedLeaveID: relatedLeaveID,
		CreatedAt:      time.Now().UTC(),
	}
}

type Dispatcher interface {
	Dispatch(ctx context.Context, intents ...Intent) error
}
