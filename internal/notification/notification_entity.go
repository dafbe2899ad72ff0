package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Notification struct {
	ID             uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID        uuid.UUID                   `gorm:"column:event_id;type:uuid;not null;uniqueIndex:uq_notifications_event_id"`
	UserID         uuid.UUID                   `gorm:"column:user_id;type:uuid;not null;index"`
	Type           string                      `gorm:"column:type;type:varchar(50);not null"`
	Title          string                      `gorm:"column:title;type:varchar(255);not null"`
	Message        string                      `gorm:"column:message;type:text;not null"`
	ReadBy         datatypes.JSONSlice[string] `gorm:"column:read_by;type:jsonb;not null"`
	RelatedLeaveID *uuid.UUID                  `gorm:"column:related_leave_id;type:uuid"`
	CreatedAt      time.Time                   `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n Notification) IsReadBy(viewerID string) bool {
	for _, v := range n.ReadBy {
		if v == viewerID {
			return true
		}
	}
	return false
}
