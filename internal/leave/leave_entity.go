package leave

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeKitchenLeave = "kitchen_leave"
	TypeOnLeave      = "on_leave"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusExpired  = "expired"
)

// Leave is one leave request. UserName and UserEmail are a snapshot of the requester at
// creation time. StartDate and EndDate are calendar days (see datex).
type Leave struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:idx_leaves_user_created"`
	UserName  string    `gorm:"column:user_name;type:varchar(255);not null"`
	UserEmail string    `gorm:"column:user_email;type:text;not null"`

	LeaveType string    `gorm:"column:leave_type;type:varchar(30);not null"`
	StartDate time.Time `gorm:"column:start_date;type:date;not null"`
	EndDate   time.Time `gorm:"column:end_date;type:date;not null"`
	Reason    *string   `gorm:"column:reason;type:text"`
	Status    string    `gorm:"column:status;type:varchar(20);not null;default:pending"`

	ApprovedBy     *string    `gorm:"column:approved_by;type:varchar(128)"`
	ApprovedByName *string    `gorm:"column:approved_by_name;type:varchar(255)"`
	ApprovedAt     *time.Time `gorm:"column:approved_at"`

	RejectedBy      *string    `gorm:"column:rejected_by;type:varchar(128)"`
	RejectedByName  *string    `gorm:"column:rejected_by_name;type:varchar(255)"`
	RejectionReason *string    `gorm:"column:rejection_reason;type:text"`
	RejectedAt      *time.Time `gorm:"column:rejected_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Leave) TableName() string {
	return "leaves"
}

// Open reports whether the leave still holds its dates: pending and approved leaves do,
// rejected and expired ones never do.
func (l Leave) Open() bool {
	return l.Status == StatusPending || l.Status == StatusApproved
}

func IsValidType(t string) bool {
	return t == TypeKitchenLeave || t == TypeOnLeave
}

// TypeLabel is the wording used in user-facing messages.
func TypeLabel(t string) string {
	if t == TypeKitchenLeave {
		return "kitchen leave"
	}
	return "leave"
}
