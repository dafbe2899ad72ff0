package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStudent           = "student"
	RoleMentor            = "mentor"
	RoleAdmin             = "admin"
	RoleAcademicAssociate = "academic_associate"
)

// Derived statuses. Only the leave lifecycle writes these.
const (
	StatusActive          = "active"
	StatusKitchenLeave    = "kitchen_leave"
	StatusOnLeave         = "on_leave"
	StatusUnapprovedLeave = "unapproved_leave"
)

// Column names of the leave-derived fields, used with UpdateFields.
const (
	FieldStatus               = "status"
	FieldLeaveFrom            = "leave_from"
	FieldLeaveTo              = "leave_to"
	FieldUnapprovedLeaveStart = "unapproved_leave_start"
)

type User struct {
	ID                   uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Name                 string         `gorm:"column:name;type:varchar(255);not null"`
	Email                string         `gorm:"column:email;type:text;not null;uniqueIndex:uq_users_email"`
	Role                 string         `gorm:"column:role;type:varchar(30);not null;default:student"`
	Status               string         `gorm:"column:status;type:varchar(30);not null;default:active"`
	LeaveFrom            *time.Time     `gorm:"column:leave_from;type:date"`
	LeaveTo              *time.Time     `gorm:"column:leave_to;type:date"`
	UnapprovedLeaveStart *time.Time     `gorm:"column:unapproved_leave_start"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt            gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (User) TableName() string {
	return "users"
}

func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleMentor, RoleAdmin, RoleAcademicAssociate:
		return true
	default:
		return false
	}
}
