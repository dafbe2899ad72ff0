package leave

import (
	"time"

	"go-lms/internal/shared/datex"
	"go-lms/internal/user"
)

// Overlaps reports whether two leaves share a calendar day.
func Overlaps(a, b Leave) bool {
	return datex.Overlaps(a.StartDate, a.EndDate, b.StartDate, b.EndDate)
}

// FindConflict returns the first open leave in existing that overlaps [start, end].
func FindConflict(existing []Leave, start, end time.Time) *Leave {
	for i := range existing {
		l := existing[i]
		if !l.Open() {
			continue
		}
		if datex.Overlaps(start, end, l.StartDate, l.EndDate) {
			return &existing[i]
		}
	}
	return nil
}

// FindApprovedConflict returns the first other approved leave that overlaps candidate.
func FindApprovedConflict(existing []Leave, candidate Leave) *Leave {
	for i := range existing {
		l := existing[i]
		if l.ID == candidate.ID || l.Status != StatusApproved {
			continue
		}
		if Overlaps(candidate, l) {
			return &existing[i]
		}
	}
	return nil
}

// DerivedStatus is the user status projected from approved leaves on a given day.
type DerivedStatus struct {
	Status    string
	LeaveFrom *time.Time
	LeaveTo   *time.Time
	// Source is the leave the status came from; nil when the user is active.
	Source *Leave
}

// DeriveStatus picks the approved leave covering asOf. An on_leave outranks a kitchen_leave;
// within a type the first match wins.
func DeriveStatus(leaves []Leave, asOf time.Time) DerivedStatus {
	var kitchen *Leave
	for i := range leaves {
		l := leaves[i]
		if l.Status != StatusApproved || !datex.Contains(l.StartDate, l.EndDate, asOf) {
			continue
		}
		if l.LeaveType == TypeOnLeave {
			return derivedFrom(&leaves[i], user.StatusOnLeave)
		}
		if kitchen == nil && l.LeaveType == TypeKitchenLeave {
			kitchen = &leaves[i]
		}
	}
	if kitchen != nil {
		return derivedFrom(kitchen, user.StatusKitchenLeave)
	}
	return DerivedStatus{Status: user.StatusActive}
}

func derivedFrom(l *Leave, status string) DerivedStatus {
	return DerivedStatus{
		Status:    status,
		LeaveFrom: datex.Ptr(l.StartDate),
		LeaveTo:   datex.Ptr(l.EndDate),
		Source:    l,
	}
}

// Fields is the partial user update for this status. An active user has leave_from and
// leave_to cleared.
func (d DerivedStatus) Fields() map[string]any {
	fields := map[string]any{
		user.FieldStatus:    d.Status,
		user.FieldLeaveFrom: nil,
		user.FieldLeaveTo:   nil,
	}
	if d.LeaveFrom != nil {
		fields[user.FieldLeaveFrom] = *d.LeaveFrom
	}
	if d.LeaveTo != nil {
		fields[user.FieldLeaveTo] = *d.LeaveTo
	}
	return fields
}
