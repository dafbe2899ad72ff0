package leave_test

import (
	"testing"

	"go-lms/internal/leave"
	"go-lms/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	u := uuid.New()
	base := newLeave(t, u, leave.TypeOnLeave, leave.StatusApproved, "2025-01-01", "2025-01-05")

	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"inside", "2025-01-02", "2025-01-03", true},
		{"touching start", "2024-12-28", "2025-01-01", true},
		{"touching end", "2025-01-05", "2025-01-09", true},
		{"covering", "2024-12-01", "2025-02-01", true},
		{"before", "2024-12-20", "2024-12-31", false},
		{"after", "2025-01-06", "2025-01-06", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := newLeave(t, u, leave.TypeOnLeave, leave.StatusPending, tt.start, tt.end)
			assert.Equal(t, tt.want, leave.Overlaps(base, other))
			assert.Equal(t, tt.want, leave.Overlaps(other, base))
		})
	}
}

func TestFindConflict(t *testing.T) {
	u := uuid.New()
	rejected := newLeave(t, u, leave.TypeOnLeave, leave.StatusRejected, "2025-01-01", "2025-01-05")
	expired := newLeave(t, u, leave.TypeOnLeave, leave.StatusExpired, "2025-01-01", "2025-01-05")
	pending := newLeave(t, u, leave.TypeKitchenLeave, leave.StatusPending, "2025-01-04", "2025-01-04")
	approved := newLeave(t, u, leave.TypeOnLeave, leave.StatusApproved, "2025-01-03", "2025-01-08")

	t.Run("closed leaves never conflict", func(t *testing.T) {
		got := leave.FindConflict([]leave.Leave{rejected, expired}, day(t, "2025-01-02"), day(t, "2025-01-03"))
		assert.Nil(t, got)
	})

	t.Run("first open overlap in order", func(t *testing.T) {
		got := leave.FindConflict([]leave.Leave{rejected, pending, approved}, day(t, "2025-01-04"), day(t, "2025-01-06"))
		require.NotNil(t, got)
		assert.Equal(t, pending.ID, got.ID)
	})

	t.Run("approval ignores pending and itself", func(t *testing.T) {
		candidate := newLeave(t, u, leave.TypeOnLeave, leave.StatusPending, "2025-01-04", "2025-01-04")
		all := []leave.Leave{candidate, pending}
		assert.Nil(t, leave.FindApprovedConflict(all, candidate))

		all = append(all, approved)
		got := leave.FindApprovedConflict(all, candidate)
		require.NotNil(t, got)
		assert.Equal(t, approved.ID, got.ID)
	})
}

func TestDeriveStatus(t *testing.T) {
	u := uuid.New()
	today := day(t, "2025-01-10")

	t.Run("on_leave outranks kitchen_leave", func(t *testing.T) {
		kitchen := newLeave(t, u, leave.TypeKitchenLeave, leave.StatusApproved, "2025-01-10", "2025-01-10")
		onLeave := newLeave(t, u, leave.TypeOnLeave, leave.StatusApproved, "2025-01-08", "2025-01-12")

		got := leave.DeriveStatus([]leave.Leave{kitchen, onLeave}, today)

		assert.Equal(t, user.StatusOnLeave, got.Status)
		require.NotNil(t, got.LeaveFrom)
		assert.Equal(t, "2025-01-08", got.LeaveFrom.Format("2006-01-02"))
		assert.Equal(t, "2025-01-12", got.LeaveTo.Format("2006-01-02"))
		assert.Equal(t, onLeave.ID, got.Source.ID)
	})

	t.Run("kitchen leave today", func(t *testing.T) {
		kitchen := newLeave(t, u, leave.TypeKitchenLeave, leave.StatusApproved, "2025-01-10", "2025-01-10")

		got := leave.DeriveStatus([]leave.Leave{kitchen}, today)

		assert.Equal(t, user.StatusKitchenLeave, got.Status)
	})

	t.Run("only approved leaves count", func(t *testing.T) {
		leaves := []leave.Leave{
			newLeave(t, u, leave.TypeOnLeave, leave.StatusPending, "2025-01-09", "2025-01-11"),
			newLeave(t, u, leave.TypeOnLeave, leave.StatusExpired, "2025-01-09", "2025-01-11"),
			newLeave(t, u, leave.TypeOnLeave, leave.StatusApproved, "2025-01-11", "2025-01-12"),
		}

		got := leave.DeriveStatus(leaves, today)

		assert.Equal(t, user.StatusActive, got.Status)
		assert.Nil(t, got.Source)
		fields := got.Fields()
		assert.Equal(t, user.StatusActive, fields[user.FieldStatus])
		assert.Contains(t, fields, user.FieldLeaveFrom)
		assert.Nil(t, fields[user.FieldLeaveFrom])
		assert.Nil(t, fields[user.FieldLeaveTo])
	})
}
