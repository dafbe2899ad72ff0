package leaveerrors

import (
	"fmt"
	"net/http"

	"go-lms/internal/shared/apperror"
)

var (
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"leave_type must be kitchen_leave or on_leave",
		http.StatusBadRequest,
	)
	ErrKitchenSingleDay = apperror.New(
		apperror.CodeInvalidInput,
		"Kitchen leave can only be applied for a single day",
		http.StatusBadRequest,
	)
	ErrReasonMandatory = apperror.New(
		apperror.CodeInvalidInput,
		"Reason is mandatory for on leave",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"Leave request not found",
		http.StatusNotFound,
	)
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"User not found",
		http.StatusNotFound,
	)
	ErrNotPending = apperror.New(
		apperror.CodeInvalidState,
		"Leave request is not pending",
		http.StatusConflict,
	)
	ErrUnknownSweep = apperror.New(
		apperror.CodeNotFound,
		"unknown sweep",
		http.StatusNotFound,
	)
)

// RequestConflict reports an open leave that overlaps a new request.
func RequestConflict(leaveLabel, from, to, status string) *apperror.AppError {
	return apperror.New(
		apperror.CodeConflict,
		fmt.Sprintf("You already have a %s request from %s to %s with status: %s", leaveLabel, from, to, status),
		http.StatusConflict,
	)
}

// ApprovalConflict reports an approved leave that overlaps the one being approved.
func ApprovalConflict(leaveLabel, from, to string) *apperror.AppError {
	return apperror.New(
		apperror.CodeConflict,
		fmt.Sprintf("Cannot approve this leave as there is already an approved %s from %s to %s", leaveLabel, from, to),
		http.StatusConflict,
	)
}
