package notificationerrors

import (
	"net/http"

	"go-lms/internal/shared/apperror"
)

var (
	ErrNotificationNotFound = apperror.New(
		apperror.CodeNotFound,
		"notification not found",
		http.StatusNotFound,
	)
	ErrInvalidNotificationID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid notification id",
		http.StatusBadRequest,
	)
	ErrInvalidIntent = apperror.New(
		apperror.CodeInvalidInput,
		"notification intent requires id, user_id, type and title",
		http.StatusBadRequest,
	)
)
