package leave

import (
	"errors"
	"strings"

	leaveerrors "go-lms/internal/leave/errors"
	"go-lms/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return leaveerrors.ErrLeaveNotFound
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.StoreUnavailable(err)
}

func mapUserError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return leaveerrors.ErrUserNotFound
	}
	return mapRepositoryError(err)
}

// isTransientStoreError matches conditions that clear on their own: a lock that could not
// be taken right now, or an index that is still being built.
func isTransientStoreError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "index is currently building")
}
