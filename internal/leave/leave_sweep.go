package leave

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	leaveerrors "go-lms/internal/leave/errors"
	"go-lms/internal/notification"
	"go-lms/internal/shared/apperror"
	"go-lms/internal/shared/contextutil"
	"go-lms/internal/shared/datex"
	"go-lms/internal/shared/metrics"
	"go-lms/internal/user"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	SweepExpireKitchenLeaves  = "expire-kitchen-leaves"
	SweepCheckExpiredOnLeaves = "check-expired-on-leaves"
	SweepActivateFutureLeaves = "activate-future-leaves"
)

// SweepNames lists every sweep in the order RunOnce executes them.
var SweepNames = []string{
	SweepExpireKitchenLeaves,
	SweepCheckExpiredOnLeaves,
	SweepActivateFutureLeaves,
}

// RunSweep runs the sweep registered under name.
func RunSweep(ctx context.Context, sw Sweeper, name string) (SweepResult, error) {
	switch name {
	case SweepExpireKitchenLeaves:
		return sw.ExpireKitchenLeaves(ctx)
	case SweepCheckExpiredOnLeaves:
		return sw.CheckExpiredOnLeaves(ctx)
	case SweepActivateFutureLeaves:
		return sw.ActivateFutureLeaves(ctx)
	default:
		return SweepResult{Sweep: name}, leaveerrors.ErrUnknownSweep
	}
}

// ExpireKitchenLeaves expires approved kitchen leaves whose day has fully ended and
// re-derives each owner's status.
func (s *service) ExpireKitchenLeaves(ctx context.Context) (SweepResult, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(zap.String("sweep", SweepExpireKitchenLeaves))
	res := SweepResult{Sweep: SweepExpireKitchenLeaves}

	candidates, err := s.repo.FindApproved(ctx, TypeKitchenLeave)
	if err != nil {
		log.Error("load approved kitchen leaves failed", zap.Error(err))
		return res, mapRepositoryError(err)
	}
	res.Scanned = len(candidates)

	now := s.now()
	var errs error
	for _, c := range candidates {
		if !now.After(datex.EndOfDay(c.EndDate, s.loc)) {
			res.Skipped++
			continue
		}

		id := c.ID.String()
		changed, err := s.withLockedLeave(ctx, id, func(tx *sql.Tx, l *Leave) (bool, error) {
			if l.Status != StatusApproved || l.LeaveType != TypeKitchenLeave ||
				!now.After(datex.EndOfDay(l.EndDate, s.loc)) {
				return false, nil
			}
			if err := s.expire(ctx, tx, l, now); err != nil {
				return false, err
			}
			_, err := s.applyDerivedStatus(ctx, tx, l.UserID.String(), datex.Today(now, s.loc))
			return true, err
		})
		s.recordSweep(&res, &errs, log, id, changed, err)
		if changed && err == nil {
			s.invalidateUser(ctx, c.UserID.String())
		}
	}

	log.Info("kitchen leave expiry finished",
		zap.Int("scanned", res.Scanned),
		zap.Int("processed", res.Processed),
		zap.Int("failed", res.Failed),
	)
	return res, errs
}

// CheckExpiredOnLeaves expires approved on_leave records that ended before today. The owner
// is moved to unapproved_leave rather than back to active, and admins are told about it.
func (s *service) CheckExpiredOnLeaves(ctx context.Context) (SweepResult, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(zap.String("sweep", SweepCheckExpiredOnLeaves))
	res := SweepResult{Sweep: SweepCheckExpiredOnLeaves}

	candidates, err := s.repo.FindApproved(ctx, TypeOnLeave)
	if err != nil {
		log.Error("load approved on leaves failed", zap.Error(err))
		return res, mapRepositoryError(err)
	}
	res.Scanned = len(candidates)

	now := s.now()
	today := datex.Today(now, s.loc)

	var errs error
	var reviewers []user.User
	reviewersLoaded := false

	for _, c := range candidates {
		if !datex.Day(c.EndDate).Before(today) {
			res.Skipped++
			continue
		}

		id := c.ID.String()
		userID := c.UserID.String()
		changed, err := s.withLockedLeave(ctx, id, func(tx *sql.Tx, l *Leave) (bool, error) {
			if l.Status != StatusApproved || l.LeaveType != TypeOnLeave || !datex.Day(l.EndDate).Before(today) {
				return false, nil
			}
			if err := s.expire(ctx, tx, l, now); err != nil {
				return false, err
			}
			err := s.users.WithTx(tx).UpdateFields(ctx, userID, map[string]any{
				user.FieldStatus:               user.StatusUnapprovedLeave,
				user.FieldUnapprovedLeaveStart: now.UTC(),
				user.FieldLeaveFrom:            nil,
				user.FieldLeaveTo:              nil,
			})
			if err != nil {
				return false, mapUserError(err)
			}
			return true, nil
		})
		s.recordSweep(&res, &errs, log, id, changed, err)
		if !changed || err != nil {
			continue
		}
		s.invalidateUser(ctx, userID)

		if !reviewersLoaded {
			reviewersLoaded = true
			reviewers, err = s.users.FindByRoles(ctx, user.RoleAdmin, user.RoleAcademicAssociate)
			if err != nil {
				log.Error("load leave reviewers failed", zap.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("load reviewers: %w", apperror.StoreUnavailable(err)))
			}
		}
		s.notify(ctx, expiredOnLeaveIntents(c, reviewers)...)
	}

	log.Info("expired on leave check finished",
		zap.Int("scanned", res.Scanned),
		zap.Int("processed", res.Processed),
		zap.Int("failed", res.Failed),
	)
	return res, errs
}

// ActivateFutureLeaves re-derives the status of every user with an approved leave covering
// today. It picks up leaves approved before they started.
func (s *service) ActivateFutureLeaves(ctx context.Context) (SweepResult, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(zap.String("sweep", SweepActivateFutureLeaves))
	res := SweepResult{Sweep: SweepActivateFutureLeaves}

	candidates, err := s.repo.FindApproved(ctx, "")
	if err != nil {
		log.Error("load approved leaves failed", zap.Error(err))
		return res, mapRepositoryError(err)
	}
	res.Scanned = len(candidates)

	today := s.today()
	seen := make(map[string]struct{})
	var userIDs []string
	for _, c := range candidates {
		if !datex.Contains(c.StartDate, c.EndDate, today) {
			res.Skipped++
			continue
		}
		uid := c.UserID.String()
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		userIDs = append(userIDs, uid)
	}

	var errs error
	for _, uid := range userIDs {
		err := s.withLockedUser(ctx, uid, func(tx *sql.Tx) error {
			_, err := s.applyDerivedStatus(ctx, tx, uid, today)
			return err
		})
		s.recordSweep(&res, &errs, log, uid, err == nil, err)
		if err == nil {
			s.invalidateUser(ctx, uid)
		}
	}

	log.Info("future leave activation finished",
		zap.Int("scanned", res.Scanned),
		zap.Int("users", len(userIDs)),
		zap.Int("failed", res.Failed),
	)
	return res, errs
}

// withLockedLeave runs fn for one leave in its own transaction with the row locked. The
// transaction commits only when fn reports a change.
func (s *service) withLockedLeave(ctx context.Context, id string, fn func(tx *sql.Tx, l *Leave) (bool, error)) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, apperror.StoreUnavailable(err)
	}
	defer tx.Rollback()

	l, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, id)
	if err != nil {
		return false, mapRepositoryError(err)
	}

	changed, err := fn(tx, l)
	if err != nil || !changed {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, apperror.StoreUnavailable(err)
	}
	return true, nil
}

func (s *service) withLockedUser(ctx context.Context, userID string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperror.StoreUnavailable(err)
	}
	defer tx.Rollback()

	if _, err := s.users.WithTx(tx).FindByIDForUpdate(ctx, userID); err != nil {
		return mapUserError(err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperror.StoreUnavailable(err)
	}
	return nil
}

func (s *service) expire(ctx context.Context, tx *sql.Tx, l *Leave, now time.Time) error {
	l.Status = StatusExpired
	l.UpdatedAt = now.UTC()
	if err := s.repo.WithTx(tx).Update(ctx, l); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

func (s *service) recordSweep(res *SweepResult, errs *error, log *zap.Logger, id string, changed bool, err error) {
	switch {
	case err != nil:
		res.Failed++
		metrics.SweepRecords.WithLabelValues(res.Sweep, "failed").Inc()
		log.Error("sweep record failed", zap.String("id", id), zap.Error(err))
		*errs = multierr.Append(*errs, fmt.Errorf("%s %s: %w", res.Sweep, id, err))
	case changed:
		res.Processed++
		metrics.SweepRecords.WithLabelValues(res.Sweep, "processed").Inc()
		if res.Sweep != SweepActivateFutureLeaves {
			metrics.LeaveTransitions.WithLabelValues(sweepLeaveType(res.Sweep), StatusExpired).Inc()
		}
	default:
		res.Skipped++
		metrics.SweepRecords.WithLabelValues(res.Sweep, "skipped").Inc()
	}
}

func sweepLeaveType(sweep string) string {
	if sweep == SweepExpireKitchenLeaves {
		return TypeKitchenLeave
	}
	return TypeOnLeave
}

func expiredOnLeaveIntents(l Leave, reviewers []user.User) []notification.Intent {
	leaveID := l.ID.String()
	intents := []notification.Intent{
		notification.NewIntent(
			l.UserID.String(),
			notification.TypeLeaveExpired,
			"Leave Expired - Status Changed to Unapproved Leave",
			"Your leave period has ended. Your status has been changed to unapproved leave. "+
				"Please contact admin/academic associate to update your status.",
			leaveID,
		),
	}
	for _, r := range reviewers {
		intents = append(intents, notification.NewIntent(
			r.ID.String(),
			notification.TypeLeaveExpiredAdmin,
			"User Leave Expired",
			fmt.Sprintf("%s's leave period has ended. Their status needs to be changed manually.", l.UserName),
			leaveID,
		))
	}
	return intents
}
