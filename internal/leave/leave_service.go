package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	leaveerrors "go-lms/internal/leave/errors"
	"go-lms/internal/notification"
	"go-lms/internal/shared/apperror"
	"go-lms/internal/shared/cache"
	"go-lms/internal/shared/contextutil"
	"go-lms/internal/shared/datex"
	"go-lms/internal/shared/metrics"
	"go-lms/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultRejectionReason = "No reason provided"

// displayLayout renders dates in messages the way the campus reads them (day/month/year).
const displayLayout = "2/1/2006"

type Sweeper interface {
	ExpireKitchenLeaves(ctx context.Context) (SweepResult, error)
	CheckExpiredOnLeaves(ctx context.Context) (SweepResult, error)
	ActivateFutureLeaves(ctx context.Context) (SweepResult, error)
}

type Service interface {
	Create(ctx context.Context, userID string, req CreateLeaveRequest) (LeaveResponse, error)
	GetByID(ctx context.Context, id string) (LeaveResponse, error)
	GetUserLeaves(ctx context.Context, userID string) ([]LeaveResponse, error)
	GetPending(ctx context.Context) ([]LeaveResponse, error)
	GetAll(ctx context.Context) ([]LeaveResponse, error)
	CountPending(ctx context.Context) (int64, error)
	GetActiveLeave(ctx context.Context, userID string) (*LeaveResponse, error)
	Approve(ctx context.Context, id, approvedBy, approvedByName string) (LeaveResponse, error)
	Reject(ctx context.Context, id, rejectedBy, rejectedByName, reason string) (LeaveResponse, error)
	SyncUserStatus(ctx context.Context, userID string) error
	Sweeper
}

type service struct {
	db       *sql.DB
	repo     Repository
	users    user.Repository
	cache    cache.Invalidator
	notifier notification.Dispatcher
	now      func() time.Time
	loc      *time.Location
	logger   *zap.Logger
}

type Option func(*service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone that decides which calendar day "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("leave.service")
		}
	}
}

func NewService(
	db *sql.DB,
	repo Repository,
	users user.Repository,
	invalidator cache.Invalidator,
	notifier notification.Dispatcher,
	opts ...Option,
) Service {
	s := &service{
		db:       db,
		repo:     repo,
		users:    users,
		cache:    invalidator,
		notifier: notifier,
		now:      time.Now,
		loc:      time.UTC,
		logger:   zap.L().Named("leave.service"),
	}
	if s.cache == nil {
		s.cache = cache.NewNoopStore()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) today() time.Time {
	return datex.Today(s.now(), s.loc)
}

func (s *service) Create(ctx context.Context, userID string, req CreateLeaveRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create leave requested",
		zap.String("user_id", userID),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		log.Warn("create leave user lookup failed", zap.String("user_id", userID), zap.Error(err))
		return LeaveResponse{}, mapUserError(err)
	}

	start, end, reason, err := validateCreateRequest(req)
	if err != nil {
		log.Warn("create leave validation failed", zap.String("user_id", userID), zap.Error(err))
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, apperror.StoreUnavailable(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	requester, err := s.users.WithTx(tx).FindByIDForUpdate(ctx, userID)
	if err != nil {
		return LeaveResponse{}, mapUserError(err)
	}

	existing, err := qtx.FindByUser(ctx, userID)
	if err != nil {
		log.Error("create leave conflict lookup failed", zap.String("user_id", userID), zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}
	if c := FindConflict(existing, start, end); c != nil {
		log.Warn("create leave conflict detected",
			zap.String("user_id", userID),
			zap.String("conflict_leave_id", c.ID.String()),
			zap.String("conflict_status", c.Status),
		)
		return LeaveResponse{}, leaveerrors.RequestConflict(
			TypeLabel(c.LeaveType), displayDate(c.StartDate), displayDate(c.EndDate), c.Status,
		)
	}

	l := &Leave{
		ID:        uuid.New(),
		UserID:    requester.ID,
		UserName:  requester.Name,
		UserEmail: requester.Email,
		LeaveType: req.LeaveType,
		StartDate: start,
		EndDate:   end,
		Reason:    reason,
		Status:    StatusPending,
	}
	if err := qtx.Create(ctx, l); err != nil {
		log.Error("create leave persist failed", zap.String("user_id", userID), zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}

	created, err := qtx.FindByID(ctx, l.ID.String())
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("create leave commit failed", zap.Error(err))
		return LeaveResponse{}, apperror.StoreUnavailable(err)
	}
	metrics.LeaveTransitions.WithLabelValues(created.LeaveType, StatusPending).Inc()
	log.Info("create leave success",
		zap.String("leave_id", created.ID.String()),
		zap.String("user_id", userID),
		zap.String("leave_type", created.LeaveType),
	)

	s.notify(ctx, notification.NewIntent(
		userID,
		notification.TypeLeaveRequested,
		"Leave Request Submitted",
		fmt.Sprintf("%s has requested %s from %s to %s",
			requester.Name, TypeLabel(created.LeaveType), displayDate(start), displayDate(end)),
		created.ID.String(),
	))

	return mapToResponse(*created), nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*l), nil
}

func (s *service) GetUserLeaves(ctx context.Context, userID string) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("list user leaves failed", zap.String("user_id", userID), zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(leaves), nil
}

// GetPending lists pending leaves, newest first. A transient store condition yields an
// empty list instead of an error.
func (s *service) GetPending(ctx context.Context) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindByStatus(ctx, StatusPending)
	if err != nil {
		log := contextutil.GetLogger(ctx, s.logger)
		if isTransientStoreError(err) {
			log.Warn("pending leaves temporarily unavailable", zap.Error(err))
			return []LeaveResponse{}, nil
		}
		log.Error("list pending leaves failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(leaves), nil
}

func (s *service) GetAll(ctx context.Context) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindAll(ctx)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("list leaves failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(leaves), nil
}

func (s *service) CountPending(ctx context.Context) (int64, error) {
	count, err := s.repo.CountByStatus(ctx, StatusPending)
	if err != nil {
		log := contextutil.GetLogger(ctx, s.logger)
		if isTransientStoreError(err) {
			log.Warn("pending leave count temporarily unavailable", zap.Error(err))
			return 0, nil
		}
		log.Error("count pending leaves failed", zap.Error(err))
		return 0, mapRepositoryError(err)
	}
	return count, nil
}

// GetActiveLeave returns the user's newest pending or approved leave, or nil.
func (s *service) GetActiveLeave(ctx context.Context, userID string) (*LeaveResponse, error) {
	l, err := s.repo.FindLatestOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, mapRepositoryError(err)
	}
	resp := mapToResponse(*l)
	return &resp, nil
}

// Approve moves a pending leave to approved. The leave and its owner are locked for the
// whole check so two overlapping approvals for one user cannot both pass.
func (s *service) Approve(ctx context.Context, id, approvedBy, approvedByName string) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("approve leave requested", zap.String("leave_id", id), zap.String("approved_by", approvedBy))

	if strings.TrimSpace(approvedBy) == "" {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("approve leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, apperror.StoreUnavailable(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err)
	}
	if l.Status != StatusPending {
		log.Warn("approve leave not pending", zap.String("leave_id", id), zap.String("status", l.Status))
		return LeaveResponse{}, leaveerrors.ErrNotPending
	}

	userID := l.UserID.String()
	if _, err := s.users.WithTx(tx).FindByIDForUpdate(ctx, userID); err != nil {
		return LeaveResponse{}, mapUserError(err)
	}

	existing, err := qtx.FindByUser(ctx, userID)
	if err != nil {
		log.Error("approve leave conflict lookup failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}
	if c := FindApprovedConflict(existing, *l); c != nil {
		log.Warn("approve leave conflict detected",
			zap.String("leave_id", id),
			zap.String("conflict_leave_id", c.ID.String()),
		)
		return LeaveResponse{}, leaveerrors.ApprovalConflict(
			TypeLabel(c.LeaveType), displayDate(c.StartDate), displayDate(c.EndDate),
		)
	}

	now := s.now().UTC()
	l.Status = StatusApproved
	l.ApprovedBy = &approvedBy
	l.ApprovedByName = &approvedByName
	l.ApprovedAt = &now
	l.UpdatedAt = now

	if err := qtx.Update(ctx, l); err != nil {
		log.Error("approve leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}

	today := s.today()
	started := !datex.Day(l.StartDate).After(today)
	if started {
		if _, err := s.applyDerivedStatus(ctx, tx, userID, today); err != nil {
			log.Error("approve leave status sync failed", zap.String("user_id", userID), zap.Error(err))
			return LeaveResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("approve leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, apperror.StoreUnavailable(err)
	}
	if started {
		s.invalidateUser(ctx, userID)
	}
	metrics.LeaveTransitions.WithLabelValues(l.LeaveType, StatusApproved).Inc()
	log.Info("approve leave success",
		zap.String("leave_id", id),
		zap.String("user_id", userID),
		zap.Bool("status_synced", started),
	)

	s.notify(ctx, notification.NewIntent(
		userID,
		notification.TypeLeaveApproved,
		"Leave Approved",
		fmt.Sprintf("Your leave request from %s to %s has been approved.", displayDate(l.StartDate), displayDate(l.EndDate)),
		id,
	))

	return mapToResponse(*l), nil
}

func (s *service) Reject(ctx context.Context, id, rejectedBy, rejectedByName, reason string) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("reject leave requested", zap.String("leave_id", id), zap.String("rejected_by", rejectedBy))

	if strings.TrimSpace(rejectedBy) == "" {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultRejectionReason
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("reject leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, apperror.StoreUnavailable(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err)
	}
	if l.Status != StatusPending {
		log.Warn("reject leave not pending", zap.String("leave_id", id), zap.String("status", l.Status))
		return LeaveResponse{}, leaveerrors.ErrNotPending
	}

	now := s.now().UTC()
	l.Status = StatusRejected
	l.RejectedBy = &rejectedBy
	l.RejectedByName = &rejectedByName
	l.RejectionReason = &reason
	l.RejectedAt = &now
	l.UpdatedAt = now

	if err := qtx.Update(ctx, l); err != nil {
		log.Error("reject leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}
	if err := tx.Commit(); err != nil {
		log.Error("reject leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, apperror.StoreUnavailable(err)
	}
	metrics.LeaveTransitions.WithLabelValues(l.LeaveType, StatusRejected).Inc()
	log.Info("reject leave success", zap.String("leave_id", id), zap.String("user_id", l.UserID.String()))

	s.notify(ctx, notification.NewIntent(
		l.UserID.String(),
		notification.TypeLeaveRejected,
		"Leave Rejected",
		fmt.Sprintf("Your leave request from %s to %s has been rejected. Reason: %s",
			displayDate(l.StartDate), displayDate(l.EndDate), reason),
		id,
	))

	return mapToResponse(*l), nil
}

// SyncUserStatus recomputes the user's derived status from their approved leaves as of today.
func (s *service) SyncUserStatus(ctx context.Context, userID string) error {
	log := contextutil.GetLogger(ctx, s.logger)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("sync user status begin tx failed", zap.Error(err))
		return apperror.StoreUnavailable(err)
	}
	defer tx.Rollback()

	if _, err := s.users.WithTx(tx).FindByIDForUpdate(ctx, userID); err != nil {
		return mapUserError(err)
	}

	derived, err := s.applyDerivedStatus(ctx, tx, userID, s.today())
	if err != nil {
		log.Error("sync user status failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("sync user status commit failed", zap.String("user_id", userID), zap.Error(err))
		return apperror.StoreUnavailable(err)
	}
	s.invalidateUser(ctx, userID)

	log.Info("user status synced", zap.String("user_id", userID), zap.String("status", derived.Status))
	return nil
}

// applyDerivedStatus writes the projection of the user's leaves inside tx.
func (s *service) applyDerivedStatus(ctx context.Context, tx *sql.Tx, userID string, asOf time.Time) (DerivedStatus, error) {
	leaves, err := s.repo.WithTx(tx).FindByUser(ctx, userID)
	if err != nil {
		return DerivedStatus{}, mapRepositoryError(err)
	}

	derived := DeriveStatus(leaves, asOf)
	if err := s.users.WithTx(tx).UpdateFields(ctx, userID, derived.Fields()); err != nil {
		return DerivedStatus{}, mapUserError(err)
	}
	return derived, nil
}

// invalidateUser drops cached user queries after a committed status write.
func (s *service) invalidateUser(ctx context.Context, userID string) {
	log := contextutil.GetLogger(ctx, s.logger)
	if err := s.cache.Invalidate(ctx, user.GetUserKey(userID)); err != nil {
		log.Error("failed to invalidate user cache",
			zap.String("key", user.GetUserKey(userID)),
			zap.Error(err),
		)
	}
	if err := s.cache.InvalidatePattern(ctx, user.UserKeyPrefix); err != nil {
		log.Error("failed to invalidate user query cache",
			zap.String("prefix", user.UserKeyPrefix),
			zap.Error(err),
		)
	}
}

// notify hands intents to the dispatcher. Delivery failures are logged and never fail the caller.
func (s *service) notify(ctx context.Context, intents ...notification.Intent) {
	if s.notifier == nil || len(intents) == 0 {
		return
	}
	if err := s.notifier.Dispatch(ctx, intents...); err != nil {
		contextutil.GetLogger(ctx, s.logger).Warn("notification dispatch failed",
			zap.Int("count", len(intents)),
			zap.Error(err),
		)
	}
}

func validateCreateRequest(req CreateLeaveRequest) (time.Time, time.Time, *string, error) {
	if !IsValidType(req.LeaveType) {
		return time.Time{}, time.Time{}, nil, leaveerrors.ErrInvalidLeaveType
	}
	start, err := datex.Parse(strings.TrimSpace(req.StartDate))
	if err != nil {
		return time.Time{}, time.Time{}, nil, leaveerrors.ErrInvalidDateFormat
	}
	end, err := datex.Parse(strings.TrimSpace(req.EndDate))
	if err != nil {
		return time.Time{}, time.Time{}, nil, leaveerrors.ErrInvalidDateFormat
	}

	if req.LeaveType == TypeKitchenLeave && !start.Equal(end) {
		return time.Time{}, time.Time{}, nil, leaveerrors.ErrKitchenSingleDay
	}
	reason := strings.TrimSpace(req.Reason)
	if req.LeaveType == TypeOnLeave && reason == "" {
		return time.Time{}, time.Time{}, nil, leaveerrors.ErrReasonMandatory
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, nil, leaveerrors.ErrInvalidDateRange
	}

	if reason == "" {
		return start, end, nil, nil
	}
	return start, end, &reason, nil
}

func displayDate(d time.Time) string {
	return d.Format(displayLayout)
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(time.RFC3339)
	return &v
}

func mapToResponse(l Leave) LeaveResponse {
	return LeaveResponse{
		ID:              l.ID.String(),
		UserID:          l.UserID.String(),
		UserName:        l.UserName,
		UserEmail:       l.UserEmail,
		LeaveType:       l.LeaveType,
		StartDate:       datex.Format(l.StartDate),
		EndDate:         datex.Format(l.EndDate),
		Reason:          l.Reason,
		Status:          l.Status,
		ApprovedBy:      l.ApprovedBy,
		ApprovedByName:  l.ApprovedByName,
		ApprovedAt:      formatTime(l.ApprovedAt),
		RejectedBy:      l.RejectedBy,
		RejectedByName:  l.RejectedByName,
		RejectionReason: l.RejectionReason,
		RejectedAt:      formatTime(l.RejectedAt),
		CreatedAt:       l.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       l.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapToListResponse(leaves []Leave) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}
