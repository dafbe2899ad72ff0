package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	notificationerrors "go-lms/internal/notification/errors"
	"go-lms/internal/shared/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const listLimit = 100

type Service interface {
	Persist(ctx context.Context, intent Intent) error
	ListForUser(ctx context.Context, userID string) ([]NotificationResponse, error)
	MarkRead(ctx context.Context, id, viewerID string) (NotificationResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	return &service{repo: repo, logger: l}
}

// Persist stores an intent. Replaying the same intent is a no-op.
func (s *service) Persist(ctx context.Context, intent Intent) error {
	n, err := toEntity(intent)
	if err != nil {
		s.logger.Warn("reject notification intent", zap.String("intent_id", intent.ID), zap.Error(err))
		return err
	}

	created, err := s.repo.Create(ctx, n)
	if err != nil {
		s.logger.Error("persist notification failed",
			zap.String("intent_id", intent.ID),
			zap.String("user_id", intent.UserID),
			zap.Error(err),
		)
		return apperror.StoreUnavailable(err)
	}
	if !created {
		s.logger.Debug("notification already stored", zap.String("intent_id", intent.ID))
		return nil
	}

	s.logger.Debug("notification stored",
		zap.String("intent_id", intent.ID),
		zap.String("user_id", intent.UserID),
		zap.String("type", intent.Type),
	)
	return nil
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]NotificationResponse, error) {
	list, err := s.repo.FindByUser(ctx, userID, listLimit)
	if err != nil {
		s.logger.Error("list notifications failed", zap.String("user_id", userID), zap.Error(err))
		return nil, apperror.StoreUnavailable(err)
	}

	resp := make([]NotificationResponse, len(list))
	for i, n := range list {
		resp[i] = mapToResponse(n, userID)
	}
	return resp, nil
}

// MarkRead records viewerID in read_by. Only the addressee may mark a notification.
func (s *service) MarkRead(ctx context.Context, id, viewerID string) (NotificationResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return NotificationResponse{}, notificationerrors.ErrInvalidNotificationID
	}

	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return NotificationResponse{}, mapRepositoryError(err)
	}
	if n.UserID.String() != viewerID {
		return NotificationResponse{}, notificationerrors.ErrNotificationNotFound
	}

	if !n.IsReadBy(viewerID) {
		if err := s.repo.MarkRead(ctx, id, viewerID); err != nil {
			s.logger.Error("mark notification read failed", zap.String("notification_id", id), zap.Error(err))
			return NotificationResponse{}, mapRepositoryError(err)
		}
		n.ReadBy = append(n.ReadBy, viewerID)
	}

	return mapToResponse(*n, viewerID), nil
}

func toEntity(intent Intent) (*Notification, error) {
	eventID, err := uuid.Parse(intent.ID)
	if err != nil {
		return nil, notificationerrors.ErrInvalidIntent
	}
	userID, err := uuid.Parse(intent.UserID)
	if err != nil {
		return nil, notificationerrors.ErrInvalidIntent
	}
	if strings.TrimSpace(intent.Type) == "" || strings.TrimSpace(intent.Title) == "" {
		return nil, notificationerrors.ErrInvalidIntent
	}

	n := &Notification{
		EventID: eventID,
		UserID:  userID,
		Type:    intent.Type,
		Title:   intent.Title,
		Message: intent.Message,
		ReadBy:  []string{},
	}
	if intent.RelatedLeaveID != "" {
		if leaveID, err := uuid.Parse(intent.RelatedLeaveID); err == nil {
			n.RelatedLeaveID = &leaveID
		}
	}
	if !intent.CreatedAt.IsZero() {
		n.CreatedAt = intent.CreatedAt
	}
	return n, nil
}

func mapRepositoryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notificationerrors.ErrNotificationNotFound
	}
	return apperror.StoreUnavailable(err)
}

func mapToResponse(n Notification, viewerID string) NotificationResponse {
	readBy := []string(n.ReadBy)
	if readBy == nil {
		readBy = []string{}
	}
	resp := NotificationResponse{
		ID:        n.ID.String(),
		UserID:    n.UserID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		ReadBy:    readBy,
		Read:      n.IsReadBy(viewerID),
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
	if n.RelatedLeaveID != nil {
		v := n.RelatedLeaveID.String()
		resp.RelatedLeaveID = &v
	}
	return resp
}
