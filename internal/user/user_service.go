package user

import (
	"context"
	"strings"
	"time"

	"go-lms/internal/shared/cache"
	"go-lms/internal/shared/contextutil"
	usererrors "go-lms/internal/user/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// UserKeyPrefix covers every cached user query. Purging it drops lookups by id and by email.
const UserKeyPrefix = "users"

const defaultCacheTTL = time.Hour

func GetUserKey(id string) string {
	return UserKeyPrefix + ":id:" + id
}

func GetUserEmailKey(email string) string {
	return UserKeyPrefix + ":email:" + strings.ToLower(strings.TrimSpace(email))
}

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock

type Service interface {
	GetByID(ctx context.Context, id string) (UserResponse, error)
	GetByEmail(ctx context.Context, email string) (UserResponse, error)
	ListByRoles(ctx context.Context, roles ...string) ([]UserResponse, error)
	Update(ctx context.Context, id string, req UpdateUserRequest) (UserResponse, error)
}

type service struct {
	repo   Repository
	cache  cache.Store
	ttl    time.Duration
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, store cache.Store, ttl time.Duration, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	if store == nil {
		store = cache.NewNoopStore()
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &service{
		repo:   repo,
		cache:  store,
		ttl:    ttl,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) GetByID(ctx context.Context, id string) (UserResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}
	return s.cached(ctx, GetUserKey(id), func() (*User, error) {
		return s.repo.FindByID(ctx, id)
	})
}

func (s *service) GetByEmail(ctx context.Context, email string) (UserResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return UserResponse{}, usererrors.ErrInvalidEmail
	}
	return s.cached(ctx, GetUserEmailKey(email), func() (*User, error) {
		return s.repo.FindByEmail(ctx, email)
	})
}

// cached serves a single-user lookup from the cache, collapsing concurrent misses for the same key.
// A load that overlaps an invalidation is returned but not cached.
func (s *service) cached(ctx context.Context, key string, load func() (*User, error)) (UserResponse, error) {
	var resp UserResponse
	hit, err := s.cache.GetJSON(ctx, key, &resp)
	if err != nil {
		s.logger.Warn("user cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return resp, nil
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		gen, genErr := s.cache.Generation(ctx)
		if genErr != nil {
			s.logger.Warn("user cache generation read failed", zap.String("key", key), zap.Error(genErr))
		}

		u, err := load()
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := mapToResponse(*u)
		if genErr != nil {
			return resp, nil
		}
		written, err := s.cache.SetJSONAt(ctx, key, gen, resp, s.ttl)
		if err != nil {
			s.logger.Warn("user cache write failed", zap.String("key", key), zap.Error(err))
		} else if !written {
			s.logger.Debug("user cache write skipped after invalidation", zap.String("key", key))
		}
		return resp, nil
	})
	if err != nil {
		return UserResponse{}, err
	}

	return v.(UserResponse), nil
}

func (s *service) ListByRoles(ctx context.Context, roles ...string) ([]UserResponse, error) {
	for _, r := range roles {
		if !IsValidRole(r) {
			return nil, usererrors.ErrInvalidRole
		}
	}

	users, err := s.repo.FindByRoles(ctx, roles...)
	if err != nil {
		s.logger.Error("list users by role failed", zap.Strings("roles", roles), zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = mapToResponse(u)
	}
	return resp, nil
}

// Update changes profile fields. Leave-derived fields are not accepted here.
func (s *service) Update(ctx context.Context, id string, req UpdateUserRequest) (UserResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return UserResponse{}, usererrors.ErrNothingToUpdate
		}
		fields["name"] = name
	}
	if req.Role != nil {
		if !IsValidRole(*req.Role) {
			return UserResponse{}, usererrors.ErrInvalidRole
		}
		fields["role"] = *req.Role
	}
	if len(fields) == 0 {
		return UserResponse{}, usererrors.ErrNothingToUpdate
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		l.Error("update user failed", zap.String("user_id", id), zap.Error(err))
		return UserResponse{}, mapRepositoryError(err)
	}

	s.invalidate(ctx, id)

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}

	l.Info("user updated", zap.String("user_id", id))
	return mapToResponse(*u), nil
}

func (s *service) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, GetUserKey(id)); err != nil {
		s.logger.Error("failed to invalidate user cache",
			zap.String("key", GetUserKey(id)),
			zap.Error(err),
		)
	}
	if err := s.cache.InvalidatePattern(ctx, UserKeyPrefix); err != nil {
		s.logger.Error("failed to invalidate user query cache",
			zap.String("prefix", UserKeyPrefix),
			zap.Error(err),
		)
	}
}

func mapToResponse(u User) UserResponse {
	resp := UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
	if resp.Status == "" {
		resp.Status = StatusActive
	}
	if u.LeaveFrom != nil {
		v := u.LeaveFrom.Format("2006-01-02")
		resp.LeaveFrom = &v
	}
	if u.LeaveTo != nil {
		v := u.LeaveTo.Format("2006-01-02")
		resp.LeaveTo = &v
	}
	if u.UnapprovedLeaveStart != nil {
		v := u.UnapprovedLeaveStart.Format(time.RFC3339)
		resp.UnapprovedLeaveStart = &v
	}
	return resp
}
