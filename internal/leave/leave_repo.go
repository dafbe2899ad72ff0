package leave

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *Leave) error
	FindByID(ctx context.Context, id string) (*Leave, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Leave, error)
	// FindByUser lists a user's leaves, newest first.
	FindByUser(ctx context.Context, userID string) ([]Leave, error)
	// FindLatestOpenByUser returns the newest pending or approved leave.
	FindLatestOpenByUser(ctx context.Context, userID string) (*Leave, error)
	FindByStatus(ctx context.Context, status string) ([]Leave, error)
	FindAll(ctx context.Context) ([]Leave, error)
	// FindApproved lists approved leaves of leaveType, or of any type when leaveType is empty.
	FindApproved(ctx context.Context, leaveType string) ([]Leave, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	Update(ctx context.Context, l *Leave) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx binds the repository to an already open *sql.Tx so gorm statements join it.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	if tx == nil {
		return r
	}
	db := r.db.Session(&gorm.Session{NewDB: true})
	db.Statement.ConnPool = tx
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, l *Leave) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Leave, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var l Leave
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*Leave, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var l Leave
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindByUser(ctx context.Context, userID string) ([]Leave, error) {
	var leaves []Leave
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindLatestOpenByUser(ctx context.Context, userID string) (*Leave, error) {
	var l Leave
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("status IN ?", []string{StatusApproved, StatusPending}).
		Order("created_at DESC").
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindByStatus(ctx context.Context, status string) ([]Leave, error) {
	var leaves []Leave
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindAll(ctx context.Context) ([]Leave, error) {
	var leaves []Leave
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindApproved(ctx context.Context, leaveType string) ([]Leave, error) {
	db := r.db.WithContext(ctx).Where("status = ?", StatusApproved)
	if leaveType != "" {
		db = db.Where("leave_type = ?", leaveType)
	}

	var leaves []Leave
	err := db.Order("start_date ASC").Find(&leaves).Error
	return leaves, err
}

func (r *repository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Leave{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *repository) Update(ctx context.Context, l *Leave) error {
	return r.db.WithContext(ctx).Save(l).Error
}
