package notification

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Create inserts n unless a row with the same event id exists. It reports whether a row was written.
	Create(ctx context.Context, n *Notification) (bool, error)
	FindByID(ctx context.Context, id string) (*Notification, error)
	FindByUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id, viewerID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) (bool, error) {
	if n.ReadBy == nil {
		n.ReadBy = []string{}
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(n)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var n Notification
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repository) FindByUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	var list []Notification
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}

// MarkRead appends viewerID to read_by, leaving the set unchanged if it is already there.
func (r *repository) MarkRead(ctx context.Context, id, viewerID string) error {
	return r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ?", id).
		Where("NOT (read_by @> jsonb_build_array(?::text))", viewerID).
		Update("read_by", gorm.Expr("read_by || jsonb_build_array(?::text)", viewerID)).
		Error
}
