package repository

import (
	"context"

	"github.com/kereva-dev/duet/internal/entity"
	"gorm.io/gorm"
)

// ActivityRepo is the repository for the per-user audit trail
type ActivityRepo struct {
	db *gorm.DB
}

// NewActivityRepo creates a new ActivityRepo
func NewActivityRepo(db *gorm.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

// Record appends one activity entry
func (r *ActivityRepo) Record(ctx context.Context, userId, activityType, detail string) error {
	return r.db.WithContext(ctx).Create(&entity.Activity{
		UserId: userId,
		Type:   activityType,
		Detail: detail,
	}).Error
}

// ListByUser returns the newest limit entries for a user
func (r *ActivityRepo) ListByUser(ctx context.Context, userId string, limit int) ([]*entity.Activity, error) {
	var acts []*entity.Activity
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("id DESC").
		Limit(limit).
		Find(&acts).Error
	if err != nil {
		return nil, err
	}
	return acts, nil
}

// DeleteByUser drops a user's whole audit trail
func (r *ActivityRepo) DeleteByUser(ctx context.Context, userId string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&entity.Activity{}).Error
}
