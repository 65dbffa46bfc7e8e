package repository

import (
	"context"

	"questhub/internal/models"

	"gorm.io/gorm"
)

// ActivityRepository defines interface for activity template operations
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id uint) (*models.Activity, error)
	ListByChallenge(ctx context.Context, challengeID uint) ([]*models.Activity, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (*models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepository) ListByChallenge(ctx context.Context, challengeID uint) ([]*models.Activity, error) {
	var activities []*models.Activity
	err := r.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Order("created_at asc").
		Find(&activities).Error
	return activities, err
}
