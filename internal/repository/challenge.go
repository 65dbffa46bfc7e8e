package repository

import (
	"context"

	"questhub/internal/cache"
	"questhub/internal/models"

	"gorm.io/gorm"
)

// ChallengeRepository defines interface for challenge operations
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	GetByID(ctx context.Context, id uint) (*models.Challenge, error)
	ListByWorkspace(ctx context.Context, workspaceID uint) ([]*models.Challenge, error)
	Update(ctx context.Context, challenge *models.Challenge) error
}

type challengeRepository struct {
	db *gorm.DB
}

// NewChallengeRepository creates a new ChallengeRepository
func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *challengeRepository) GetByID(ctx context.Context, id uint) (*models.Challenge, error) {
	var challenge models.Challenge
	err := cache.Aside(ctx, cache.ChallengeKey(id), &challenge, cache.ChallengeTTL, func() error {
		return r.db.WithContext(ctx).First(&challenge, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepository) ListByWorkspace(ctx context.Context, workspaceID uint) ([]*models.Challenge, error) {
	var challenges []*models.Challenge
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at desc").
		Find(&challenges).Error
	return challenges, err
}

func (r *challengeRepository) Update(ctx context.Context, challenge *models.Challenge) error {
	if err := r.db.WithContext(ctx).Save(challenge).Error; err != nil {
		return err
	}
	cache.InvalidateChallenge(ctx, challenge.ID)
	return nil
}
