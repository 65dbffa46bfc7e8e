package repository

import (
	"context"

	"questhub/internal/models"

	"gorm.io/gorm"
)

// AssignmentRepository defines interface for challenge manager assignments
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.ChallengeAssignment) error
	GetByID(ctx context.Context, id uint) (*models.ChallengeAssignment, error)
	GetByChallengeAndManager(ctx context.Context, challengeID, managerID uint) (*models.ChallengeAssignment, error)
	ListByChallenge(ctx context.Context, challengeID uint) ([]*models.ChallengeAssignment, error)
	Delete(ctx context.Context, id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.ChallengeAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (*models.ChallengeAssignment, error) {
	var assignment models.ChallengeAssignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) GetByChallengeAndManager(ctx context.Context, challengeID, managerID uint) (*models.ChallengeAssignment, error) {
	var assignment models.ChallengeAssignment
	err := r.db.WithContext(ctx).
		Where("challenge_id = ? AND manager_id = ?", challengeID, managerID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) ListByChallenge(ctx context.Context, challengeID uint) ([]*models.ChallengeAssignment, error) {
	var assignments []*models.ChallengeAssignment
	err := r.db.WithContext(ctx).
		Preload("Manager").
		Where("challenge_id = ?", challengeID).
		Order("created_at asc").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ChallengeAssignment{}, id).Error
}
