package repository

import (
	"context"
	"time"

	"questhub/internal/models"

	"gorm.io/gorm"
)

// SubmissionRepository defines interface for submission operations
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	ListByChallenge(ctx context.Context, challengeID uint) ([]*models.Submission, error)
	ListByUser(ctx context.Context, userID, challengeID uint) ([]*models.Submission, error)
	// UpdateStatusCAS transitions a submission from one of fromStatuses to
	// status in a single compare-and-swap UPDATE. It returns
	// gorm.ErrRecordNotFound when zero rows match, which means the
	// submission either does not exist or lost the race to a concurrent
	// reviewer.
	UpdateStatusCAS(ctx context.Context, id uint, fromStatuses []models.SubmissionStatus, status models.SubmissionStatus, reviewerID uint, notes string) error
	// LinkIssuance records the one-time reward issuance linkage. Terminal
	// submissions accept no other mutation.
	LinkIssuance(ctx context.Context, id, issuanceID uint) error
	// ListApprovedWithoutIssuance feeds the ledger reconciliation job.
	ListApprovedWithoutIssuance(ctx context.Context, limit int) ([]*models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).Preload("Activity").First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) ListByChallenge(ctx context.Context, challengeID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Activity").
		Where("challenge_id = ?", challengeID).
		Order("created_at desc").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) ListByUser(ctx context.Context, userID, challengeID uint) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := r.db.WithContext(ctx).
		Preload("Activity").
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Order("created_at desc").
		Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) UpdateStatusCAS(ctx context.Context, id uint, fromStatuses []models.SubmissionStatus, status models.SubmissionStatus, reviewerID uint, notes string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(map[string]interface{}{
			"status":       status,
			"reviewed_by":  reviewerID,
			"review_notes": notes,
			"reviewed_at":  &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *submissionRepository) LinkIssuance(ctx context.Context, id, issuanceID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Update("reward_issuance_id", issuanceID).Error
}

func (r *submissionRepository) ListApprovedWithoutIssuance(ctx context.Context, limit int) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := r.db.WithContext(ctx).
		Preload("Activity").
		Where("status = ? AND reward_issuance_id IS NULL", models.SubmissionStatusApproved).
		Order("reviewed_at asc").
		Limit(limit).
		Find(&submissions).Error
	return submissions, err
}
