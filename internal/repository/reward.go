package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"questhub/internal/models"

	"gorm.io/gorm"
)

// RewardRepository defines interface for reward ledger operations
type RewardRepository interface {
	// CreateForSubmission inserts an issuance for a submission. The unique
	// index on submission_id makes this idempotent: when an issuance
	// already exists the existing row is returned and created is false.
	CreateForSubmission(ctx context.Context, issuance *models.RewardIssuance) (created bool, err error)
	GetByID(ctx context.Context, id uint) (*models.RewardIssuance, error)
	GetBySubmissionID(ctx context.Context, submissionID uint) (*models.RewardIssuance, error)
	ListByUser(ctx context.Context, userID, workspaceID uint) ([]*models.RewardIssuance, error)
	// ApplyTerminal moves a PENDING issuance to issued or failed. The
	// status='pending' guard in the WHERE clause makes the transition
	// happen at most once; zero rows affected means the entry was already
	// terminal.
	ApplyTerminal(ctx context.Context, id uint, status models.IssuanceStatus, externalTxnID *string, failureReason string) (applied bool, err error)
}

type rewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository creates a new RewardRepository
func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) CreateForSubmission(ctx context.Context, issuance *models.RewardIssuance) (bool, error) {
	err := r.db.WithContext(ctx).Create(issuance).Error
	if err == nil {
		return true, nil
	}
	if !isDuplicateKeyError(err) {
		return false, err
	}
	existing, getErr := r.GetBySubmissionID(ctx, issuance.SubmissionID)
	if getErr != nil {
		return false, getErr
	}
	*issuance = *existing
	return false, nil
}

func (r *rewardRepository) GetByID(ctx context.Context, id uint) (*models.RewardIssuance, error) {
	var issuance models.RewardIssuance
	if err := r.db.WithContext(ctx).First(&issuance, id).Error; err != nil {
		return nil, err
	}
	return &issuance, nil
}

func (r *rewardRepository) GetBySubmissionID(ctx context.Context, submissionID uint) (*models.RewardIssuance, error) {
	var issuance models.RewardIssuance
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		First(&issuance).Error
	if err != nil {
		return nil, err
	}
	return &issuance, nil
}

func (r *rewardRepository) ListByUser(ctx context.Context, userID, workspaceID uint) ([]*models.RewardIssuance, error) {
	var issuances []*models.RewardIssuance
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND workspace_id = ?", userID, workspaceID).
		Order("created_at desc").
		Find(&issuances).Error
	return issuances, err
}

func (r *rewardRepository) ApplyTerminal(ctx context.Context, id uint, status models.IssuanceStatus, externalTxnID *string, failureReason string) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":    status,
		"issued_at": &now,
	}
	if externalTxnID != nil {
		updates["external_transaction_id"] = externalTxnID
	}
	if failureReason != "" {
		updates["failure_reason"] = failureReason
	}
	result := r.db.WithContext(ctx).
		Model(&models.RewardIssuance{}).
		Where("id = ? AND status = ?", id, models.IssuanceStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// isDuplicateKeyError matches unique constraint violations across the
// Postgres and sqlite drivers.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
