package repository

import (
	"context"
	"errors"
	"time"

	"questhub/internal/models"

	"gorm.io/gorm"
)

// WebhookLogRepository defines interface for the append-only webhook audit trail
type WebhookLogRepository interface {
	Append(ctx context.Context, log *models.WebhookLog) error
	MarkProcessed(ctx context.Context, id uint) error
	MarkFailed(ctx context.Context, id uint, errMsg string) error
	ListByWorkspace(ctx context.Context, workspaceID uint, limit int) ([]*models.WebhookLog, error)
}

type webhookLogRepository struct {
	db *gorm.DB
}

// NewWebhookLogRepository creates a new WebhookLogRepository
func NewWebhookLogRepository(db *gorm.DB) WebhookLogRepository {
	return &webhookLogRepository{db: db}
}

func (r *webhookLogRepository) Append(ctx context.Context, log *models.WebhookLog) error {
	if log.ReceivedAt.IsZero() {
		log.ReceivedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *webhookLogRepository) MarkProcessed(ctx context.Context, id uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.WebhookLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.WebhookLogStatusProcessed,
			"processed_at": &now,
		}).Error
}

func (r *webhookLogRepository) MarkFailed(ctx context.Context, id uint, errMsg string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.WebhookLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.WebhookLogStatusFailed,
			"error":        errMsg,
			"processed_at": &now,
		}).Error
}

func (r *webhookLogRepository) ListByWorkspace(ctx context.Context, workspaceID uint, limit int) ([]*models.WebhookLog, error) {
	var logs []*models.WebhookLog
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("received_at desc").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// IdempotencyRepository defines interface for webhook de-duplication records
type IdempotencyRepository interface {
	IsProcessed(ctx context.Context, eventID string, workspaceID uint) (bool, error)
	// MarkProcessed inserts the record; a concurrent duplicate insert is
	// treated as already-marked rather than an error.
	MarkProcessed(ctx context.Context, eventID string, workspaceID uint) error
}

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new IdempotencyRepository
func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) IsProcessed(ctx context.Context, eventID string, workspaceID uint) (bool, error) {
	var record models.IdempotencyRecord
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND workspace_id = ?", eventID, workspaceID).
		First(&record).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

func (r *idempotencyRepository) MarkProcessed(ctx context.Context, eventID string, workspaceID uint) error {
	record := models.IdempotencyRecord{
		EventID:     eventID,
		WorkspaceID: workspaceID,
		ProcessedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Create(&record).Error
	if err != nil && isDuplicateKeyError(err) {
		return nil
	}
	return err
}
