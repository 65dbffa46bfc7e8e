package service

import (
	"context"
	"errors"
	"log/slog"

	"questhub/internal/models"
	"questhub/internal/observability"
	"questhub/internal/repository"

	"gorm.io/gorm"
)

// LedgerService owns reward issuance records. Creation is idempotent per
// submission; terminal transitions come only from the webhook pipeline.
type LedgerService struct {
	rewardRepo     repository.RewardRepository
	submissionRepo repository.SubmissionRepository
	activityRepo   repository.ActivityRepository

	// skuValue prices a sku reward when the activity has no cached value.
	// Nil means no partner lookup is available.
	skuValue func(ctx context.Context, skuID string) (int64, error)
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	rewardRepo repository.RewardRepository,
	submissionRepo repository.SubmissionRepository,
	activityRepo repository.ActivityRepository,
	skuValue func(ctx context.Context, skuID string) (int64, error),
) *LedgerService {
	return &LedgerService{
		rewardRepo:     rewardRepo,
		submissionRepo: submissionRepo,
		activityRepo:   activityRepo,
		skuValue:       skuValue,
	}
}

// IssueForSubmission creates the PENDING ledger entry for an approved
// submission, sizing the reward from the activity's configuration. The
// unique index on submission_id makes a reviewer retry return the existing
// entry instead of double-issuing.
func (s *LedgerService) IssueForSubmission(ctx context.Context, submission *models.Submission, issuedBy uint) (*models.RewardIssuance, error) {
	activity := submission.Activity
	if activity == nil {
		loaded, err := s.activityRepo.GetByID(ctx, submission.ActivityID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		activity = loaded
	}

	rewardType, amount, skuID, err := s.sizeReward(ctx, activity)
	if err != nil {
		return nil, err
	}

	issuance := &models.RewardIssuance{
		SubmissionID: submission.ID,
		WorkspaceID:  submission.WorkspaceID,
		UserID:       submission.UserID,
		RewardType:   rewardType,
		Amount:       amount,
		SKUID:        skuID,
		Status:       models.IssuanceStatusPending,
		IssuedBy:     issuedBy,
	}

	created, err := s.rewardRepo.CreateForSubmission(ctx, issuance)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if created {
		observability.RewardIssuances.WithLabelValues(string(rewardType), string(models.IssuanceStatusPending)).Inc()
	}

	// Linkage is best-effort: the issuance row itself is the source of
	// truth for at-most-one.
	if err := s.submissionRepo.LinkIssuance(ctx, submission.ID, issuance.ID); err != nil {
		slog.WarnContext(ctx, "failed to link issuance to submission",
			"submission_id", submission.ID, "issuance_id", issuance.ID, "err", err)
	}

	return issuance, nil
}

func (s *LedgerService) sizeReward(ctx context.Context, activity *models.Activity) (models.RewardType, int64, *string, error) {
	switch activity.RewardType {
	case models.RewardTypePoints:
		return models.RewardTypePoints, activity.BasePoints, nil, nil
	case models.RewardTypeMonetary:
		return models.RewardTypeMonetary, activity.RewardAmount, nil, nil
	case models.RewardTypeSKU:
		if activity.SKUID == nil {
			return "", 0, nil, models.NewValidationError("sku reward has no sku configured")
		}
		value := activity.SKUValue
		if value == 0 && s.skuValue != nil {
			fetched, err := s.skuValue(ctx, *activity.SKUID)
			if err != nil {
				return "", 0, nil, err
			}
			value = fetched
		}
		return models.RewardTypeSKU, value, activity.SKUID, nil
	default:
		return "", 0, nil, models.NewValidationError("unknown reward type: " + string(activity.RewardType))
	}
}

// ApplyWebhookEvent moves a ledger entry to a terminal state on behalf of a
// verified partner event. Replays against a terminal entry are a logged
// no-op; a missing entry fails loudly so the partner's retry logic engages.
func (s *LedgerService) ApplyWebhookEvent(ctx context.Context, issuanceID, workspaceID uint, newStatus models.IssuanceStatus, externalTxnID *string, failureReason string) error {
	if !newStatus.IsTerminal() {
		return models.NewValidationError("webhook events may only set terminal issuance states")
	}

	issuance, err := s.rewardRepo.GetByID(ctx, issuanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.ErrorContext(ctx, "webhook references unknown ledger entry",
				"issuance_id", issuanceID, "workspace_id", workspaceID)
			return models.NewNotFoundError("RewardIssuance", issuanceID)
		}
		return models.NewInternalError(err)
	}
	if issuance.WorkspaceID != workspaceID {
		slog.ErrorContext(ctx, "webhook ledger entry belongs to another workspace",
			"issuance_id", issuanceID, "workspace_id", workspaceID)
		return models.NewNotFoundError("RewardIssuance", issuanceID)
	}

	if issuance.Status.IsTerminal() {
		slog.InfoContext(ctx, "ledger entry already terminal, skipping",
			"issuance_id", issuanceID, "status", issuance.Status)
		return nil
	}

	applied, err := s.rewardRepo.ApplyTerminal(ctx, issuanceID, newStatus, externalTxnID, failureReason)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !applied {
		// Lost the race to a concurrent delivery; the entry is terminal now.
		slog.InfoContext(ctx, "ledger transition lost race, entry already terminal",
			"issuance_id", issuanceID)
		return nil
	}

	observability.RewardIssuances.WithLabelValues(string(issuance.RewardType), string(newStatus)).Inc()
	return nil
}

// ListForUser returns a participant's ledger entries in a workspace.
func (s *LedgerService) ListForUser(ctx context.Context, userID, workspaceID uint) ([]*models.RewardIssuance, error) {
	return s.rewardRepo.ListByUser(ctx, userID, workspaceID)
}

// ReconcileMissingIssuances retries issuance creation for approved
// submissions whose best-effort issuance never landed. Returns the number
// repaired.
func (s *LedgerService) ReconcileMissingIssuances(ctx context.Context, limit int) (int, error) {
	submissions, err := s.submissionRepo.ListApprovedWithoutIssuance(ctx, limit)
	if err != nil {
		return 0, models.NewInternalError(err)
	}

	repaired := 0
	for _, submission := range submissions {
		issuedBy := submission.UserID
		if submission.ReviewedBy != nil {
			issuedBy = *submission.ReviewedBy
		}
		if _, err := s.IssueForSubmission(ctx, submission, issuedBy); err != nil {
			slog.WarnContext(ctx, "reconciliation could not issue reward",
				"submission_id", submission.ID, "err", err)
			observability.ReconciliationRuns.WithLabelValues("error").Inc()
			continue
		}
		repaired++
		observability.ReconciliationRuns.WithLabelValues("repaired").Inc()
	}
	return repaired, nil
}
