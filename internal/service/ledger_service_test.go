package service

import (
	"context"
	"testing"

	"questhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type rewardRepoStub struct {
	createForSubmissionFn func(context.Context, *models.RewardIssuance) (bool, error)
	getByIDFn             func(context.Context, uint) (*models.RewardIssuance, error)
	getBySubmissionIDFn   func(context.Context, uint) (*models.RewardIssuance, error)
	listByUserFn          func(context.Context, uint, uint) ([]*models.RewardIssuance, error)
	applyTerminalFn       func(context.Context, uint, models.IssuanceStatus, *string, string) (bool, error)
}

func (s *rewardRepoStub) CreateForSubmission(ctx context.Context, issuance *models.RewardIssuance) (bool, error) {
	return s.createForSubmissionFn(ctx, issuance)
}
func (s *rewardRepoStub) GetByID(ctx context.Context, id uint) (*models.RewardIssuance, error) {
	return s.getByIDFn(ctx, id)
}
func (s *rewardRepoStub) GetBySubmissionID(ctx context.Context, submissionID uint) (*models.RewardIssuance, error) {
	return s.getBySubmissionIDFn(ctx, submissionID)
}
func (s *rewardRepoStub) ListByUser(ctx context.Context, userID, workspaceID uint) ([]*models.RewardIssuance, error) {
	return s.listByUserFn(ctx, userID, workspaceID)
}
func (s *rewardRepoStub) ApplyTerminal(ctx context.Context, id uint, status models.IssuanceStatus, externalTxnID *string, failureReason string) (bool, error) {
	return s.applyTerminalFn(ctx, id, status, externalTxnID, failureReason)
}

type activityRepoStub struct {
	createFn          func(context.Context, *models.Activity) error
	getByIDFn         func(context.Context, uint) (*models.Activity, error)
	listByChallengeFn func(context.Context, uint) ([]*models.Activity, error)
}

func (s *activityRepoStub) Create(ctx context.Context, activity *models.Activity) error {
	return s.createFn(ctx, activity)
}
func (s *activityRepoStub) GetByID(ctx context.Context, id uint) (*models.Activity, error) {
	return s.getByIDFn(ctx, id)
}
func (s *activityRepoStub) ListByChallenge(ctx context.Context, challengeID uint) ([]*models.Activity, error) {
	return s.listByChallengeFn(ctx, challengeID)
}

func linkingSubmissionRepo() *submissionRepoStub {
	return &submissionRepoStub{
		linkIssuanceFn: func(context.Context, uint, uint) error { return nil },
	}
}

func TestIssueForSubmission_SizesPointsReward(t *testing.T) {
	var captured *models.RewardIssuance
	rewards := &rewardRepoStub{
		createForSubmissionFn: func(_ context.Context, issuance *models.RewardIssuance) (bool, error) {
			issuance.ID = 11
			captured = issuance
			return true, nil
		},
	}
	svc := NewLedgerService(rewards, linkingSubmissionRepo(), &activityRepoStub{}, nil)

	submission := &models.Submission{
		ID:          7,
		WorkspaceID: 1,
		UserID:      2,
		Activity:    &models.Activity{RewardType: models.RewardTypePoints, BasePoints: 50},
	}
	issuance, err := svc.IssueForSubmission(context.Background(), submission, 3)
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, models.RewardTypePoints, issuance.RewardType)
	assert.Equal(t, int64(50), issuance.Amount)
	assert.Equal(t, models.IssuanceStatusPending, issuance.Status)
	assert.Equal(t, uint(3), issuance.IssuedBy)
}

func TestIssueForSubmission_SKUFetchesPartnerValue(t *testing.T) {
	sku := "SKU-100"
	rewards := &rewardRepoStub{
		createForSubmissionFn: func(_ context.Context, issuance *models.RewardIssuance) (bool, error) {
			issuance.ID = 12
			return true, nil
		},
	}
	fetched := false
	skuValue := func(_ context.Context, skuID string) (int64, error) {
		fetched = true
		assert.Equal(t, sku, skuID)
		return 2500, nil
	}
	svc := NewLedgerService(rewards, linkingSubmissionRepo(), &activityRepoStub{}, skuValue)

	submission := &models.Submission{
		ID:       7,
		Activity: &models.Activity{RewardType: models.RewardTypeSKU, SKUID: &sku, SKUValue: 0},
	}
	issuance, err := svc.IssueForSubmission(context.Background(), submission, 3)
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Equal(t, int64(2500), issuance.Amount)
	assert.Equal(t, &sku, issuance.SKUID)
}

func TestIssueForSubmission_SKUUsesCachedValue(t *testing.T) {
	sku := "SKU-100"
	rewards := &rewardRepoStub{
		createForSubmissionFn: func(_ context.Context, issuance *models.RewardIssuance) (bool, error) {
			issuance.ID = 13
			return true, nil
		},
	}
	skuValue := func(context.Context, string) (int64, error) {
		t.Fatal("cached sku value must not trigger a partner lookup")
		return 0, nil
	}
	svc := NewLedgerService(rewards, linkingSubmissionRepo(), &activityRepoStub{}, skuValue)

	submission := &models.Submission{
		ID:       7,
		Activity: &models.Activity{RewardType: models.RewardTypeSKU, SKUID: &sku, SKUValue: 1000},
	}
	issuance, err := svc.IssueForSubmission(context.Background(), submission, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), issuance.Amount)
}

func TestIssueForSubmission_RetryReturnsExistingEntry(t *testing.T) {
	rewards := &rewardRepoStub{
		createForSubmissionFn: func(_ context.Context, issuance *models.RewardIssuance) (bool, error) {
			// Duplicate insert: the repository hands back the existing row.
			issuance.ID = 11
			issuance.Status = models.IssuanceStatusPending
			return false, nil
		},
	}
	svc := NewLedgerService(rewards, linkingSubmissionRepo(), &activityRepoStub{}, nil)

	submission := &models.Submission{
		ID:       7,
		Activity: &models.Activity{RewardType: models.RewardTypePoints, BasePoints: 50},
	}
	issuance, err := svc.IssueForSubmission(context.Background(), submission, 3)
	require.NoError(t, err)
	assert.Equal(t, uint(11), issuance.ID)
}

func TestApplyWebhookEvent_RejectsNonTerminalTarget(t *testing.T) {
	svc := NewLedgerService(&rewardRepoStub{}, linkingSubmissionRepo(), &activityRepoStub{}, nil)
	err := svc.ApplyWebhookEvent(context.Background(), 11, 1, models.IssuanceStatusPending, nil, "")
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestApplyWebhookEvent_MissingEntryFailsLoudly(t *testing.T) {
	rewards := &rewardRepoStub{
		getByIDFn: func(context.Context, uint) (*models.RewardIssuance, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewLedgerService(rewards, linkingSubmissionRepo(), &activityRepoStub{}, nil)
	err := svc.ApplyWebhookEvent(context.Background(), 11, 1, models.IssuanceStatusIssued, nil, "")
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestApplyWebhookEvent_WorkspaceMismatchFailsLoudly(t *testing.T) {
	rewards := &rewardRepoStub{
		getByIDFn: func(context.Context, uint) (*models.RewardIssuance, error) {
			return &models.RewardIssuance{ID: 11, WorkspaceID: 9, Status: models.IssuanceStatusPending}, nil
		},
	}
	svc := NewLedgerService(rewards, linkingSubmissionRepo(), &activityRepoStub{}, nil)
	err := svc.ApplyWebhookEvent(context.Background(), 11, 1, models.IssuanceStatusIssued, nil, "")
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestApplyWebhookEvent_ReplayAgainstTerminalIsNoOp(t *testing.T) {
	rewards := &rewardRepoStub{
		getByIDFn: func(context.Context, uint) (*models.RewardIssuance, error) {
			return &models.RewardIssuance{ID: 11, WorkspaceID: 1, Status: models.IssuanceStatusIssued}, nil
		},
		applyTerminalFn: func(context.Context, uint, models.IssuanceStatus, *string, string) (bool, error) {
			t.Fatal("terminal entries must not be written again")
			return false, nil
		},
	}
	svc := NewLedgerService(rewards, linkingSubmissionRepo(), &activityRepoStub{}, nil)
	err := svc.ApplyWebhookEvent(context.Background(), 11, 1, models.IssuanceStatusFailed, nil, "late failure")
	assert.NoError(t, err)
}

func TestApplyWebhookEvent_LostRaceIsNoOp(t *testing.T) {
	rewards := &rewardRepoStub{
		getByIDFn: func(context.Context, uint) (*models.RewardIssuance, error) {
			return &models.RewardIssuance{ID: 11, WorkspaceID: 1, Status: models.IssuanceStatusPending}, nil
		},
		applyTerminalFn: func(context.Context, uint, models.IssuanceStatus, *string, string) (bool, error) {
			return false, nil
		},
	}
	svc := NewLedgerService(rewards, linkingSubmissionRepo(), &activityRepoStub{}, nil)
	err := svc.ApplyWebhookEvent(context.Background(), 11, 1, models.IssuanceStatusIssued, nil, "")
	assert.NoError(t, err)
}

func TestApplyWebhookEvent_AppliesIssued(t *testing.T) {
	txn := "ext-123"
	applied := false
	rewards := &rewardRepoStub{
		getByIDFn: func(context.Context, uint) (*models.RewardIssuance, error) {
			return &models.RewardIssuance{ID: 11, WorkspaceID: 1, RewardType: models.RewardTypePoints, Status: models.IssuanceStatusPending}, nil
		},
		applyTerminalFn: func(_ context.Context, id uint, status models.IssuanceStatus, externalTxnID *string, failureReason string) (bool, error) {
			applied = true
			assert.Equal(t, uint(11), id)
			assert.Equal(t, models.IssuanceStatusIssued, status)
			require.NotNil(t, externalTxnID)
			assert.Equal(t, txn, *externalTxnID)
			return true, nil
		},
	}
	svc := NewLedgerService(rewards, linkingSubmissionRepo(), &activityRepoStub{}, nil)
	err := svc.ApplyWebhookEvent(context.Background(), 11, 1, models.IssuanceStatusIssued, &txn, "")
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestReconcileMissingIssuances(t *testing.T) {
	reviewer := uint(3)
	created := 0
	rewards := &rewardRepoStub{
		createForSubmissionFn: func(_ context.Context, issuance *models.RewardIssuance) (bool, error) {
			created++
			issuance.ID = uint(100 + created)
			assert.Equal(t, reviewer, issuance.IssuedBy)
			return true, nil
		},
	}
	submissions := linkingSubmissionRepo()
	submissions.listApprovedWithoutIssuanceFn = func(_ context.Context, limit int) ([]*models.Submission, error) {
		assert.Equal(t, 50, limit)
		return []*models.Submission{
			{ID: 1, UserID: 2, ReviewedBy: &reviewer, Activity: &models.Activity{RewardType: models.RewardTypePoints, BasePoints: 10}},
			{ID: 2, UserID: 4, ReviewedBy: &reviewer, Activity: &models.Activity{RewardType: models.RewardTypePoints, BasePoints: 20}},
		}, nil
	}

	svc := NewLedgerService(rewards, submissions, &activityRepoStub{}, nil)
	repaired, err := svc.ReconcileMissingIssuances(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 2, repaired)
	assert.Equal(t, 2, created)
}
