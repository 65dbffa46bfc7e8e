package repository

import (
	"context"
	"testing"

	"questhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedApprovedSubmission(t *testing.T, repo SubmissionRepository) *models.Submission {
	t.Helper()
	sub := &models.Submission{
		ActivityID:  1,
		ChallengeID: 1,
		WorkspaceID: 1,
		UserID:      2,
		Status:      models.SubmissionStatusApproved,
	}
	require.NoError(t, repo.Create(context.Background(), sub))
	return sub
}

func TestRewardRepository_CreateForSubmission_AtMostOne(t *testing.T) {
	db := setupTestDB(t)
	rewards := NewRewardRepository(db)
	submissions := NewSubmissionRepository(db)
	ctx := context.Background()

	sub := seedApprovedSubmission(t, submissions)

	first := &models.RewardIssuance{
		SubmissionID: sub.ID,
		WorkspaceID:  1,
		UserID:       2,
		RewardType:   models.RewardTypePoints,
		Amount:       50,
		Status:       models.IssuanceStatusPending,
		IssuedBy:     3,
	}
	created, err := rewards.CreateForSubmission(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	// A retry for the same submission must return the existing row.
	second := &models.RewardIssuance{
		SubmissionID: sub.ID,
		WorkspaceID:  1,
		UserID:       2,
		RewardType:   models.RewardTypePoints,
		Amount:       50,
		Status:       models.IssuanceStatusPending,
		IssuedBy:     4,
	}
	created, err = rewards.CreateForSubmission(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.RewardIssuance{}).Where("submission_id = ?", sub.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRewardRepository_ApplyTerminal(t *testing.T) {
	db := setupTestDB(t)
	rewards := NewRewardRepository(db)
	submissions := NewSubmissionRepository(db)
	ctx := context.Background()

	sub := seedApprovedSubmission(t, submissions)
	issuance := &models.RewardIssuance{
		SubmissionID: sub.ID,
		WorkspaceID:  1,
		UserID:       2,
		RewardType:   models.RewardTypePoints,
		Amount:       50,
		Status:       models.IssuanceStatusPending,
		IssuedBy:     3,
	}
	_, err := rewards.CreateForSubmission(ctx, issuance)
	require.NoError(t, err)

	txnID := "txn-abc"
	applied, err := rewards.ApplyTerminal(ctx, issuance.ID, models.IssuanceStatusIssued, &txnID, "")
	require.NoError(t, err)
	assert.True(t, applied)

	// Replay against a terminal entry must not apply.
	applied, err = rewards.ApplyTerminal(ctx, issuance.ID, models.IssuanceStatusFailed, nil, "late failure")
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := rewards.GetByID(ctx, issuance.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IssuanceStatusIssued, got.Status)
	require.NotNil(t, got.ExternalTransactionID)
	assert.Equal(t, "txn-abc", *got.ExternalTransactionID)
	assert.Empty(t, got.FailureReason)
}
