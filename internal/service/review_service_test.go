package service

import (
	"context"
	"errors"
	"testing"

	"questhub/internal/authz"
	"questhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type submissionRepoStub struct {
	createFn                      func(context.Context, *models.Submission) error
	getByIDFn                     func(context.Context, uint) (*models.Submission, error)
	listByChallengeFn             func(context.Context, uint) ([]*models.Submission, error)
	listByUserFn                  func(context.Context, uint, uint) ([]*models.Submission, error)
	updateStatusCASFn             func(context.Context, uint, []models.SubmissionStatus, models.SubmissionStatus, uint, string) error
	linkIssuanceFn                func(context.Context, uint, uint) error
	listApprovedWithoutIssuanceFn func(context.Context, int) ([]*models.Submission, error)
}

func (s *submissionRepoStub) Create(ctx context.Context, submission *models.Submission) error {
	return s.createFn(ctx, submission)
}
func (s *submissionRepoStub) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	return s.getByIDFn(ctx, id)
}
func (s *submissionRepoStub) ListByChallenge(ctx context.Context, challengeID uint) ([]*models.Submission, error) {
	return s.listByChallengeFn(ctx, challengeID)
}
func (s *submissionRepoStub) ListByUser(ctx context.Context, userID, challengeID uint) ([]*models.Submission, error) {
	return s.listByUserFn(ctx, userID, challengeID)
}
func (s *submissionRepoStub) UpdateStatusCAS(ctx context.Context, id uint, from []models.SubmissionStatus, status models.SubmissionStatus, reviewerID uint, notes string) error {
	return s.updateStatusCASFn(ctx, id, from, status, reviewerID, notes)
}
func (s *submissionRepoStub) LinkIssuance(ctx context.Context, id, issuanceID uint) error {
	return s.linkIssuanceFn(ctx, id, issuanceID)
}
func (s *submissionRepoStub) ListApprovedWithoutIssuance(ctx context.Context, limit int) ([]*models.Submission, error) {
	return s.listApprovedWithoutIssuanceFn(ctx, limit)
}

type issuerStub struct {
	issueFn func(context.Context, *models.Submission, uint) (*models.RewardIssuance, error)
}

func (s *issuerStub) IssueForSubmission(ctx context.Context, submission *models.Submission, issuedBy uint) (*models.RewardIssuance, error) {
	return s.issueFn(ctx, submission, issuedBy)
}

func reviewerPerms(perms authz.EffectivePermissions) func(context.Context, uint, uint) (authz.EffectivePermissions, error) {
	return func(context.Context, uint, uint) (authz.EffectivePermissions, error) {
		return perms, nil
	}
}

func pendingSubmission(id, ownerID uint) *models.Submission {
	return &models.Submission{
		ID:          id,
		ActivityID:  10,
		ChallengeID: 5,
		WorkspaceID: 1,
		UserID:      ownerID,
		Status:      models.SubmissionStatusPending,
	}
}

func TestReview_Approve(t *testing.T) {
	submission := pendingSubmission(7, 2)
	casCalled := false
	issued := false

	repo := &submissionRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Submission, error) {
			if casCalled {
				approved := *submission
				approved.Status = models.SubmissionStatusApproved
				return &approved, nil
			}
			return submission, nil
		},
		updateStatusCASFn: func(_ context.Context, id uint, from []models.SubmissionStatus, status models.SubmissionStatus, reviewerID uint, notes string) error {
			casCalled = true
			assert.Equal(t, uint(7), id)
			assert.Equal(t, models.SubmissionStatusApproved, status)
			assert.Contains(t, from, models.SubmissionStatusPending)
			assert.Contains(t, from, models.SubmissionStatusManagerApproved)
			assert.Equal(t, uint(3), reviewerID)
			return nil
		},
	}
	ledger := &issuerStub{
		issueFn: func(_ context.Context, s *models.Submission, issuedBy uint) (*models.RewardIssuance, error) {
			issued = true
			assert.Equal(t, uint(7), s.ID)
			assert.Equal(t, uint(3), issuedBy)
			return &models.RewardIssuance{ID: 99, SubmissionID: s.ID}, nil
		},
	}

	svc := NewReviewService(repo, ledger, reviewerPerms(authz.EffectivePermissions{CanApproveSubmissions: true}))

	updated, err := svc.Review(context.Background(), ReviewInput{SubmissionID: 7, ReviewerID: 3, Action: ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusApproved, updated.Status)
	assert.True(t, casCalled)
	assert.True(t, issued)
}

func TestReview_SelfApprovalForbiddenForAnyRole(t *testing.T) {
	submission := pendingSubmission(7, 3)
	repo := &submissionRepoStub{
		getByIDFn: func(context.Context, uint) (*models.Submission, error) { return submission, nil },
		updateStatusCASFn: func(context.Context, uint, []models.SubmissionStatus, models.SubmissionStatus, uint, string) error {
			t.Fatal("self-approval must be rejected before any status change")
			return nil
		},
	}
	ledger := &issuerStub{
		issueFn: func(context.Context, *models.Submission, uint) (*models.RewardIssuance, error) {
			t.Fatal("self-approval must never issue a reward")
			return nil, nil
		},
	}

	// Reviewer 3 owns submission 7 and is a full admin; ownership still wins.
	svc := NewReviewService(repo, ledger, reviewerPerms(authz.EffectivePermissions{
		IsAdmin:               true,
		CanManage:             true,
		CanApproveSubmissions: true,
	}))

	_, err := svc.Review(context.Background(), ReviewInput{SubmissionID: 7, ReviewerID: 3, Action: ActionApprove})
	assertAppErrorCode(t, err, models.CodeForbidden)
}

func TestReview_RequiresApprovalCapability(t *testing.T) {
	submission := pendingSubmission(7, 2)
	repo := &submissionRepoStub{
		getByIDFn: func(context.Context, uint) (*models.Submission, error) { return submission, nil },
	}
	svc := NewReviewService(repo, &issuerStub{}, reviewerPerms(authz.EffectivePermissions{IsParticipant: true}))

	_, err := svc.Review(context.Background(), ReviewInput{SubmissionID: 7, ReviewerID: 3, Action: ActionReject})
	assertAppErrorCode(t, err, models.CodeForbidden)
}

func TestReview_TerminalSubmissionConflicts(t *testing.T) {
	submission := pendingSubmission(7, 2)
	submission.Status = models.SubmissionStatusRejected

	repo := &submissionRepoStub{
		getByIDFn: func(context.Context, uint) (*models.Submission, error) { return submission, nil },
	}
	svc := NewReviewService(repo, &issuerStub{}, reviewerPerms(authz.EffectivePermissions{CanApproveSubmissions: true}))

	_, err := svc.Review(context.Background(), ReviewInput{SubmissionID: 7, ReviewerID: 3, Action: ActionApprove})
	assertAppErrorCode(t, err, models.CodeConflict)
}

func TestReview_LostRaceConflicts(t *testing.T) {
	submission := pendingSubmission(7, 2)
	repo := &submissionRepoStub{
		getByIDFn: func(context.Context, uint) (*models.Submission, error) { return submission, nil },
		updateStatusCASFn: func(context.Context, uint, []models.SubmissionStatus, models.SubmissionStatus, uint, string) error {
			return gorm.ErrRecordNotFound
		},
	}
	ledger := &issuerStub{
		issueFn: func(context.Context, *models.Submission, uint) (*models.RewardIssuance, error) {
			t.Fatal("a lost race must never issue a reward")
			return nil, nil
		},
	}
	svc := NewReviewService(repo, ledger, reviewerPerms(authz.EffectivePermissions{CanApproveSubmissions: true}))

	_, err := svc.Review(context.Background(), ReviewInput{SubmissionID: 7, ReviewerID: 3, Action: ActionApprove})
	assertAppErrorCode(t, err, models.CodeConflict)
}

func TestReview_IssuanceFailureDoesNotRollBackApproval(t *testing.T) {
	submission := pendingSubmission(7, 2)
	casCalled := false
	repo := &submissionRepoStub{
		getByIDFn: func(context.Context, uint) (*models.Submission, error) {
			if casCalled {
				approved := *submission
				approved.Status = models.SubmissionStatusApproved
				return &approved, nil
			}
			return submission, nil
		},
		updateStatusCASFn: func(context.Context, uint, []models.SubmissionStatus, models.SubmissionStatus, uint, string) error {
			casCalled = true
			return nil
		},
	}
	ledger := &issuerStub{
		issueFn: func(context.Context, *models.Submission, uint) (*models.RewardIssuance, error) {
			return nil, errors.New("partner catalog unavailable")
		},
	}
	svc := NewReviewService(repo, ledger, reviewerPerms(authz.EffectivePermissions{CanApproveSubmissions: true}))

	updated, err := svc.Review(context.Background(), ReviewInput{SubmissionID: 7, ReviewerID: 3, Action: ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusApproved, updated.Status)
}

func TestReview_ManagerApproveOnlyFromPending(t *testing.T) {
	target, from, err := transitionFor(ActionManagerApprove)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusManagerApproved, target)
	assert.Equal(t, []models.SubmissionStatus{models.SubmissionStatusPending}, from)

	target, from, err = transitionFor(ActionNeedsRevision)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusNeedsRevision, target)
	assert.Equal(t, []models.SubmissionStatus{models.SubmissionStatusPending}, from)
}

func TestReview_UnknownAction(t *testing.T) {
	submission := pendingSubmission(7, 2)
	repo := &submissionRepoStub{
		getByIDFn: func(context.Context, uint) (*models.Submission, error) { return submission, nil },
	}
	svc := NewReviewService(repo, &issuerStub{}, reviewerPerms(authz.EffectivePermissions{CanApproveSubmissions: true}))

	_, err := svc.Review(context.Background(), ReviewInput{SubmissionID: 7, ReviewerID: 3, Action: "escalate"})
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestReview_MissingSubmission(t *testing.T) {
	repo := &submissionRepoStub{
		getByIDFn: func(context.Context, uint) (*models.Submission, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewReviewService(repo, &issuerStub{}, reviewerPerms(authz.EffectivePermissions{CanApproveSubmissions: true}))

	_, err := svc.Review(context.Background(), ReviewInput{SubmissionID: 404, ReviewerID: 3, Action: ActionApprove})
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
