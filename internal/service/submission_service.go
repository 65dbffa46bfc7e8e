package service

import (
	"context"
	"errors"
	"strings"

	"questhub/internal/authz"
	"questhub/internal/models"
	"questhub/internal/repository"

	"gorm.io/gorm"
)

// SubmissionService handles participant-side submission creation and listing.
type SubmissionService struct {
	submissionRepo     repository.SubmissionRepository
	activityRepo       repository.ActivityRepository
	enrollmentRepo     repository.EnrollmentRepository
	resolvePermissions func(ctx context.Context, userID, challengeID uint) (authz.EffectivePermissions, error)
}

// CreateSubmissionInput is one proof claim from a participant.
type CreateSubmissionInput struct {
	UserID     uint
	ActivityID uint
	Proof      string
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	activityRepo repository.ActivityRepository,
	enrollmentRepo repository.EnrollmentRepository,
	resolvePermissions func(ctx context.Context, userID, challengeID uint) (authz.EffectivePermissions, error),
) *SubmissionService {
	return &SubmissionService{
		submissionRepo:     submissionRepo,
		activityRepo:       activityRepo,
		enrollmentRepo:     enrollmentRepo,
		resolvePermissions: resolvePermissions,
	}
}

// Create records a PENDING submission for an activity. The submitter must
// hold an active enrollment in the activity's challenge.
func (s *SubmissionService) Create(ctx context.Context, in CreateSubmissionInput) (*models.Submission, error) {
	const maxProofLen = 10000

	if strings.TrimSpace(in.Proof) == "" {
		return nil, models.NewValidationError("proof is required")
	}
	if len(in.Proof) > maxProofLen {
		return nil, models.NewValidationError("proof too long (max 10000 characters)")
	}

	activity, err := s.activityRepo.GetByID(ctx, in.ActivityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Activity", in.ActivityID)
		}
		return nil, models.NewInternalError(err)
	}

	enrollment, err := s.enrollmentRepo.GetByUserAndChallenge(ctx, in.UserID, activity.ChallengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewForbiddenError("you are not enrolled in this challenge")
		}
		return nil, models.NewInternalError(err)
	}
	if enrollment.Status != models.EnrollmentStatusEnrolled {
		return nil, models.NewForbiddenError("your enrollment is not active")
	}

	submission := &models.Submission{
		ActivityID:  activity.ID,
		ChallengeID: activity.ChallengeID,
		WorkspaceID: activity.WorkspaceID,
		UserID:      in.UserID,
		Status:      models.SubmissionStatusPending,
		Proof:       in.Proof,
	}
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, models.NewInternalError(err)
	}
	return submission, nil
}

// ListForChallenge returns submissions for review. Managing users see the
// whole queue; participants see only their own.
func (s *SubmissionService) ListForChallenge(ctx context.Context, callerID, challengeID uint) ([]*models.Submission, error) {
	perms, err := s.resolvePermissions(ctx, callerID, challengeID)
	if err != nil {
		return nil, err
	}
	if perms.CanManage {
		return s.submissionRepo.ListByChallenge(ctx, challengeID)
	}
	return s.submissionRepo.ListByUser(ctx, callerID, challengeID)
}

// Get returns a single submission visible to the caller.
func (s *SubmissionService) Get(ctx context.Context, callerID, submissionID uint) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Submission", submissionID)
		}
		return nil, models.NewInternalError(err)
	}
	if submission.UserID == callerID {
		return submission, nil
	}
	perms, err := s.resolvePermissions(ctx, callerID, submission.ChallengeID)
	if err != nil {
		return nil, err
	}
	if !perms.CanManage {
		return nil, models.NewForbiddenError("you cannot view this submission")
	}
	return submission, nil
}
