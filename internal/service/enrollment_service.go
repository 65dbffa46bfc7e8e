package service

import (
	"context"
	"errors"
	"time"

	"questhub/internal/authz"
	"questhub/internal/models"
	"questhub/internal/repository"

	"gorm.io/gorm"
)

// EnrollmentService manages participation in challenges: self-service
// enrollment gated by the composed permissions, admin invites, withdrawal,
// and status sync from partner events.
type EnrollmentService struct {
	enrollmentRepo     repository.EnrollmentRepository
	challengeRepo      repository.ChallengeRepository
	membershipRepo     repository.MembershipRepository
	resolvePermissions func(ctx context.Context, userID, challengeID uint) (authz.EffectivePermissions, error)
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(
	enrollmentRepo repository.EnrollmentRepository,
	challengeRepo repository.ChallengeRepository,
	membershipRepo repository.MembershipRepository,
	resolvePermissions func(ctx context.Context, userID, challengeID uint) (authz.EffectivePermissions, error),
) *EnrollmentService {
	return &EnrollmentService{
		enrollmentRepo:     enrollmentRepo,
		challengeRepo:      challengeRepo,
		membershipRepo:     membershipRepo,
		resolvePermissions: resolvePermissions,
	}
}

// Enroll is the self-service path. The composed canEnroll gate covers
// workspace and challenge self-enrollment rules plus current participation
// state; withdrawn users may re-enroll.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, challengeID uint) (*models.Enrollment, error) {
	perms, err := s.resolvePermissions(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}
	if !perms.CanEnroll {
		return nil, models.NewForbiddenError("self-enrollment is not available for this challenge")
	}

	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	existing, err := s.enrollmentRepo.GetByUserAndChallenge(ctx, userID, challengeID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	if existing != nil {
		// Invited or withdrawn: flip the existing row to enrolled.
		if err := s.enrollmentRepo.UpdateStatus(ctx, existing.ID, models.EnrollmentStatusEnrolled); err != nil {
			return nil, models.NewInternalError(err)
		}
		return s.enrollmentRepo.GetByUserAndChallenge(ctx, userID, challengeID)
	}

	now := time.Now()
	enrollment := &models.Enrollment{
		UserID:      userID,
		ChallengeID: challengeID,
		WorkspaceID: challenge.WorkspaceID,
		Status:      models.EnrollmentStatusEnrolled,
		EnrolledAt:  &now,
	}
	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, models.NewInternalError(err)
	}
	return enrollment, nil
}

// Invite creates an INVITED enrollment on behalf of a managing user.
func (s *EnrollmentService) Invite(ctx context.Context, inviterID, userID, challengeID uint) (*models.Enrollment, error) {
	perms, err := s.resolvePermissions(ctx, inviterID, challengeID)
	if err != nil {
		return nil, err
	}
	if !perms.CanManage {
		return nil, models.NewForbiddenError("only workspace admins and managers can invite participants")
	}

	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if _, err := s.membershipRepo.Get(ctx, challenge.WorkspaceID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewValidationError("invited user is not a member of this workspace")
		}
		return nil, models.NewInternalError(err)
	}

	if _, err := s.enrollmentRepo.GetByUserAndChallenge(ctx, userID, challengeID); err == nil {
		return nil, models.NewConflictError("user already has an enrollment in this challenge")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	enrollment := &models.Enrollment{
		UserID:      userID,
		ChallengeID: challengeID,
		WorkspaceID: challenge.WorkspaceID,
		Status:      models.EnrollmentStatusInvited,
		InvitedBy:   &inviterID,
	}
	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, models.NewInternalError(err)
	}
	return enrollment, nil
}

// Withdraw moves the caller's own active enrollment to WITHDRAWN.
func (s *EnrollmentService) Withdraw(ctx context.Context, userID, challengeID uint) error {
	enrollment, err := s.enrollmentRepo.GetByUserAndChallenge(ctx, userID, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Enrollment", challengeID)
		}
		return models.NewInternalError(err)
	}
	if enrollment.Status != models.EnrollmentStatusEnrolled {
		return models.NewConflictError("enrollment is not active")
	}
	return s.enrollmentRepo.UpdateStatus(ctx, enrollment.ID, models.EnrollmentStatusWithdrawn)
}

// Remove hard-deletes an enrollment; admin only.
func (s *EnrollmentService) Remove(ctx context.Context, adminID, userID, challengeID uint) error {
	perms, err := s.resolvePermissions(ctx, adminID, challengeID)
	if err != nil {
		return err
	}
	if !perms.IsAdmin {
		return models.NewForbiddenError("only workspace admins can remove enrollments")
	}
	enrollment, err := s.enrollmentRepo.GetByUserAndChallenge(ctx, userID, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Enrollment", challengeID)
		}
		return models.NewInternalError(err)
	}
	return s.enrollmentRepo.Delete(ctx, enrollment.ID)
}

// ListForChallenge returns the roster for a challenge; managing users only.
func (s *EnrollmentService) ListForChallenge(ctx context.Context, callerID, challengeID uint) ([]*models.Enrollment, error) {
	perms, err := s.resolvePermissions(ctx, callerID, challengeID)
	if err != nil {
		return nil, err
	}
	if !perms.CanManage {
		return nil, models.NewForbiddenError("only workspace admins and managers can view the roster")
	}
	return s.enrollmentRepo.ListByChallenge(ctx, challengeID)
}

// ApplyPartnerStatus syncs an enrollment with a verified partner event. A
// missing enrollment is loud: partner state referencing an unknown
// participant indicates drift.
func (s *EnrollmentService) ApplyPartnerStatus(ctx context.Context, userID, challengeID uint, status models.EnrollmentStatus) error {
	enrollment, err := s.enrollmentRepo.GetByUserAndChallenge(ctx, userID, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Enrollment", challengeID)
		}
		return models.NewInternalError(err)
	}
	if enrollment.Status == status {
		return nil
	}
	return s.enrollmentRepo.UpdateStatus(ctx, enrollment.ID, status)
}
