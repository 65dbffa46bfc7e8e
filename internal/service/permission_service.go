package service

import (
	"context"
	"errors"

	"questhub/internal/authz"
	"questhub/internal/models"
	"questhub/internal/repository"

	"gorm.io/gorm"
)

// PermissionService loads the three role signals for a (user, challenge)
// pair and composes them. Every authorization-gated mutation resolves
// permissions freshly through this service; results are never cached
// across requests.
type PermissionService struct {
	workspaceRepo  repository.WorkspaceRepository
	challengeRepo  repository.ChallengeRepository
	membershipRepo repository.MembershipRepository
	assignmentRepo repository.AssignmentRepository
	enrollmentRepo repository.EnrollmentRepository
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(
	workspaceRepo repository.WorkspaceRepository,
	challengeRepo repository.ChallengeRepository,
	membershipRepo repository.MembershipRepository,
	assignmentRepo repository.AssignmentRepository,
	enrollmentRepo repository.EnrollmentRepository,
) *PermissionService {
	return &PermissionService{
		workspaceRepo:  workspaceRepo,
		challengeRepo:  challengeRepo,
		membershipRepo: membershipRepo,
		assignmentRepo: assignmentRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

// ResolveForChallenge composes effective permissions for userID on the given
// challenge. A missing membership is rejected here with FORBIDDEN; the
// composer itself never sees a user without one.
func (s *PermissionService) ResolveForChallenge(ctx context.Context, userID, challengeID uint) (authz.EffectivePermissions, error) {
	var perms authz.EffectivePermissions

	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return perms, models.NewNotFoundError("Challenge", challengeID)
		}
		return perms, models.NewInternalError(err)
	}

	workspace, err := s.workspaceRepo.GetByID(ctx, challenge.WorkspaceID)
	if err != nil {
		return perms, models.NewInternalError(err)
	}

	membership, err := s.membershipRepo.Get(ctx, challenge.WorkspaceID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return perms, models.NewForbiddenError("you are not a member of this workspace")
		}
		return perms, models.NewInternalError(err)
	}

	assignment, err := s.assignmentRepo.GetByChallengeAndManager(ctx, challengeID, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return perms, models.NewInternalError(err)
		}
		assignment = nil
	}

	enrollment, err := s.enrollmentRepo.GetByUserAndChallenge(ctx, userID, challengeID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return perms, models.NewInternalError(err)
		}
		enrollment = nil
	}

	allowSelfEnroll := workspace.AllowSelfEnrollment && challenge.AllowSelfEnrollment &&
		challenge.Status == models.ChallengeStatusActive

	return authz.Resolve(*membership, assignment, enrollment, allowSelfEnroll), nil
}
