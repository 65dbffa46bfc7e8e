package service

import (
	"context"
	"errors"

	"questhub/internal/authz"
	"questhub/internal/models"
	"questhub/internal/repository"

	"gorm.io/gorm"
)

// AssignmentService manages per-challenge manager assignments; admin only.
type AssignmentService struct {
	assignmentRepo     repository.AssignmentRepository
	challengeRepo      repository.ChallengeRepository
	membershipRepo     repository.MembershipRepository
	resolvePermissions func(ctx context.Context, userID, challengeID uint) (authz.EffectivePermissions, error)
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	challengeRepo repository.ChallengeRepository,
	membershipRepo repository.MembershipRepository,
	resolvePermissions func(ctx context.Context, userID, challengeID uint) (authz.EffectivePermissions, error),
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo:     assignmentRepo,
		challengeRepo:      challengeRepo,
		membershipRepo:     membershipRepo,
		resolvePermissions: resolvePermissions,
	}
}

// Create assigns managerID as a reviewer of the challenge.
func (s *AssignmentService) Create(ctx context.Context, adminID, challengeID, managerID uint) (*models.ChallengeAssignment, error) {
	perms, err := s.resolvePermissions(ctx, adminID, challengeID)
	if err != nil {
		return nil, err
	}
	if !perms.IsAdmin {
		return nil, models.NewForbiddenError("only workspace admins can assign managers")
	}

	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if _, err := s.membershipRepo.Get(ctx, challenge.WorkspaceID, managerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewValidationError("manager is not a member of this workspace")
		}
		return nil, models.NewInternalError(err)
	}

	if _, err := s.assignmentRepo.GetByChallengeAndManager(ctx, challengeID, managerID); err == nil {
		return nil, models.NewConflictError("manager is already assigned to this challenge")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	assignment := &models.ChallengeAssignment{
		ChallengeID: challengeID,
		ManagerID:   managerID,
		WorkspaceID: challenge.WorkspaceID,
		AssignedBy:  adminID,
	}
	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, models.NewInternalError(err)
	}
	return assignment, nil
}

// List returns all manager assignments for a challenge.
func (s *AssignmentService) List(ctx context.Context, callerID, challengeID uint) ([]*models.ChallengeAssignment, error) {
	perms, err := s.resolvePermissions(ctx, callerID, challengeID)
	if err != nil {
		return nil, err
	}
	if !perms.CanManage {
		return nil, models.NewForbiddenError("only workspace admins and managers can view assignments")
	}
	return s.assignmentRepo.ListByChallenge(ctx, challengeID)
}

// Delete removes an assignment; admin only.
func (s *AssignmentService) Delete(ctx context.Context, adminID, assignmentID uint) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Assignment", assignmentID)
		}
		return models.NewInternalError(err)
	}

	perms, err := s.resolvePermissions(ctx, adminID, assignment.ChallengeID)
	if err != nil {
		return err
	}
	if !perms.IsAdmin {
		return models.NewForbiddenError("only workspace admins can remove assignments")
	}

	return s.assignmentRepo.Delete(ctx, assignmentID)
}
