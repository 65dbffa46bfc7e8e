package service

import (
	"context"
	"errors"

	"questhub/internal/models"
	"questhub/internal/repository"
	"questhub/internal/validation"

	"gorm.io/gorm"
)

// WorkspaceService manages tenant workspaces and their memberships.
type WorkspaceService struct {
	workspaceRepo  repository.WorkspaceRepository
	membershipRepo repository.MembershipRepository
}

// CreateWorkspaceInput carries the fields for a new workspace.
type CreateWorkspaceInput struct {
	CreatorID           uint
	Name                string
	Slug                string
	AllowSelfEnrollment bool
}

// NewWorkspaceService creates a new WorkspaceService
func NewWorkspaceService(
	workspaceRepo repository.WorkspaceRepository,
	membershipRepo repository.MembershipRepository,
) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo:  workspaceRepo,
		membershipRepo: membershipRepo,
	}
}

// Create makes a workspace and an owner/admin membership for its creator.
func (s *WorkspaceService) Create(ctx context.Context, in CreateWorkspaceInput) (*models.Workspace, error) {
	if in.Name == "" {
		return nil, models.NewValidationError("workspace name is required")
	}
	if err := validation.ValidateWorkspaceSlug(in.Slug); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.workspaceRepo.GetBySlug(ctx, in.Slug); err == nil {
		return nil, models.NewConflictError("a workspace with this slug already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	workspace := &models.Workspace{
		Name:                in.Name,
		Slug:                in.Slug,
		Status:              models.WorkspaceStatusActive,
		AllowSelfEnrollment: in.AllowSelfEnrollment,
		CreatedByUserID:     &in.CreatorID,
	}
	if err := s.workspaceRepo.Create(ctx, workspace); err != nil {
		return nil, models.NewInternalError(err)
	}

	membership := &models.Membership{
		WorkspaceID: workspace.ID,
		UserID:      in.CreatorID,
		Role:        models.MembershipRoleAdmin,
		IsOwner:     true,
		IsPrimary:   true,
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, models.NewInternalError(err)
	}

	return workspace, nil
}

// ListMemberships returns the caller's memberships with their workspaces.
func (s *WorkspaceService) ListMemberships(ctx context.Context, userID uint) ([]*models.Membership, error) {
	return s.membershipRepo.ListByUser(ctx, userID)
}

// requireAdmin loads the caller's membership and checks the admin role.
func (s *WorkspaceService) requireAdmin(ctx context.Context, workspaceID, userID uint) (*models.Membership, error) {
	membership, err := s.membershipRepo.Get(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewForbiddenError("you are not a member of this workspace")
		}
		return nil, models.NewInternalError(err)
	}
	if membership.Role != models.MembershipRoleAdmin {
		return nil, models.NewForbiddenError("only workspace admins can do this")
	}
	return membership, nil
}

// AddMember creates a membership; admin only.
func (s *WorkspaceService) AddMember(ctx context.Context, adminID, workspaceID, userID uint, role models.MembershipRole) (*models.Membership, error) {
	if _, err := s.requireAdmin(ctx, workspaceID, adminID); err != nil {
		return nil, err
	}
	switch role {
	case models.MembershipRoleAdmin, models.MembershipRoleManager, models.MembershipRoleParticipant:
	default:
		return nil, models.NewValidationError("unknown membership role")
	}

	if _, err := s.membershipRepo.Get(ctx, workspaceID, userID); err == nil {
		return nil, models.NewConflictError("user is already a member of this workspace")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	membership := &models.Membership{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, models.NewInternalError(err)
	}
	return membership, nil
}

// ChangeRole updates a member's workspace-wide role; admin only. Owners
// cannot be demoted by other admins.
func (s *WorkspaceService) ChangeRole(ctx context.Context, adminID, workspaceID, userID uint, role models.MembershipRole) error {
	if _, err := s.requireAdmin(ctx, workspaceID, adminID); err != nil {
		return err
	}
	switch role {
	case models.MembershipRoleAdmin, models.MembershipRoleManager, models.MembershipRoleParticipant:
	default:
		return models.NewValidationError("unknown membership role")
	}

	target, err := s.membershipRepo.Get(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Membership", userID)
		}
		return models.NewInternalError(err)
	}
	if target.IsOwner && adminID != userID {
		return models.NewForbiddenError("the workspace owner's role cannot be changed")
	}

	return s.membershipRepo.UpdateRole(ctx, workspaceID, userID, role)
}

// RemoveMember deletes a membership; admin only. The owner cannot be removed.
func (s *WorkspaceService) RemoveMember(ctx context.Context, adminID, workspaceID, userID uint) error {
	if _, err := s.requireAdmin(ctx, workspaceID, adminID); err != nil {
		return err
	}
	target, err := s.membershipRepo.Get(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Membership", userID)
		}
		return models.NewInternalError(err)
	}
	if target.IsOwner {
		return models.NewForbiddenError("the workspace owner cannot be removed")
	}
	return s.membershipRepo.Delete(ctx, workspaceID, userID)
}

// ConfigureIntegration sets the partner webhook secret and toggle; admin
// only. An empty secret means signature verification is skipped, which is
// an explicit choice.
func (s *WorkspaceService) ConfigureIntegration(ctx context.Context, adminID, workspaceID uint, secret string, enabled bool) error {
	if _, err := s.requireAdmin(ctx, workspaceID, adminID); err != nil {
		return err
	}
	workspace, err := s.workspaceRepo.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Workspace", workspaceID)
		}
		return models.NewInternalError(err)
	}
	workspace.WebhookSecret = secret
	workspace.IntegrationEnabled = enabled
	if err := s.workspaceRepo.Update(ctx, workspace); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
