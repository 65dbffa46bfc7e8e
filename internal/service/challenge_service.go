package service

import (
	"context"
	"errors"
	"time"

	"questhub/internal/models"
	"questhub/internal/repository"

	"gorm.io/gorm"
)

// ChallengeService manages challenges and their activity templates.
type ChallengeService struct {
	challengeRepo  repository.ChallengeRepository
	activityRepo   repository.ActivityRepository
	membershipRepo repository.MembershipRepository
}

// CreateChallengeInput carries the fields for a new challenge.
type CreateChallengeInput struct {
	CreatorID           uint
	WorkspaceID         uint
	Name                string
	Description         string
	AllowSelfEnrollment bool
	StartsAt            *time.Time
	EndsAt              *time.Time
}

// CreateActivityInput carries the fields for a new activity template.
type CreateActivityInput struct {
	CreatorID    uint
	ChallengeID  uint
	Name         string
	Description  string
	RewardType   models.RewardType
	BasePoints   int64
	RewardAmount int64
	SKUID        *string
	SKUValue     int64
}

// NewChallengeService creates a new ChallengeService
func NewChallengeService(
	challengeRepo repository.ChallengeRepository,
	activityRepo repository.ActivityRepository,
	membershipRepo repository.MembershipRepository,
) *ChallengeService {
	return &ChallengeService{
		challengeRepo:  challengeRepo,
		activityRepo:   activityRepo,
		membershipRepo: membershipRepo,
	}
}

func (s *ChallengeService) requireAdmin(ctx context.Context, workspaceID, userID uint) error {
	membership, err := s.membershipRepo.Get(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewForbiddenError("you are not a member of this workspace")
		}
		return models.NewInternalError(err)
	}
	if membership.Role != models.MembershipRoleAdmin {
		return models.NewForbiddenError("only workspace admins can do this")
	}
	return nil
}

// Create makes a draft challenge; admin only.
func (s *ChallengeService) Create(ctx context.Context, in CreateChallengeInput) (*models.Challenge, error) {
	if err := s.requireAdmin(ctx, in.WorkspaceID, in.CreatorID); err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, models.NewValidationError("challenge name is required")
	}
	if in.StartsAt != nil && in.EndsAt != nil && in.EndsAt.Before(*in.StartsAt) {
		return nil, models.NewValidationError("challenge cannot end before it starts")
	}

	challenge := &models.Challenge{
		WorkspaceID:         in.WorkspaceID,
		Name:                in.Name,
		Description:         in.Description,
		Status:              models.ChallengeStatusDraft,
		AllowSelfEnrollment: in.AllowSelfEnrollment,
		StartsAt:            in.StartsAt,
		EndsAt:              in.EndsAt,
		CreatedByUserID:     in.CreatorID,
	}
	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		return nil, models.NewInternalError(err)
	}
	return challenge, nil
}

// SetStatus moves a challenge through draft -> active -> archived.
func (s *ChallengeService) SetStatus(ctx context.Context, userID, challengeID uint, status models.ChallengeStatus) (*models.Challenge, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Challenge", challengeID)
		}
		return nil, models.NewInternalError(err)
	}
	if err := s.requireAdmin(ctx, challenge.WorkspaceID, userID); err != nil {
		return nil, err
	}

	switch status {
	case models.ChallengeStatusDraft, models.ChallengeStatusActive, models.ChallengeStatusArchived:
	default:
		return nil, models.NewValidationError("unknown challenge status")
	}
	if challenge.Status == models.ChallengeStatusArchived && status != models.ChallengeStatusArchived {
		return nil, models.NewConflictError("archived challenges cannot be reopened")
	}

	challenge.Status = status
	if err := s.challengeRepo.Update(ctx, challenge); err != nil {
		return nil, models.NewInternalError(err)
	}
	return challenge, nil
}

// List returns a workspace's challenges for any member.
func (s *ChallengeService) List(ctx context.Context, userID, workspaceID uint) ([]*models.Challenge, error) {
	if _, err := s.membershipRepo.Get(ctx, workspaceID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewForbiddenError("you are not a member of this workspace")
		}
		return nil, models.NewInternalError(err)
	}
	return s.challengeRepo.ListByWorkspace(ctx, workspaceID)
}

// CreateActivity adds an activity template to a challenge; admin only.
func (s *ChallengeService) CreateActivity(ctx context.Context, in CreateActivityInput) (*models.Activity, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, in.ChallengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Challenge", in.ChallengeID)
		}
		return nil, models.NewInternalError(err)
	}
	if err := s.requireAdmin(ctx, challenge.WorkspaceID, in.CreatorID); err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, models.NewValidationError("activity name is required")
	}

	switch in.RewardType {
	case models.RewardTypePoints:
		if in.BasePoints <= 0 {
			return nil, models.NewValidationError("points rewards require positive base_points")
		}
	case models.RewardTypeMonetary:
		if in.RewardAmount <= 0 {
			return nil, models.NewValidationError("monetary rewards require a positive reward_amount")
		}
	case models.RewardTypeSKU:
		if in.SKUID == nil || *in.SKUID == "" {
			return nil, models.NewValidationError("sku rewards require a sku_id")
		}
	default:
		return nil, models.NewValidationError("unknown reward type")
	}

	activity := &models.Activity{
		ChallengeID:  challenge.ID,
		WorkspaceID:  challenge.WorkspaceID,
		Name:         in.Name,
		Description:  in.Description,
		RewardType:   in.RewardType,
		BasePoints:   in.BasePoints,
		RewardAmount: in.RewardAmount,
		SKUID:        in.SKUID,
		SKUValue:     in.SKUValue,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, models.NewInternalError(err)
	}
	return activity, nil
}

// ListActivities returns a challenge's activity templates for any member.
func (s *ChallengeService) ListActivities(ctx context.Context, userID, challengeID uint) ([]*models.Activity, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Challenge", challengeID)
		}
		return nil, models.NewInternalError(err)
	}
	if _, err := s.membershipRepo.Get(ctx, challenge.WorkspaceID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewForbiddenError("you are not a member of this workspace")
		}
		return nil, models.NewInternalError(err)
	}
	return s.activityRepo.ListByChallenge(ctx, challengeID)
}
