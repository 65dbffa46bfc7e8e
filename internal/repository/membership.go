package repository

import (
	"context"

	"questhub/internal/models"

	"gorm.io/gorm"
)

// MembershipRepository defines interface for workspace membership operations
type MembershipRepository interface {
	Create(ctx context.Context, membership *models.Membership) error
	Get(ctx context.Context, workspaceID, userID uint) (*models.Membership, error)
	ListByWorkspace(ctx context.Context, workspaceID uint) ([]*models.Membership, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Membership, error)
	UpdateRole(ctx context.Context, workspaceID, userID uint, role models.MembershipRole) error
	Delete(ctx context.Context, workspaceID, userID uint) error
}

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *membershipRepository) Get(ctx context.Context, workspaceID, userID uint) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *membershipRepository) ListByWorkspace(ctx context.Context, workspaceID uint) ([]*models.Membership, error) {
	var memberships []*models.Membership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("workspace_id = ?", workspaceID).
		Order("created_at asc").
		Find(&memberships).Error
	return memberships, err
}

func (r *membershipRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Membership, error) {
	var memberships []*models.Membership
	err := r.db.WithContext(ctx).
		Preload("Workspace").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&memberships).Error
	return memberships, err
}

func (r *membershipRepository) UpdateRole(ctx context.Context, workspaceID, userID uint, role models.MembershipRole) error {
	result := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *membershipRepository) Delete(ctx context.Context, workspaceID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Delete(&models.Membership{}).Error
}
