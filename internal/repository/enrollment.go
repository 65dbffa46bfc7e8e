package repository

import (
	"context"
	"time"

	"questhub/internal/models"

	"gorm.io/gorm"
)

// EnrollmentRepository defines interface for challenge enrollment operations
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByUserAndChallenge(ctx context.Context, userID, challengeID uint) (*models.Enrollment, error)
	ListByChallenge(ctx context.Context, challengeID uint) ([]*models.Enrollment, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Enrollment, error)
	UpdateStatus(ctx context.Context, id uint, status models.EnrollmentStatus) error
	Delete(ctx context.Context, id uint) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepository) GetByUserAndChallenge(ctx context.Context, userID, challengeID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) ListByChallenge(ctx context.Context, challengeID uint) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("challenge_id = ?", challengeID).
		Order("created_at asc").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Challenge").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id uint, status models.EnrollmentStatus) error {
	updates := map[string]interface{}{"status": status}
	if status == models.EnrollmentStatusEnrolled {
		now := time.Now()
		updates["enrolled_at"] = &now
	}
	result := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *enrollmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Enrollment{}, id).Error
}
