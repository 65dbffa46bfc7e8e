package models

import "time"

// ChallengeStatus defines the lifecycle state of a challenge.
type ChallengeStatus string

const (
	// ChallengeStatusDraft indicates a challenge is being edited and is not visible.
	ChallengeStatusDraft ChallengeStatus = "draft"
	// ChallengeStatusActive indicates a challenge accepts enrollments and submissions.
	ChallengeStatusActive ChallengeStatus = "active"
	// ChallengeStatusArchived indicates a challenge is closed.
	ChallengeStatusArchived ChallengeStatus = "archived"
)

// Challenge is a time-boxed collection of activities participants can enroll
// in and complete.
type Challenge struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	WorkspaceID uint       `gorm:"not null;index" json:"workspace_id"`
	Workspace   *Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`

	Name        string          `gorm:"size:120;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Status      ChallengeStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`

	// AllowSelfEnrollment restricts the workspace default for this challenge.
	AllowSelfEnrollment bool `gorm:"not null;default:true" json:"allow_self_enrollment"`

	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`

	CreatedByUserID uint      `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Challenge) TableName() string {
	return "challenges"
}
