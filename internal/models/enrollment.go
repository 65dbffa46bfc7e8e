package models

import "time"

// EnrollmentStatus defines a user's participation state in a challenge.
type EnrollmentStatus string

const (
	// EnrollmentStatusInvited means the user was invited but never joined.
	EnrollmentStatusInvited EnrollmentStatus = "invited"
	// EnrollmentStatusEnrolled means the user is actively participating.
	EnrollmentStatusEnrolled EnrollmentStatus = "enrolled"
	// EnrollmentStatusWithdrawn means the user participated and left.
	EnrollmentStatusWithdrawn EnrollmentStatus = "withdrawn"
	// EnrollmentStatusCompleted means the user finished the challenge.
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
)

// Enrollment records a user's participation in a challenge. Never
// hard-deleted except by explicit admin removal.
type Enrollment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;uniqueIndex:ux_enrollments_user_challenge,priority:1" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ChallengeID uint       `gorm:"not null;uniqueIndex:ux_enrollments_user_challenge,priority:2" json:"challenge_id"`
	Challenge   *Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
	WorkspaceID uint       `gorm:"not null;index" json:"workspace_id"`

	Status     EnrollmentStatus `gorm:"type:varchar(20);not null;default:'invited'" json:"status"`
	InvitedBy  *uint            `json:"invited_by,omitempty"`
	EnrolledAt *time.Time       `json:"enrolled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasParticipated reports whether the enrollment ever left the invited
// state. INVITED alone does not count as participation.
func (e Enrollment) HasParticipated() bool {
	switch e.Status {
	case EnrollmentStatusEnrolled, EnrollmentStatusWithdrawn, EnrollmentStatusCompleted:
		return true
	}
	return false
}

// IsActive reports whether the user is currently an active participant.
func (e Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusEnrolled || e.Status == EnrollmentStatusCompleted
}

// TableName specifies the table name for GORM.
func (Enrollment) TableName() string {
	return "enrollments"
}
