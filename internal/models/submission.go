package models

import "time"

// SubmissionStatus defines the review state of a submission.
type SubmissionStatus string

const (
	// SubmissionStatusPending awaits a reviewer decision.
	SubmissionStatusPending SubmissionStatus = "pending"
	// SubmissionStatusManagerApproved passed manager review and awaits final approval.
	SubmissionStatusManagerApproved SubmissionStatus = "manager_approved"
	// SubmissionStatusNeedsRevision was returned to the participant for rework.
	SubmissionStatusNeedsRevision SubmissionStatus = "needs_revision"
	// SubmissionStatusApproved is terminal; a reward issuance is owed.
	SubmissionStatusApproved SubmissionStatus = "approved"
	// SubmissionStatusRejected is terminal; no reward is owed.
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

// IsTerminal reports whether the status admits no further transitions.
func (s SubmissionStatus) IsTerminal() bool {
	return s == SubmissionStatusApproved || s == SubmissionStatusRejected
}

// Submission is a participant's claim of having completed an activity,
// plus the review trail attached to it.
type Submission struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ActivityID  uint       `gorm:"not null;index" json:"activity_id"`
	Activity    *Activity  `gorm:"foreignKey:ActivityID" json:"activity,omitempty"`
	ChallengeID uint       `gorm:"not null;index" json:"challenge_id"`
	WorkspaceID uint       `gorm:"not null;index" json:"workspace_id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Status SubmissionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// Proof is free-form evidence supplied by the participant.
	Proof string `gorm:"type:text" json:"proof"`

	ReviewedBy  *uint      `json:"reviewed_by,omitempty"`
	ReviewNotes string     `gorm:"type:text" json:"review_notes"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`

	// RewardIssuanceID is set once an issuance has been created for an
	// approved submission.
	RewardIssuanceID *uint `json:"reward_issuance_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Submission) TableName() string {
	return "submissions"
}
