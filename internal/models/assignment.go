package models

import "time"

// ChallengeAssignment grants a user review capability over one specific
// challenge regardless of their workspace-wide role.
type ChallengeAssignment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ChallengeID uint       `gorm:"not null;uniqueIndex:ux_assignments_challenge_manager,priority:1" json:"challenge_id"`
	Challenge   *Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
	ManagerID   uint       `gorm:"not null;uniqueIndex:ux_assignments_challenge_manager,priority:2" json:"manager_id"`
	Manager     *User      `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	WorkspaceID uint       `gorm:"not null;index" json:"workspace_id"`
	AssignedBy  uint       `gorm:"not null" json:"assigned_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (ChallengeAssignment) TableName() string {
	return "challenge_assignments"
}
