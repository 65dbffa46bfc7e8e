package models

import "time"

// MembershipRole defines a member's workspace-wide role.
type MembershipRole string

const (
	// MembershipRoleAdmin can manage the workspace and review anything in it.
	MembershipRoleAdmin MembershipRole = "admin"
	// MembershipRoleManager can review submissions workspace-wide.
	MembershipRoleManager MembershipRole = "manager"
	// MembershipRoleParticipant is the default member role.
	MembershipRoleParticipant MembershipRole = "participant"
)

// Membership maps users to workspaces and tracks the workspace-wide role.
// One membership per (user, workspace).
type Membership struct {
	WorkspaceID uint           `gorm:"primaryKey;autoIncrement:false" json:"workspace_id"`
	Workspace   *Workspace     `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	UserID      uint           `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role        MembershipRole `gorm:"type:varchar(20);not null;default:'participant'" json:"role"`
	IsOwner     bool           `gorm:"not null;default:false" json:"is_owner"`
	IsPrimary   bool           `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Membership) TableName() string {
	return "memberships"
}
