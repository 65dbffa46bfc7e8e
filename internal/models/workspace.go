package models

import "time"

// WorkspaceStatus defines the lifecycle state of a workspace.
type WorkspaceStatus string

const (
	// WorkspaceStatusActive indicates a workspace is usable.
	WorkspaceStatusActive WorkspaceStatus = "active"
	// WorkspaceStatusSuspended indicates a workspace is disabled.
	WorkspaceStatusSuspended WorkspaceStatus = "suspended"
)

// Workspace is a tenant boundary. All roles, challenges, and rewards are
// scoped to exactly one workspace.
type Workspace struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:120;not null" json:"name"`
	Slug string `gorm:"size:24;not null;uniqueIndex" json:"slug"`

	Status WorkspaceStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	// AllowSelfEnrollment is the workspace-wide default; a challenge can
	// restrict it further but never widen it.
	AllowSelfEnrollment bool `gorm:"not null;default:true" json:"allow_self_enrollment"`

	// WebhookSecret is the shared secret for partner callback signatures.
	// Empty means signature verification is skipped for this workspace.
	WebhookSecret string `gorm:"size:255" json:"-"`

	// IntegrationEnabled gates the webhook ingestion endpoint.
	IntegrationEnabled bool `gorm:"not null;default:false" json:"integration_enabled"`

	CreatedByUserID *uint     `json:"created_by_user_id"`
	CreatedByUser   *User     `gorm:"foreignKey:CreatedByUserID" json:"created_by_user,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Workspace) TableName() string {
	return "workspaces"
}
