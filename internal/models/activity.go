package models

import "time"

// RewardType defines how an activity's reward is sized and fulfilled.
type RewardType string

const (
	// RewardTypePoints issues a flat point amount.
	RewardTypePoints RewardType = "points"
	// RewardTypeSKU issues a catalog product; the amount is the product value.
	RewardTypeSKU RewardType = "sku"
	// RewardTypeMonetary issues a configured monetary amount (minor units).
	RewardTypeMonetary RewardType = "monetary"
)

// Activity is a template describing one action a participant can submit
// proof for, along with its reward configuration.
type Activity struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ChallengeID uint       `gorm:"not null;index" json:"challenge_id"`
	Challenge   *Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
	WorkspaceID uint       `gorm:"not null;index" json:"workspace_id"`

	Name        string `gorm:"size:120;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	RewardType RewardType `gorm:"type:varchar(20);not null;default:'points'" json:"reward_type"`

	// BasePoints sizes a points reward.
	BasePoints int64 `gorm:"not null;default:0" json:"base_points"`
	// RewardAmount sizes a monetary reward, in minor currency units.
	RewardAmount int64 `gorm:"not null;default:0" json:"reward_amount"`
	// SKUID and SKUValue size a sku reward. SKUValue is the cached partner
	// catalog value; zero means it must be fetched from the partner.
	SKUID    *string `gorm:"size:64" json:"sku_id,omitempty"`
	SKUValue int64   `gorm:"not null;default:0" json:"sku_value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Activity) TableName() string {
	return "activities"
}
