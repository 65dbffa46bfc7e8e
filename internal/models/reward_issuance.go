package models

import "time"

// IssuanceStatus defines the fulfillment state of a reward issuance.
type IssuanceStatus string

const (
	// IssuanceStatusPending means the reward is owed but unconfirmed.
	IssuanceStatusPending IssuanceStatus = "pending"
	// IssuanceStatusIssued means the partner confirmed fulfillment. Terminal.
	IssuanceStatusIssued IssuanceStatus = "issued"
	// IssuanceStatusFailed means fulfillment failed or was reversed. Terminal.
	IssuanceStatusFailed IssuanceStatus = "failed"
)

// IsTerminal reports whether the issuance status admits no further transitions.
func (s IssuanceStatus) IsTerminal() bool {
	return s == IssuanceStatusIssued || s == IssuanceStatusFailed
}

// RewardIssuance is the ledger record of one reward owed for one approved
// submission. The unique index on SubmissionID backs the at-most-one
// guarantee at the database level.
type RewardIssuance struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	SubmissionID uint        `gorm:"not null;uniqueIndex" json:"submission_id"`
	Submission   *Submission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`
	WorkspaceID  uint        `gorm:"not null;index" json:"workspace_id"`
	UserID       uint        `gorm:"not null;index" json:"user_id"`

	RewardType RewardType `gorm:"type:varchar(20);not null" json:"reward_type"`
	// Amount is points for a points reward, minor currency units for a
	// monetary reward, and the catalog value for a sku reward.
	Amount int64   `gorm:"not null" json:"amount"`
	SKUID  *string `gorm:"size:64" json:"sku_id,omitempty"`

	Status IssuanceStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// ExternalTransactionID is the partner's reference once fulfillment
	// is confirmed.
	ExternalTransactionID *string `gorm:"size:128" json:"external_transaction_id,omitempty"`
	FailureReason         string  `gorm:"type:text" json:"failure_reason,omitempty"`

	IssuedBy uint       `gorm:"not null" json:"issued_by"`
	IssuedAt *time.Time `json:"issued_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (RewardIssuance) TableName() string {
	return "reward_issuances"
}
