package models

import "time"

// WebhookLogStatus defines the processing outcome recorded for a delivery.
type WebhookLogStatus string

const (
	// WebhookLogStatusReceived means the delivery was accepted but not yet handled.
	WebhookLogStatusReceived WebhookLogStatus = "received"
	// WebhookLogStatusProcessed means the handler ran to completion.
	WebhookLogStatusProcessed WebhookLogStatus = "processed"
	// WebhookLogStatusFailed means the handler returned an error.
	WebhookLogStatusFailed WebhookLogStatus = "failed"
)

// WebhookLog is an audit record of one partner webhook delivery. Every
// delivery that passes signature verification is logged, including
// duplicates and failures.
type WebhookLog struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	WorkspaceID uint   `gorm:"not null;index" json:"workspace_id"`
	EventID     string `gorm:"size:128;not null;index" json:"event_id"`
	EventType   string `gorm:"size:64;not null" json:"event_type"`

	Status WebhookLogStatus `gorm:"type:varchar(20);not null;default:'received'" json:"status"`
	Error  string           `gorm:"type:text" json:"error,omitempty"`

	// Payload is the raw request body, kept for replay and debugging.
	Payload string `gorm:"type:text" json:"payload,omitempty"`

	ReceivedAt  time.Time  `gorm:"not null" json:"received_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// TableName specifies the table name for GORM.
func (WebhookLog) TableName() string {
	return "webhook_logs"
}

// IdempotencyRecord marks a webhook event as fully processed. The unique
// index on (event_id, workspace_id) makes duplicate suppression a single
// indexed lookup, and scoping by workspace keeps partners with colliding
// event ID schemes isolated.
type IdempotencyRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventID     string    `gorm:"size:128;not null;uniqueIndex:ux_idempotency_event_workspace,priority:1" json:"event_id"`
	WorkspaceID uint      `gorm:"not null;uniqueIndex:ux_idempotency_event_workspace,priority:2" json:"workspace_id"`
	ProcessedAt time.Time `gorm:"not null" json:"processed_at"`
}

// TableName specifies the table name for GORM.
func (IdempotencyRecord) TableName() string {
	return "idempotency_records"
}
