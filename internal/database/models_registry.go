package database

import "questhub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Workspace{},
		&models.Membership{},
		&models.Challenge{},
		&models.Activity{},
		&models.ChallengeAssignment{},
		&models.Enrollment{},
		&models.Submission{},
		&models.RewardIssuance{},
		&models.WebhookLog{},
		&models.IdempotencyRecord{},
	}
}
