package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"questhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db *gorm.DB
	r  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	return &Factory{db: db, r: rand.New(rand.NewSource(seed))}
}

// CreateUsers persists n users with unique usernames and a shared demo
// password.
func (f *Factory) CreateUsers(n int) ([]*models.User, error) {
	hashed, err := hashDemoPassword()
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		username := fmt.Sprintf("%s_%s%d", strings.ToLower(gofakeit.FirstName()), strings.ToLower(gofakeit.LastName()), i)
		users = append(users, &models.User{
			Username: username,
			Email:    fmt.Sprintf("%s@example.com", username),
			Password: hashed,
		})
	}
	if err := f.db.Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CreateWorkspace persists a workspace owned by admin, with the owner
// membership.
func (f *Factory) CreateWorkspace(admin *models.User) (*models.Workspace, error) {
	slug := fmt.Sprintf("%s-%d", strings.ToLower(gofakeit.Color()), f.r.Intn(1000))
	if len(slug) > 24 {
		slug = slug[:24]
	}
	workspace := &models.Workspace{
		Name:                gofakeit.Company(),
		Slug:                slug,
		Status:              models.WorkspaceStatusActive,
		AllowSelfEnrollment: true,
		CreatedByUserID:     &admin.ID,
	}
	if err := f.db.Create(workspace).Error; err != nil {
		return nil, err
	}

	membership := &models.Membership{
		WorkspaceID: workspace.ID,
		UserID:      admin.ID,
		Role:        models.MembershipRoleAdmin,
		IsOwner:     true,
		IsPrimary:   true,
	}
	if err := f.db.Create(membership).Error; err != nil {
		return nil, err
	}
	return workspace, nil
}

// AddMember persists a membership with the given role.
func (f *Factory) AddMember(workspace *models.Workspace, user *models.User, role models.MembershipRole) error {
	return f.db.Create(&models.Membership{
		WorkspaceID: workspace.ID,
		UserID:      user.ID,
		Role:        role,
	}).Error
}

// CreateChallenge persists an active challenge in the workspace.
func (f *Factory) CreateChallenge(workspace *models.Workspace, creator *models.User) (*models.Challenge, error) {
	startsAt := spreadCreatedAt(f.r, 30)
	endsAt := startsAt.Add(60 * 24 * time.Hour)
	challenge := &models.Challenge{
		WorkspaceID:         workspace.ID,
		Name:                fmt.Sprintf("%s %s Challenge", gofakeit.HackerAdjective(), gofakeit.HackerNoun()),
		Description:         gofakeit.Sentence(12),
		Status:              models.ChallengeStatusActive,
		AllowSelfEnrollment: true,
		StartsAt:            &startsAt,
		EndsAt:              &endsAt,
		CreatedByUserID:     creator.ID,
	}
	if err := f.db.Create(challenge).Error; err != nil {
		return nil, err
	}
	return challenge, nil
}

// CreateActivities persists n activities cycling through the reward types.
func (f *Factory) CreateActivities(challenge *models.Challenge, n int) ([]*models.Activity, error) {
	activities := make([]*models.Activity, 0, n)
	for i := 0; i < n; i++ {
		activity := &models.Activity{
			ChallengeID: challenge.ID,
			WorkspaceID: challenge.WorkspaceID,
			Name:        fmt.Sprintf("%s %s", gofakeit.Verb(), gofakeit.HackerNoun()),
			Description: gofakeit.Sentence(8),
		}
		switch i % 3 {
		case 0:
			activity.RewardType = models.RewardTypePoints
			activity.BasePoints = int64(50 * (f.r.Intn(4) + 1))
		case 1:
			activity.RewardType = models.RewardTypeMonetary
			activity.RewardAmount = int64(500 * (f.r.Intn(10) + 1))
		default:
			sku := fmt.Sprintf("SKU-%d", 100+f.r.Intn(900))
			activity.RewardType = models.RewardTypeSKU
			activity.SKUID = &sku
			activity.SKUValue = int64(1000 * (f.r.Intn(5) + 1))
		}
		activities = append(activities, activity)
	}
	if err := f.db.Create(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// PopulateSubmissions enrolls members and spreads their submissions across
// the review states; approved ones get a ledger entry, some already issued.
func (f *Factory) PopulateSubmissions(challenge *models.Challenge, activities []*models.Activity, members []*models.User, reviewer *models.User) error {
	statuses := []models.SubmissionStatus{
		models.SubmissionStatusPending,
		models.SubmissionStatusManagerApproved,
		models.SubmissionStatusNeedsRevision,
		models.SubmissionStatusApproved,
		models.SubmissionStatusRejected,
	}

	for i, member := range members {
		now := time.Now()
		if err := f.db.Create(&models.Enrollment{
			UserID:      member.ID,
			ChallengeID: challenge.ID,
			WorkspaceID: challenge.WorkspaceID,
			Status:      models.EnrollmentStatusEnrolled,
			EnrolledAt:  &now,
		}).Error; err != nil {
			return err
		}

		activity := activities[i%len(activities)]
		status := statuses[i%len(statuses)]
		submission := &models.Submission{
			ActivityID:  activity.ID,
			ChallengeID: challenge.ID,
			WorkspaceID: challenge.WorkspaceID,
			UserID:      member.ID,
			Status:      status,
			Proof:       gofakeit.Sentence(10),
			CreatedAt:   spreadCreatedAt(f.r, 20),
		}
		if status != models.SubmissionStatusPending {
			reviewedAt := time.Now()
			submission.ReviewedBy = &reviewer.ID
			submission.ReviewedAt = &reviewedAt
			submission.ReviewNotes = gofakeit.Sentence(6)
		}
		if err := f.db.Create(submission).Error; err != nil {
			return err
		}

		if status == models.SubmissionStatusApproved {
			if err := f.createIssuance(submission, activity, reviewer, i%2 == 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *Factory) createIssuance(submission *models.Submission, activity *models.Activity, reviewer *models.User, issued bool) error {
	amount := activity.BasePoints
	switch activity.RewardType {
	case models.RewardTypeMonetary:
		amount = activity.RewardAmount
	case models.RewardTypeSKU:
		amount = activity.SKUValue
	}

	issuance := &models.RewardIssuance{
		SubmissionID: submission.ID,
		WorkspaceID:  submission.WorkspaceID,
		UserID:       submission.UserID,
		RewardType:   activity.RewardType,
		Amount:       amount,
		SKUID:        activity.SKUID,
		Status:       models.IssuanceStatusPending,
		IssuedBy:     reviewer.ID,
	}
	if issued {
		now := time.Now()
		txn := fmt.Sprintf("txn-%s", gofakeit.UUID()[:8])
		issuance.Status = models.IssuanceStatusIssued
		issuance.ExternalTransactionID = &txn
		issuance.IssuedAt = &now
	}
	if err := f.db.Create(issuance).Error; err != nil {
		return err
	}
	return f.db.Model(&models.Submission{}).Where("id = ?", submission.ID).
		Update("reward_issuance_id", issuance.ID).Error
}
