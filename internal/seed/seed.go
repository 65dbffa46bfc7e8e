// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"questhub/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers      int
	NumWorkspaces int
	ShouldClean   bool
}

// Seed populates the database with demo data: workspaces with members,
// challenges with activities, and a spread of submissions in every review
// state including issued rewards.
func Seed(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 20
	}
	if opts.NumWorkspaces <= 0 {
		opts.NumWorkspaces = 2
	}
	log.Printf("Seeding %d users across %d workspaces...", opts.NumUsers, opts.NumWorkspaces)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	f := NewFactory(db)

	users, err := f.CreateUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	for w := 0; w < opts.NumWorkspaces; w++ {
		admin := users[w%len(users)]
		workspace, err := f.CreateWorkspace(admin)
		if err != nil {
			return fmt.Errorf("failed to create workspace: %w", err)
		}

		members := pickMembers(users, admin, 8)
		for i, member := range members {
			role := models.MembershipRoleParticipant
			if i == 0 {
				role = models.MembershipRoleManager
			}
			if err := f.AddMember(workspace, member, role); err != nil {
				return fmt.Errorf("failed to add member: %w", err)
			}
		}

		challenge, err := f.CreateChallenge(workspace, admin)
		if err != nil {
			return fmt.Errorf("failed to create challenge: %w", err)
		}
		activities, err := f.CreateActivities(challenge, 3)
		if err != nil {
			return fmt.Errorf("failed to create activities: %w", err)
		}

		if err := f.PopulateSubmissions(challenge, activities, members, admin); err != nil {
			return fmt.Errorf("failed to populate submissions: %w", err)
		}
		log.Printf("workspace %q ready with %d members", workspace.Slug, len(members)+1)
	}

	return nil
}

func pickMembers(users []*models.User, admin *models.User, n int) []*models.User {
	out := make([]*models.User, 0, n)
	for _, u := range users {
		if u.ID == admin.ID {
			continue
		}
		out = append(out, u)
		if len(out) == n {
			break
		}
	}
	return out
}

func clearData(db *gorm.DB) error {
	tables := []string{
		"idempotency_records", "webhook_logs", "reward_issuances", "submissions",
		"enrollments", "challenge_assignments", "activities", "challenges",
		"memberships", "workspaces", "users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

// DemoPassword is the shared password for all seeded accounts.
const DemoPassword = "QuestHubDemo1!"

func hashDemoPassword() (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func spreadCreatedAt(r *rand.Rand, maxDays int) time.Time {
	daysBack := r.Intn(maxDays)
	hoursBack := r.Intn(24)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)
}
