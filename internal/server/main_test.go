package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"questhub/internal/config"
	"questhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testWebhookSecret = "test-webhook-secret"

// testEnv bundles a server over in-memory sqlite with a routed fiber app.
type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB

	admin       *models.User
	manager     *models.User
	participant *models.User
	outsider    *models.User

	workspace *models.Workspace
	challenge *models.Challenge
	activity  *models.Activity
}

// newTestEnv builds a server with a seeded workspace: an admin owner, an
// assigned manager, an enrolled participant with one pending submission, and
// an outsider with no membership.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Workspace{}, &models.Membership{},
		&models.Challenge{}, &models.Activity{}, &models.ChallengeAssignment{},
		&models.Enrollment{}, &models.Submission{}, &models.RewardIssuance{},
		&models.WebhookLog{}, &models.IdempotencyRecord{},
	))

	cfg := &config.Config{
		JWTSecret:                "test-secret-key-12345678901234567890123456789012",
		Env:                      "test",
		WebhookRateLimit:         100,
		WebhookRateWindowSeconds: 60,
	}

	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	srv.SetupRoutes(app)

	env := &testEnv{server: srv, app: app, db: db}
	env.seed(t)
	return env
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("Password1!"), bcrypt.MinCost)
	require.NoError(t, err)

	mkUser := func(name string) *models.User {
		u := &models.User{Username: name, Email: name + "@example.com", Password: string(hashed)}
		require.NoError(t, e.db.Create(u).Error)
		return u
	}
	e.admin = mkUser("admin")
	e.manager = mkUser("manager")
	e.participant = mkUser("participant")
	e.outsider = mkUser("outsider")

	e.workspace = &models.Workspace{
		Name:                "Test Workspace",
		Slug:                "test-workspace",
		Status:              models.WorkspaceStatusActive,
		AllowSelfEnrollment: true,
		IntegrationEnabled:  true,
		WebhookSecret:       testWebhookSecret,
		CreatedByUserID:     &e.admin.ID,
	}
	require.NoError(t, e.db.Create(e.workspace).Error)

	memberships := []*models.Membership{
		{WorkspaceID: e.workspace.ID, UserID: e.admin.ID, Role: models.MembershipRoleAdmin, IsOwner: true, IsPrimary: true},
		{WorkspaceID: e.workspace.ID, UserID: e.manager.ID, Role: models.MembershipRoleManager},
		{WorkspaceID: e.workspace.ID, UserID: e.participant.ID, Role: models.MembershipRoleParticipant},
	}
	for _, m := range memberships {
		require.NoError(t, e.db.Create(m).Error)
	}

	e.challenge = &models.Challenge{
		WorkspaceID:         e.workspace.ID,
		Name:                "Launch Challenge",
		Status:              models.ChallengeStatusActive,
		AllowSelfEnrollment: true,
		CreatedByUserID:     e.admin.ID,
	}
	require.NoError(t, e.db.Create(e.challenge).Error)

	require.NoError(t, e.db.Create(&models.ChallengeAssignment{
		ChallengeID: e.challenge.ID,
		ManagerID:   e.manager.ID,
		WorkspaceID: e.workspace.ID,
		AssignedBy:  e.admin.ID,
	}).Error)

	e.activity = &models.Activity{
		ChallengeID: e.challenge.ID,
		WorkspaceID: e.workspace.ID,
		Name:        "Ship a feature",
		RewardType:  models.RewardTypePoints,
		BasePoints:  100,
	}
	require.NoError(t, e.db.Create(e.activity).Error)

	now := time.Now()
	require.NoError(t, e.db.Create(&models.Enrollment{
		UserID:      e.participant.ID,
		ChallengeID: e.challenge.ID,
		WorkspaceID: e.workspace.ID,
		Status:      models.EnrollmentStatusEnrolled,
		EnrolledAt:  &now,
	}).Error)
}

// createSubmission inserts a pending submission for the participant.
func (e *testEnv) createSubmission(t *testing.T) *models.Submission {
	t.Helper()
	submission := &models.Submission{
		ActivityID:  e.activity.ID,
		ChallengeID: e.challenge.ID,
		WorkspaceID: e.workspace.ID,
		UserID:      e.participant.ID,
		Status:      models.SubmissionStatusPending,
		Proof:       "https://example.com/proof",
	}
	require.NoError(t, e.db.Create(submission).Error)
	return submission
}

// itoa renders an ID for building request paths.
func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// tokenFor mints a valid JWT for the given user.
func (e *testEnv) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.server.generateToken(user.ID, user.Username)
	require.NoError(t, err)
	return token
}

// request performs one HTTP round trip through the app and decodes the JSON
// response into out when out is non-nil.
func (e *testEnv) request(t *testing.T, method, path, token string, body any, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}
