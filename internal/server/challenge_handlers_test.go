package server

import (
	"net/http"
	"testing"

	"questhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.tokenFor(t, env.admin)

	var created models.Challenge
	resp := env.request(t, http.MethodPost,
		"/api/workspaces/"+itoa(env.workspace.ID)+"/challenges", adminToken,
		map[string]any{"name": "Q4 Sprint", "allow_self_enrollment": true}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.ChallengeStatusDraft, created.Status)

	// Activate it.
	var activated models.Challenge
	resp = env.request(t, http.MethodPut,
		"/api/challenges/"+itoa(created.ID)+"/status", adminToken,
		map[string]any{"status": "active"}, &activated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.ChallengeStatusActive, activated.Status)

	// Archive, then reopening is refused.
	resp = env.request(t, http.MethodPut,
		"/api/challenges/"+itoa(created.ID)+"/status", adminToken,
		map[string]any{"status": "archived"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodPut,
		"/api/challenges/"+itoa(created.ID)+"/status", adminToken,
		map[string]any{"status": "active"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Managers cannot create challenges.
	resp = env.request(t, http.MethodPost,
		"/api/workspaces/"+itoa(env.workspace.ID)+"/challenges",
		env.tokenFor(t, env.manager),
		map[string]any{"name": "Nope"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateActivityValidation(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.tokenFor(t, env.admin)
	path := "/api/challenges/" + itoa(env.challenge.ID) + "/activities"

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "Points Activity",
			body: map[string]any{"name": "Write docs", "reward_type": "points", "base_points": 50},
			want: http.StatusCreated,
		},
		{
			name: "SKU Activity",
			body: map[string]any{"name": "Top seller", "reward_type": "sku", "sku_id": "SKU-100", "sku_value": 2500},
			want: http.StatusCreated,
		},
		{
			name: "Points Without Amount",
			body: map[string]any{"name": "Empty", "reward_type": "points"},
			want: http.StatusBadRequest,
		},
		{
			name: "SKU Without ID",
			body: map[string]any{"name": "No SKU", "reward_type": "sku"},
			want: http.StatusBadRequest,
		},
		{
			name: "Unknown Reward Type",
			body: map[string]any{"name": "Mystery", "reward_type": "karma", "base_points": 10},
			want: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.request(t, http.MethodPost, path, adminToken, tt.body, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestEnrollmentFlow(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/challenges/" + itoa(env.challenge.ID)

	// Add a fresh member who can self-enroll.
	resp := env.request(t, http.MethodPost,
		"/api/workspaces/"+itoa(env.workspace.ID)+"/members",
		env.tokenFor(t, env.admin),
		map[string]any{"user_id": env.outsider.ID, "role": "participant"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	token := env.tokenFor(t, env.outsider)

	var enrollment models.Enrollment
	resp = env.request(t, http.MethodPost, base+"/enroll", token, nil, &enrollment)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)

	// Withdraw, then re-enroll on the same row.
	resp = env.request(t, http.MethodPost, base+"/withdraw", token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodPost, base+"/enroll", token, nil, &enrollment)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)

	var count int64
	env.db.Model(&models.Enrollment{}).
		Where("user_id = ? AND challenge_id = ?", env.outsider.ID, env.challenge.ID).
		Count(&count)
	assert.Equal(t, int64(1), count, "re-enrollment should reuse the existing row")

	// The roster is for managing users only.
	resp = env.request(t, http.MethodGet, base+"/enrollments", token, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var roster []models.Enrollment
	resp = env.request(t, http.MethodGet, base+"/enrollments", env.tokenFor(t, env.manager), nil, &roster)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, roster, 2)
}

func TestAssignmentManagement(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/challenges/" + itoa(env.challenge.ID) + "/assignments"
	adminToken := env.tokenFor(t, env.admin)

	// Assign the participant as an additional reviewer.
	var assignment models.ChallengeAssignment
	resp := env.request(t, http.MethodPost, base, adminToken,
		map[string]any{"manager_id": env.participant.ID}, &assignment)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Duplicate assignment conflicts.
	resp = env.request(t, http.MethodPost, base, adminToken,
		map[string]any{"manager_id": env.participant.ID}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Managers cannot assign.
	resp = env.request(t, http.MethodPost, base, env.tokenFor(t, env.manager),
		map[string]any{"manager_id": env.outsider.ID}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin removes the assignment.
	resp = env.request(t, http.MethodDelete,
		"/api/assignments/"+itoa(assignment.ID), adminToken, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
