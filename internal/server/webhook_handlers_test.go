package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"questhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// postWebhook delivers a raw partner payload with an optional signature.
func (e *testEnv) postWebhook(t *testing.T, workspaceID uint, body []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/webhooks/partner/%d", workspaceID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// approveSubmission runs one submission through approval so a pending ledger
// entry exists for webhook transitions.
func (e *testEnv) approveSubmission(t *testing.T) *models.RewardIssuance {
	t.Helper()
	submission := e.createSubmission(t)
	resp := e.request(t, http.MethodPost,
		"/api/submissions/"+itoa(submission.ID)+"/review",
		e.tokenFor(t, e.manager),
		map[string]string{"action": "approve"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var issuance models.RewardIssuance
	require.NoError(t, e.db.Where("submission_id = ?", submission.ID).First(&issuance).Error)
	return &issuance
}

func TestPartnerWebhookTransactionCompleted(t *testing.T) {
	env := newTestEnv(t)
	issuance := env.approveSubmission(t)

	body, _ := json.Marshal(map[string]any{
		"id":   "evt-1",
		"type": "transaction.completed",
		"data": map[string]any{
			"issuance_id":             issuance.ID,
			"external_transaction_id": "txn-abc",
		},
	})
	resp := env.postWebhook(t, env.workspace.ID, body, signBody(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.RewardIssuance
	require.NoError(t, env.db.First(&updated, issuance.ID).Error)
	assert.Equal(t, models.IssuanceStatusIssued, updated.Status)
	require.NotNil(t, updated.ExternalTransactionID)
	assert.Equal(t, "txn-abc", *updated.ExternalTransactionID)

	// A replay of the same event is acknowledged without reprocessing.
	var result struct {
		AlreadyProcessed bool `json:"alreadyProcessed"`
	}
	resp = env.postWebhook(t, env.workspace.ID, body, signBody(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.AlreadyProcessed)
}

func TestPartnerWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	issuance := env.approveSubmission(t)

	body, _ := json.Marshal(map[string]any{
		"id":   "evt-sig",
		"type": "transaction.completed",
		"data": map[string]any{"issuance_id": issuance.ID},
	})

	// Missing signature.
	resp := env.postWebhook(t, env.workspace.ID, body, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Signature computed over different bytes.
	other, _ := json.Marshal(map[string]any{"id": "evt-other", "type": "transaction.completed"})
	resp = env.postWebhook(t, env.workspace.ID, body, signBody(other))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The ledger entry never moved.
	var unchanged models.RewardIssuance
	require.NoError(t, env.db.First(&unchanged, issuance.ID).Error)
	assert.Equal(t, models.IssuanceStatusPending, unchanged.Status)
}

func TestPartnerWebhookDisabledIntegration(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Model(&models.Workspace{}).
		Where("id = ?", env.workspace.ID).
		Update("integration_enabled", false).Error)

	body, _ := json.Marshal(map[string]any{"id": "evt-off", "type": "transaction.completed"})
	resp := env.postWebhook(t, env.workspace.ID, body, signBody(body))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPartnerWebhookMalformedPayload(t *testing.T) {
	env := newTestEnv(t)

	body := []byte(`{"id": "evt-broken"`)
	resp := env.postWebhook(t, env.workspace.ID, body, signBody(body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPartnerWebhookUnknownCategory(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(map[string]any{"id": "evt-cat", "type": "loyalty.granted"})
	resp := env.postWebhook(t, env.workspace.ID, body, signBody(body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The delivery is still in the audit trail, marked failed.
	var logEntry models.WebhookLog
	require.NoError(t, env.db.Where("event_id = ?", "evt-cat").First(&logEntry).Error)
	assert.Equal(t, models.WebhookLogStatusFailed, logEntry.Status)
}

func TestPartnerWebhookParticipantWithdrawn(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(map[string]any{
		"id":   "evt-part",
		"type": "participant.withdrawn",
		"data": map[string]any{
			"user_id":      env.participant.ID,
			"challenge_id": env.challenge.ID,
		},
	})
	resp := env.postWebhook(t, env.workspace.ID, body, signBody(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var enrollment models.Enrollment
	require.NoError(t, env.db.
		Where("user_id = ? AND challenge_id = ?", env.participant.ID, env.challenge.ID).
		First(&enrollment).Error)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, enrollment.Status)
}

func TestPartnerWebhookUnknownWorkspace(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(map[string]any{"id": "evt-ws", "type": "transaction.completed"})
	resp := env.postWebhook(t, 4242, body, signBody(body))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
