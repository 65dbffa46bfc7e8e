package repository

import (
	"context"
	"testing"

	"questhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepository_MarkAndCheck(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIdempotencyRepository(db)
	ctx := context.Background()

	processed, err := repo.IsProcessed(ctx, "evt1", 1)
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, repo.MarkProcessed(ctx, "evt1", 1))

	processed, err = repo.IsProcessed(ctx, "evt1", 1)
	require.NoError(t, err)
	assert.True(t, processed)

	// Same event ID in another workspace is a distinct key.
	processed, err = repo.IsProcessed(ctx, "evt1", 2)
	require.NoError(t, err)
	assert.False(t, processed)

	// A concurrent duplicate mark is not an error.
	assert.NoError(t, repo.MarkProcessed(ctx, "evt1", 1))
}

func TestWebhookLogRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWebhookLogRepository(db)
	ctx := context.Background()

	log := &models.WebhookLog{
		WorkspaceID: 1,
		EventID:     "evt1",
		EventType:   "transaction.completed",
		Status:      models.WebhookLogStatusReceived,
		Payload:     `{"id":"evt1"}`,
	}
	require.NoError(t, repo.Append(ctx, log))
	assert.False(t, log.ReceivedAt.IsZero())

	require.NoError(t, repo.MarkProcessed(ctx, log.ID))

	logs, err := repo.ListByWorkspace(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.WebhookLogStatusProcessed, logs[0].Status)
	assert.NotNil(t, logs[0].ProcessedAt)

	failed := &models.WebhookLog{WorkspaceID: 1, EventID: "evt2", EventType: "bogus.event"}
	require.NoError(t, repo.Append(ctx, failed))
	require.NoError(t, repo.MarkFailed(ctx, failed.ID, "unsupported event category"))

	logs, err = repo.ListByWorkspace(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
}
