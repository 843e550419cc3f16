package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaulthook/internal/models"
)

func TestAdmitPersistsJob(t *testing.T) {
	db := setupTestDB(t)
	admitter := NewJobAdmitter(db, testLogger())
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, "+15550001111", "Ada"))

	evt := Classify(map[string]string{
		"From": "whatsapp:+15550001111",
		"Body": "remember the milk",
	}, "@VaultBot")

	jobID, err := admitter.Admit(ctx, evt, "+15550001111")
	require.NoError(t, err)
	assert.Greater(t, jobID, int64(0))

	job, err := db.GetJob(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, models.ConversationDM, job.SourceType)
	assert.Equal(t, "+15550001111", job.SourceChannelID)
	assert.Equal(t, "+15550001111", job.UserID)
	assert.Equal(t, models.JobStatusPending, job.Status)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(job.Payload), &payload))
	assert.Equal(t, "remember the milk", payload["Body"])
	assert.Equal(t, "whatsapp:+15550001111", payload["From"])
}

func TestAdmitGroupEvent(t *testing.T) {
	db := setupTestDB(t)
	admitter := NewJobAdmitter(db, testLogger())
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, "+15550001111", "Ada"))

	evt := Classify(map[string]string{
		"From":     "whatsapp:+15550001111",
		"GroupSid": "GR1",
		"Body":     "@VaultBot save this",
	}, "@VaultBot")

	jobID, err := admitter.Admit(ctx, evt, "+15550001111")
	require.NoError(t, err)

	job, err := db.GetJob(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, models.ConversationGroup, job.SourceType)
	assert.Equal(t, "GR1", job.SourceChannelID)
}

func TestAdmitFailsForUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	admitter := NewJobAdmitter(db, testLogger())

	evt := Classify(map[string]string{
		"From": "whatsapp:+15550001111",
		"Body": "hello",
	}, "@VaultBot")

	_, err := admitter.Admit(context.Background(), evt, "+15550001111")
	assert.Error(t, err)
}
