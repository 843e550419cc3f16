package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vaulthook/internal/errors"
	"vaulthook/internal/models"
)

func TestRecordPersistsEntry(t *testing.T) {
	db := setupTestDB(t)
	recorder := NewDeadLetterRecorder(db, testLogger())
	ctx := context.Background()

	payload := map[string]string{"From": "whatsapp:+15550001111", "Body": "hello"}
	cause := apperrors.NewDatabaseError("job insert", errors.New("disk full"))

	ok := recorder.Record(ctx, payload, cause, models.DeadLetterContext{
		UserPhone:       "+15550001111",
		SourceType:      "dm",
		SourceChannelID: "+15550001111",
	})
	assert.True(t, ok)

	entries, err := db.ListDeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, string(apperrors.ErrCodeDatabaseQuery), entries[0].ErrorType)
	assert.Contains(t, entries[0].ErrorMessage, "disk full")
	assert.Contains(t, entries[0].OriginalPayload, "whatsapp:+15550001111")
	require.NotNil(t, entries[0].UserPhone)
	assert.Equal(t, "+15550001111", *entries[0].UserPhone)
}

func TestRecordWithoutPayloadUsesPlaceholder(t *testing.T) {
	db := setupTestDB(t)
	recorder := NewDeadLetterRecorder(db, testLogger())
	ctx := context.Background()

	ok := recorder.Record(ctx, nil, errors.New("body never parsed"), models.DeadLetterContext{})
	assert.True(t, ok)

	entries, err := db.ListDeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, PlaceholderPayload, entries[0].OriginalPayload)
	assert.Nil(t, entries[0].UserPhone)
}

func TestRecordNormalizesArbitraryCauses(t *testing.T) {
	db := setupTestDB(t)
	recorder := NewDeadLetterRecorder(db, testLogger())
	ctx := context.Background()

	tests := []struct {
		name        string
		cause       interface{}
		wantMessage string
		wantType    string
	}{
		{"nil cause", nil, "unknown error", string(apperrors.ErrCodeUnknown)},
		{"string cause", "something broke", "something broke", string(apperrors.ErrCodeUnknown)},
		{"plain error", errors.New("boom"), "boom", string(apperrors.ErrCodeUnknown)},
		{
			"coded error",
			apperrors.New(apperrors.ErrCodeMissingConfig, "no signing secret"),
			"MISSING_CONFIG: no signing secret",
			string(apperrors.ErrCodeMissingConfig),
		},
		{"arbitrary value", map[string]int{"attempts": 3}, `{"attempts":3}`, string(apperrors.ErrCodeUnknown)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, errorType := normalizeCause(tt.cause)
			assert.Equal(t, tt.wantMessage, message)
			assert.Equal(t, tt.wantType, errorType)

			ok := recorder.Record(ctx, map[string]string{"Body": "x"}, tt.cause, models.DeadLetterContext{})
			assert.True(t, ok)
		})
	}
}

func TestRecordNeverFails(t *testing.T) {
	db := setupTestDB(t)
	recorder := NewDeadLetterRecorder(db, testLogger())

	// Sever the store; recording must degrade to a log line, not an error.
	require.NoError(t, db.Close())

	ok := recorder.Record(context.Background(), map[string]string{"Body": "x"}, errors.New("boom"), models.DeadLetterContext{})
	assert.False(t, ok)
}
