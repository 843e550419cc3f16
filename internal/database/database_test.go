package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vaulthook/internal/errors"
	"vaulthook/internal/models"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		dbPath  func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "valid path",
			dbPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "test.db")
			},
		},
		{
			name: "empty path",
			dbPath: func(t *testing.T) string {
				return ""
			},
			wantErr: true,
		},
		{
			name: "directory traversal",
			dbPath: func(t *testing.T) string {
				return "../../../etc/passwd"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(tt.dbPath(t))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, db.Ping(context.Background()))
			assert.NoError(t, db.Close())
		})
	}
}

func TestGetUserNotFound(t *testing.T) {
	db := setupTestDB(t)

	user, err := db.GetUser(context.Background(), "+15550001111")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestCreateAndGetUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := db.CreateUser(ctx, "+15550001111", "Ada")
	require.NoError(t, err)

	user, err := db.GetUser(ctx, "+15550001111")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "+15550001111", user.PhoneNumber)
	assert.Equal(t, "Ada", user.FirstName)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestCreateUserDuplicate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, "+15550001111", "Ada"))

	err := db.CreateUser(ctx, "+15550001111", "Ada Again")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUniqueViolation))

	// The original record is untouched.
	user, err := db.GetUser(ctx, "+15550001111")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Ada", user.FirstName)
}

func TestCreateUserConcurrent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	const writers = 10
	results := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- db.CreateUser(ctx, "+15550001111", "Ada")
		}()
	}
	wg.Wait()
	close(results)

	var created, lostRace int
	for err := range results {
		switch {
		case err == nil:
			created++
		case apperrors.IsCode(err, apperrors.ErrCodeUniqueViolation):
			lostRace++
		default:
			t.Fatalf("unexpected error from concurrent create: %v", err)
		}
	}

	assert.Equal(t, 1, created)
	assert.Equal(t, writers-1, lostRace)
}

func TestInsertAndGetJob(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, "+15550001111", "Ada"))

	jobID, err := db.InsertJob(ctx, "+15550001111", models.ConversationDM, "+15550001111", `{"Body":"hello"}`)
	require.NoError(t, err)
	assert.Greater(t, jobID, int64(0))

	job, err := db.GetJob(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "+15550001111", job.SourceChannelID)
	assert.Equal(t, models.ConversationDM, job.SourceType)
	assert.Equal(t, "+15550001111", job.UserID)
	assert.Equal(t, `{"Body":"hello"}`, job.Payload)
	assert.Equal(t, models.JobStatusPending, job.Status)
}

func TestGetJobNotFound(t *testing.T) {
	db := setupTestDB(t)

	job, err := db.GetJob(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestInsertJobUnknownUser(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.InsertJob(context.Background(), "+15550001111", models.ConversationDM, "+15550001111", "{}")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConstraintViolation))
}

func TestInsertJobInvalidSourceType(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, "+15550001111", "Ada"))

	_, err := db.InsertJob(ctx, "+15550001111", models.ConversationKind("broadcast"), "+15550001111", "{}")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConstraintViolation))
}

func TestCountJobs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	count, err := db.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, db.CreateUser(ctx, "+15550001111", "Ada"))
	_, err = db.InsertJob(ctx, "+15550001111", models.ConversationDM, "+15550001111", "{}")
	require.NoError(t, err)

	count, err = db.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInsertDeadLetterWithContext(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := db.InsertDeadLetter(ctx, `{"Body":"hello"}`, "job insert failed", "DATABASE_QUERY", models.DeadLetterContext{
		UserPhone:       "+15550001111",
		SourceType:      "dm",
		SourceChannelID: "+15550001111",
	})
	require.NoError(t, err)

	entries, err := db.ListDeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, `{"Body":"hello"}`, entries[0].OriginalPayload)
	assert.Equal(t, "job insert failed", entries[0].ErrorMessage)
	assert.Equal(t, "DATABASE_QUERY", entries[0].ErrorType)
	require.NotNil(t, entries[0].UserPhone)
	assert.Equal(t, "+15550001111", *entries[0].UserPhone)
	require.NotNil(t, entries[0].SourceType)
	assert.Equal(t, "dm", *entries[0].SourceType)
	require.NotNil(t, entries[0].SourceChannelID)
	assert.Equal(t, "+15550001111", *entries[0].SourceChannelID)
}

func TestInsertDeadLetterWithoutContext(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := db.InsertDeadLetter(ctx, "{}", "signing secret missing", "MISSING_CONFIG", models.DeadLetterContext{})
	require.NoError(t, err)

	entries, err := db.ListDeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].UserPhone)
	assert.Nil(t, entries[0].SourceType)
	assert.Nil(t, entries[0].SourceChannelID)

	count, err := db.CountDeadLetters(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestForeignKeysSurviveUserDeletion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, "+15550001111", "Ada"))
	_, err := db.InsertJob(ctx, "+15550001111", models.ConversationDM, "+15550001111", "{}")
	require.NoError(t, err)

	// Deleting a referenced user must fail; jobs keep their lineage.
	_, err = db.db.ExecContext(ctx, "DELETE FROM users WHERE phone_number = ?", "+15550001111")
	assert.Error(t, err)
}
