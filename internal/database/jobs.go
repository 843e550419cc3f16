package database

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "vaulthook/internal/errors"
	"vaulthook/internal/models"
)

// InsertJob persists one admitted event with status pending and returns the
// generated job id. A single attempt, no retries; the caller routes failures
// to the dead-letter recorder.
func (d *Database) InsertJob(ctx context.Context, sourceChannelID string, sourceType models.ConversationKind, userID, payload string) (int64, error) {
	encryptedChannelID, err := d.encryptor.EncryptForLookupIfEnabled(sourceChannelID)
	if err != nil {
		return 0, fmt.Errorf("failed to encrypt channel ID: %w", err)
	}

	encryptedUserID, err := d.encryptor.EncryptForLookupIfEnabled(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to encrypt user ID: %w", err)
	}

	encryptedPayload, err := d.encryptor.EncryptIfEnabled(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encrypt payload: %w", err)
	}

	query := `
		INSERT INTO jobs (source_channel_id, source_type, user_id, payload, status)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := d.db.ExecContext(ctx, query,
		encryptedChannelID,
		string(sourceType),
		encryptedUserID,
		encryptedPayload,
		string(models.JobStatusPending),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return 0, apperrors.NewConstraintError("job insert", err)
		}
		return 0, apperrors.NewDatabaseError("job insert", err)
	}

	jobID, err := result.LastInsertId()
	if err != nil {
		return 0, apperrors.NewDatabaseError("job id retrieval", err)
	}

	return jobID, nil
}

// GetJob retrieves a job by id, primarily for tests and offline inspection.
// Returns (nil, nil) when no job exists.
func (d *Database) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	query := `
		SELECT id, source_channel_id, source_type, user_id, payload, status, created_at
		FROM jobs
		WHERE id = ?
	`

	var encryptedChannelID, sourceType, encryptedUserID, encryptedPayload, status string
	job := &models.Job{}

	err := d.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&encryptedChannelID,
		&sourceType,
		&encryptedUserID,
		&encryptedPayload,
		&status,
		&job.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("job lookup", err)
	}

	job.SourceType = models.ConversationKind(sourceType)
	job.Status = models.JobStatus(status)

	// Key columns use deterministic encryption, which still decrypts with the
	// same AEAD.
	job.SourceChannelID, err = d.encryptor.DecryptIfEnabled(encryptedChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt channel ID: %w", err)
	}
	job.UserID, err = d.encryptor.DecryptIfEnabled(encryptedUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt user ID: %w", err)
	}
	job.Payload, err = d.encryptor.DecryptIfEnabled(encryptedPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt payload: %w", err)
	}

	return job, nil
}

// CountJobs returns the number of jobs in the store, for tests and metrics.
func (d *Database) CountJobs(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&count); err != nil {
		return 0, apperrors.NewDatabaseError("job count", err)
	}
	return count, nil
}
