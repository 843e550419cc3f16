package database

import (
	"context"
	"fmt"

	apperrors "vaulthook/internal/errors"
	"vaulthook/internal/models"
)

// InsertDeadLetter persists a failed admission attempt. Context fields are
// nullable; failures before classification insert NULLs.
func (d *Database) InsertDeadLetter(ctx context.Context, originalPayload, errorMessage, errorType string, dlctx models.DeadLetterContext) error {
	encryptedPayload, err := d.encryptor.EncryptIfEnabled(originalPayload)
	if err != nil {
		return fmt.Errorf("failed to encrypt payload: %w", err)
	}

	var userPhone, sourceType, sourceChannelID interface{}
	if dlctx.UserPhone != "" {
		userPhone, err = d.encryptor.EncryptIfEnabled(dlctx.UserPhone)
		if err != nil {
			return fmt.Errorf("failed to encrypt user phone: %w", err)
		}
	}
	if dlctx.SourceType != "" {
		sourceType = dlctx.SourceType
	}
	if dlctx.SourceChannelID != "" {
		sourceChannelID, err = d.encryptor.EncryptIfEnabled(dlctx.SourceChannelID)
		if err != nil {
			return fmt.Errorf("failed to encrypt channel ID: %w", err)
		}
	}

	query := `
		INSERT INTO dlq_jobs (original_payload, error_message, error_type, user_phone, source_type, source_channel_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = d.db.ExecContext(ctx, query,
		encryptedPayload,
		errorMessage,
		errorType,
		userPhone,
		sourceType,
		sourceChannelID,
	)
	if err != nil {
		return apperrors.NewDatabaseError("dead-letter insert", err)
	}

	return nil
}

// CountDeadLetters returns the number of dead-letter entries, for tests and
// health inspection.
func (d *Database) CountDeadLetters(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dlq_jobs`).Scan(&count); err != nil {
		return 0, apperrors.NewDatabaseError("dead-letter count", err)
	}
	return count, nil
}

// ListDeadLetters returns the most recent dead-letter entries, newest first.
func (d *Database) ListDeadLetters(ctx context.Context, limit int) ([]models.DeadLetterEntry, error) {
	query := `
		SELECT id, original_payload, error_message, error_type, user_phone, source_type, source_channel_id, created_at
		FROM dlq_jobs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("dead-letter list", err)
	}
	defer rows.Close()

	var entries []models.DeadLetterEntry
	for rows.Next() {
		var entry models.DeadLetterEntry
		var encryptedPayload string
		var userPhone, sourceType, sourceChannelID *string

		if err := rows.Scan(
			&entry.ID,
			&encryptedPayload,
			&entry.ErrorMessage,
			&entry.ErrorType,
			&userPhone,
			&sourceType,
			&sourceChannelID,
			&entry.CreatedAt,
		); err != nil {
			return nil, apperrors.NewDatabaseError("dead-letter scan", err)
		}

		entry.OriginalPayload, err = d.encryptor.DecryptIfEnabled(encryptedPayload)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt payload: %w", err)
		}
		if userPhone != nil {
			decrypted, err := d.encryptor.DecryptIfEnabled(*userPhone)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt user phone: %w", err)
			}
			entry.UserPhone = &decrypted
		}
		entry.SourceType = sourceType
		if sourceChannelID != nil {
			decrypted, err := d.encryptor.DecryptIfEnabled(*sourceChannelID)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt channel ID: %w", err)
			}
			entry.SourceChannelID = &decrypted
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("dead-letter iteration", err)
	}

	return entries, nil
}
