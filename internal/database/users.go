package database

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "vaulthook/internal/errors"
	"vaulthook/internal/models"
)

// GetUser retrieves a user by phone number. Returns (nil, nil) when no user
// exists; an error only for infrastructure failures.
func (d *Database) GetUser(ctx context.Context, phoneNumber string) (*models.User, error) {
	encryptedPhone, err := d.encryptor.EncryptForLookupIfEnabled(phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt phone number: %w", err)
	}

	query := `
		SELECT phone_number, first_name, created_at
		FROM users
		WHERE phone_number = ?
	`

	var encryptedStoredPhone, encryptedFirstName string
	user := &models.User{}

	err = d.db.QueryRowContext(ctx, query, encryptedPhone).Scan(
		&encryptedStoredPhone,
		&encryptedFirstName,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("user lookup", err)
	}

	user.PhoneNumber = phoneNumber
	user.FirstName, err = d.encryptor.DecryptIfEnabled(encryptedFirstName)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt first name: %w", err)
	}

	return user, nil
}

// CreateUser inserts a new user record. A unique constraint failure is
// returned as ErrCodeUniqueViolation so the resolver can treat a lost
// first-contact race as success. The constraint is the only mutual-exclusion
// mechanism; there is deliberately no in-process locking here.
func (d *Database) CreateUser(ctx context.Context, phoneNumber, firstName string) error {
	encryptedPhone, err := d.encryptor.EncryptForLookupIfEnabled(phoneNumber)
	if err != nil {
		return fmt.Errorf("failed to encrypt phone number: %w", err)
	}

	encryptedFirstName, err := d.encryptor.EncryptIfEnabled(firstName)
	if err != nil {
		return fmt.Errorf("failed to encrypt first name: %w", err)
	}

	query := `
		INSERT INTO users (phone_number, first_name)
		VALUES (?, ?)
	`

	_, err = d.db.ExecContext(ctx, query, encryptedPhone, encryptedFirstName)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewUniqueViolationError("user creation", err)
		}
		return apperrors.NewDatabaseError("user creation", err)
	}

	return nil
}
