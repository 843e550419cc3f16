package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	apperrors "vaulthook/internal/errors"
	"vaulthook/internal/metrics"
	"vaulthook/internal/models"
	"vaulthook/internal/privacy"
)

// UserStore is the subset of the database the resolver needs.
type UserStore interface {
	GetUser(ctx context.Context, phoneNumber string) (*models.User, error)
	CreateUser(ctx context.Context, phoneNumber, firstName string) error
}

// UserResolver maps a sender phone number to a user record, creating the
// record on first contact. Resolution is idempotent under concurrency: two
// racing first-contact requests both succeed, because a unique constraint
// violation on create means the other writer already did the work.
type UserResolver struct {
	store  UserStore
	logger *logrus.Logger
}

func NewUserResolver(store UserStore, logger *logrus.Logger) *UserResolver {
	return &UserResolver{store: store, logger: logger}
}

// Resolve returns the user id (the phone number) for the sender, creating
// the user if they have never been seen before.
func (r *UserResolver) Resolve(ctx context.Context, phoneNumber, profileName string) (string, error) {
	if phoneNumber == "" {
		return "", fmt.Errorf("cannot resolve user: empty sender phone number")
	}

	user, err := r.store.GetUser(ctx, phoneNumber)
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user != nil {
		return user.PhoneNumber, nil
	}

	firstName := profileName
	if firstName == "" {
		firstName = "Unknown"
	}

	if err := r.store.CreateUser(ctx, phoneNumber, firstName); err != nil {
		// A unique violation means a concurrent request created the user
		// between our read and write. That is a success, not a failure.
		if apperrors.IsCode(err, apperrors.ErrCodeUniqueViolation) {
			r.logger.WithFields(logrus.Fields{
				"user_phone": privacy.MaskPhoneNumber(phoneNumber),
			}).Debug("User already created by concurrent request")
			return phoneNumber, nil
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	metrics.IncrementCounter("users_created_total", nil, "Users created on first contact")
	r.logger.WithFields(logrus.Fields{
		"user_phone": privacy.MaskPhoneNumber(phoneNumber),
	}).Info("Created user on first contact")

	return phoneNumber, nil
}
