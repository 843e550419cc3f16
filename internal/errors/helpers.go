package errors

import (
	"fmt"
)

// Common error creators for frequent use cases

// NewConfigError creates a configuration error
func NewConfigError(key, message string) *AppError {
	return New(ErrCodeMissingConfig, message).
		WithContext("config_key", key).
		WithUserMessage("Configuration error")
}

// NewDatabaseError creates a store error with operation context
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseQuery, fmt.Sprintf("database %s failed", operation)).
		WithContext("operation", operation).
		WithUserMessage("Database operation failed")
}

// NewUniqueViolationError tags a store insert that lost a race against a
// concurrent writer creating the same row.
func NewUniqueViolationError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeUniqueViolation, fmt.Sprintf("%s hit an existing row", operation)).
		WithContext("operation", operation)
}

// NewConstraintError tags a foreign key or check constraint failure.
func NewConstraintError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeConstraintViolation, fmt.Sprintf("%s violated a constraint", operation)).
		WithContext("operation", operation)
}

// NewTwilioError creates an error for outbound Twilio API calls
func NewTwilioError(endpoint string, statusCode int, err error) *AppError {
	return Wrap(err, ErrCodeTwilioAPI, "twilio API call failed").
		WithContext("endpoint", endpoint).
		WithContext("status_code", statusCode)
}
