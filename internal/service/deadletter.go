package service

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	apperrors "vaulthook/internal/errors"
	"vaulthook/internal/metrics"
	"vaulthook/internal/models"
)

// PlaceholderPayload is dead-lettered when a request fails before its body
// could be captured.
const PlaceholderPayload = `{"raw_body":"request body unavailable (consumed before failure)"}`

// DeadLetterStore is the subset of the database the recorder needs.
type DeadLetterStore interface {
	InsertDeadLetter(ctx context.Context, originalPayload, errorMessage, errorType string, dlctx models.DeadLetterContext) error
}

// DeadLetterRecorder captures failed events for later inspection. Record
// never returns an error: the recorder sits on the failure path, and a
// recorder that can itself fail would turn one lost event into an unhandled
// fault. Persistence failures are logged and counted, nothing more.
type DeadLetterRecorder struct {
	store  DeadLetterStore
	logger *logrus.Logger
}

func NewDeadLetterRecorder(store DeadLetterStore, logger *logrus.Logger) *DeadLetterRecorder {
	return &DeadLetterRecorder{store: store, logger: logger}
}

// Record persists the failed event and reports whether the write landed.
// The cause may be any value, not just an error; panics recovered upstream
// are passed through here unchanged.
func (r *DeadLetterRecorder) Record(ctx context.Context, payload map[string]string, cause interface{}, dlctx models.DeadLetterContext) bool {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithField("panic", rec).Error("Dead letter recorder panicked")
		}
	}()

	errorMessage, errorType := normalizeCause(cause)

	originalPayload := PlaceholderPayload
	if payload != nil {
		if encoded, err := json.Marshal(payload); err == nil {
			originalPayload = string(encoded)
		}
	}

	if err := r.store.InsertDeadLetter(ctx, originalPayload, errorMessage, errorType, dlctx); err != nil {
		metrics.IncrementCounter("dlq_write_failures_total", nil, "Dead letter writes that failed")
		r.logger.WithError(err).WithFields(logrus.Fields{
			"error_type":     errorType,
			"original_error": errorMessage,
		}).Error("Failed to record dead letter, event is lost")
		return false
	}

	metrics.IncrementCounter("dlq_entries_total", map[string]string{
		"error_type": errorType,
	}, "Events routed to the dead letter queue")
	r.logger.WithFields(logrus.Fields{
		"error_type":    errorType,
		"error_message": errorMessage,
	}).Warn("Event dead-lettered")
	return true
}

// normalizeCause flattens an arbitrary failure value into a message and a
// stable type label for querying.
func normalizeCause(cause interface{}) (message, errorType string) {
	switch v := cause.(type) {
	case nil:
		return "unknown error", string(apperrors.ErrCodeUnknown)
	case error:
		return v.Error(), string(apperrors.GetCode(v))
	case string:
		return v, string(apperrors.ErrCodeUnknown)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "unserializable error value", string(apperrors.ErrCodeUnknown)
		}
		return string(encoded), string(apperrors.ErrCodeUnknown)
	}
}
