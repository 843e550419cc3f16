package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"vaulthook/internal/metrics"
	"vaulthook/internal/models"
	"vaulthook/internal/privacy"
)

// JobStore is the subset of the database the admitter needs.
type JobStore interface {
	InsertJob(ctx context.Context, sourceChannelID string, sourceType models.ConversationKind, userID, payload string) (int64, error)
}

// JobAdmitter persists an inbound event as a pending job. Admission is a
// single attempt: if the insert fails the error propagates to the caller,
// which dead-letters the event rather than retrying.
type JobAdmitter struct {
	store  JobStore
	logger *logrus.Logger
}

func NewJobAdmitter(store JobStore, logger *logrus.Logger) *JobAdmitter {
	return &JobAdmitter{store: store, logger: logger}
}

// Admit inserts a pending job for the event and returns its id.
func (a *JobAdmitter) Admit(ctx context.Context, evt *models.InboundEvent, userID string) (int64, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode job payload: %w", err)
	}

	jobID, err := a.store.InsertJob(ctx, evt.ConversationID, evt.Kind, userID, string(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to admit job: %w", err)
	}

	metrics.IncrementCounter("jobs_admitted_total", map[string]string{
		"source_type": string(evt.Kind),
	}, "Jobs admitted to the queue")
	a.logger.WithFields(logrus.Fields{
		"job_id":            jobID,
		"source_type":       evt.Kind,
		"source_channel_id": privacy.MaskChannelID(evt.ConversationID),
	}).Info("Job admitted")

	return jobID, nil
}
