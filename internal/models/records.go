package models

import "time"

// JobStatus enumerates the lifecycle states of a job. This service only ever
// writes JobStatusPending; the remaining states belong to downstream workers.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// User is a sender identity record. The phone number is the primary key;
// FirstName is frozen at first contact and never refreshed.
type User struct {
	PhoneNumber string
	FirstName   string
	CreatedAt   time.Time
}

// Job is one admitted inbound event awaiting downstream processing.
type Job struct {
	ID              int64
	SourceChannelID string
	SourceType      ConversationKind
	UserID          string
	Payload         string
	Status          JobStatus
	CreatedAt       time.Time
}

// DeadLetterEntry captures a failed admission attempt for offline inspection.
// Context fields are optional because some failures occur before the event is
// classified.
type DeadLetterEntry struct {
	ID              int64
	OriginalPayload string
	ErrorMessage    string
	ErrorType       string
	UserPhone       *string
	SourceType      *string
	SourceChannelID *string
	CreatedAt       time.Time
}

// DeadLetterContext carries whatever admission context is known at the point
// of failure. Each field is independently optional.
type DeadLetterContext struct {
	UserPhone       string
	SourceType      string
	SourceChannelID string
}
