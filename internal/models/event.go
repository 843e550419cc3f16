package models

// ConversationKind classifies where an inbound message originated.
type ConversationKind string

const (
	ConversationDM    ConversationKind = "dm"
	ConversationGroup ConversationKind = "group"
)

// InboundEvent is the normalized form of a webhook callback. It is built once
// per request and carried through the whole invocation so every failure path
// has the full context available for dead-lettering.
type InboundEvent struct {
	// Sender is the From field with the platform channel prefix stripped.
	Sender string
	// Recipient is the To field, unprocessed.
	Recipient string
	// RawFrom is the From field exactly as received.
	RawFrom string
	Body    string
	// MessageSID is the platform message identifier.
	MessageSID string
	// ProfileName is the sender's profile name, may be empty.
	ProfileName string
	Kind        ConversationKind
	// ConversationID is the chat identifier: the group id for group messages,
	// the sender phone number for direct messages.
	ConversationID string
	// Tagged is true when the message addresses the bot directly.
	Tagged bool
	// Payload holds every form field as received, for job persistence and
	// dead-letter capture.
	Payload map[string]string
}

// ShouldIgnore implements the privacy gate: untagged group traffic is dropped
// without any further processing. Group conversations are third-party shared
// spaces; unaddressed messages there must not reach the pipeline.
func (e *InboundEvent) ShouldIgnore() bool {
	return e.Kind == ConversationGroup && !e.Tagged
}
