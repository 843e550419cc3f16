package service

import (
	"strings"

	"vaulthook/internal/constants"
	"vaulthook/internal/models"
)

// Classify normalizes decoded webhook form fields into an InboundEvent.
// It is a pure transformation with no failure modes: missing fields default
// to empty strings, and ambiguous conversation signals default to a direct
// message, which is the privacy-safe choice (a misclassified group message
// would be gated; a misclassified DM would leak group traffic).
func Classify(fields map[string]string, mentionToken string) *models.InboundEvent {
	from := fields["From"]
	sender := strings.TrimPrefix(from, constants.WhatsAppSenderPrefix)

	kind := models.ConversationDM
	groupSID := fields["GroupSid"]
	if groupSID != "" || strings.Contains(from, constants.GroupAddressSuffix) {
		kind = models.ConversationGroup
	}

	conversationID := sender
	if kind == models.ConversationGroup && groupSID != "" {
		conversationID = groupSID
	}

	tagged := fields["ReferralNumMedia"] == "1"
	if !tagged && mentionToken != "" {
		tagged = strings.Contains(fields["Body"], mentionToken)
	}

	payload := make(map[string]string, len(fields))
	for k, v := range fields {
		payload[k] = v
	}

	return &models.InboundEvent{
		Sender:         sender,
		Recipient:      fields["To"],
		RawFrom:        from,
		Body:           fields["Body"],
		MessageSID:     fields["MessageSid"],
		ProfileName:    fields["ProfileName"],
		Kind:           kind,
		ConversationID: conversationID,
		Tagged:         tagged,
		Payload:        payload,
	}
}
