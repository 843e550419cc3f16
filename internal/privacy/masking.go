package privacy

import (
	"strings"
)

// MaskPhoneNumber masks a phone number showing only the last 4 digits
// Example: "+1234567890" -> "+******7890"
func MaskPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}

	if strings.HasPrefix(phone, "+") {
		if len(phone) == 1 {
			return phone
		}
		if len(phone) <= 5 {
			return "+" + strings.Repeat("*", len(phone)-1)
		}
		return "+" + strings.Repeat("*", len(phone)-5) + phone[len(phone)-4:]
	}

	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// MaskChannelID masks a conversation identifier while preserving its shape.
// WhatsApp group addresses keep their domain suffix so logs stay debuggable.
// Example: "1234567890@g.us" -> "******7890@g.us"
func MaskChannelID(channelID string) string {
	if channelID == "" {
		return ""
	}

	if idx := strings.Index(channelID, "@"); idx > 0 {
		return maskTail(channelID[:idx], 4) + channelID[idx:]
	}

	return MaskPhoneNumber(channelID)
}

// MaskSensitiveFields masks values of known sensitive keys in a log field map.
func MaskSensitiveFields(fields map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		s, ok := v.(string)
		if !ok {
			masked[k] = v
			continue
		}
		switch k {
		case "sender", "recipient", "user_phone", "from", "to":
			masked[k] = MaskPhoneNumber(s)
		case "channel_id", "conversation_id", "source_channel_id":
			masked[k] = MaskChannelID(s)
		case "body", "message_body":
			masked[k] = "[hidden]"
		default:
			masked[k] = v
		}
	}
	return masked
}

func maskTail(s string, visible int) string {
	if len(s) <= visible {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-visible) + s[len(s)-visible:]
}
