package types

import "strings"

// ChannelMethod identifies the outbound channel for a conversation.
type ChannelMethod string

const (
	ChannelWhatsApp ChannelMethod = "whatsapp"
	ChannelSMS      ChannelMethod = "sms"
	ChannelEmail    ChannelMethod = "email"
)

// Valid reports whether c is one of the three supported channels.
func (c ChannelMethod) Valid() bool {
	switch c {
	case ChannelWhatsApp, ChannelSMS, ChannelEmail:
		return true
	default:
		return false
	}
}

// PrimaryChannel derives the State Store partition key for this channel: recipient telephone
// for WhatsApp/SMS, recipient email for email.
func (c ChannelMethod) PrimaryChannel(recipientTel, recipientEmail string) string {
	if c == ChannelEmail {
		return recipientEmail
	}
	return recipientTel
}

// SanitizeRecipient strips all non-alphanumeric characters from a recipient identifier, per
// the conversation_id format, e.g. "+447123456789" -> "447123456789".
func SanitizeRecipient(recipient string) string {
	var b strings.Builder
	b.Grow(len(recipient))
	for _, r := range recipient {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
