// Package whatsapp implements provider.Sender for the WhatsApp channel over Twilio's Content
// API.
package whatsapp

import (
	"time"

	"go.uber.org/zap"

	"github.com/convoflow/convoflow/provider/twilio"
)

// NewClient builds a provider.Sender for WhatsApp: Twilio's Content API with the "whatsapp:"
// number prefix applied to both sender and recipient.
func NewClient(accountSID, authToken string, timeout time.Duration, logger *zap.Logger) *twilio.Client {
	return twilio.NewClient(twilio.Config{
		AccountSID:     accountSID,
		AuthToken:      authToken,
		Timeout:        timeout,
		WhatsAppPrefix: true,
	}, logger)
}
