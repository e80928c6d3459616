// Package sms implements provider.Sender for the SMS channel over Twilio's Content API.
package sms

import (
	"time"

	"go.uber.org/zap"

	"github.com/convoflow/convoflow/provider/twilio"
)

// NewClient builds a provider.Sender for SMS: Twilio's Content API with plain E.164 numbers.
func NewClient(accountSID, authToken string, timeout time.Duration, logger *zap.Logger) *twilio.Client {
	return twilio.NewClient(twilio.Config{
		AccountSID: accountSID,
		AuthToken:  authToken,
		Timeout:    timeout,
	}, logger)
}
