package secretstore

import (
	"context"
	"testing"

	"github.com/convoflow/convoflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_TypedAccessors(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.PutJSON("llm-ref", types.LLMSecret{AIAPIKey: "sk-test"}))
	require.NoError(t, s.PutJSON("wa-ref", types.WhatsAppSMSSecret{
		TwilioAccountSID: "ACxxx", TwilioAuthToken: "tok", TwilioTemplateSID: "HXxxx",
	}))
	require.NoError(t, s.PutJSON("email-ref", types.EmailSecret{
		SendGridAuthValue: "SG.xxx", SendGridFromEmail: "noreply@example.com",
	}))

	ctx := context.Background()

	llm, err := LLMSecret(ctx, s, "llm-ref")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", llm.AIAPIKey)

	wa, err := WhatsAppSMSSecret(ctx, s, "wa-ref")
	require.NoError(t, err)
	assert.Equal(t, "HXxxx", wa.TwilioTemplateSID)

	email, err := EmailSecret(ctx, s, "email-ref")
	require.NoError(t, err)
	assert.Equal(t, "noreply@example.com", email.SendGridFromEmail)
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
