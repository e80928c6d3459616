// Package contextobj implements the Context Builder: a pure function that assembles the
// Context Object enqueued by the Ingress Router from the validated request payload and the
// tenant config row.
package contextobj

import (
	"fmt"
	"time"

	"github.com/convoflow/convoflow/types"
)

// InboundRequest is the decoded+validated HTTP request body, prior to any
// config-store enrichment.
type InboundRequest struct {
	CompanyData   types.CompanyData
	RecipientData types.RecipientData
	RequestData   types.RequestData
	ProjectData   map[string]any
}

// Build assembles the Context Object from the inbound request and the tenant config row.
// It is deterministic: identical inputs always produce an identical conversation_id and
// Context Object, independent of wall-clock time, other than the metadata.created_at
// timestamp supplied by the caller.
//
// routerVersion identifies the build of the Ingress Router that produced this object; it is
// carried into the Conversation Record for diagnostics.
func Build(req InboundRequest, cfg *types.TenantConfig, routerVersion string, now time.Time) (*types.ContextObject, error) {
	channelCfg, ok := cfg.ChannelConfigFor(req.RequestData.ChannelMethod)
	if !ok {
		return nil, fmt.Errorf("contextobj: no channel config for %q", req.RequestData.ChannelMethod)
	}

	recipient := recipientIdentifier(req.RequestData.ChannelMethod, req.RecipientData)
	conversationID := ConversationID(req.CompanyData.CompanyID, req.CompanyData.ProjectID, req.RequestData.RequestID, recipient)

	return &types.ContextObject{
		Metadata: types.ContextMetadata{
			RouterVersion: routerVersion,
			CreatedAt:     now.UTC(),
		},
		FrontendPayload: types.FrontendPayload{
			CompanyData:   req.CompanyData,
			RecipientData: req.RecipientData,
			RequestData:   req.RequestData,
			ProjectData:   req.ProjectData,
		},
		CompanyDataPayload: types.CompanyDataPayload{
			AllowedChannels: cfg.AllowedChannels,
			ChannelConfig:   channelCfg,
			AIConfig:        cfg.AIConfig,
			TenantReps:      cfg.TenantReps,
			RateLimitHints:  cfg.RateLimitHints,
		},
		ConversationData: types.ConversationData{
			ConversationID: conversationID,
		},
	}, nil
}

// ConversationID reproduces the composite idempotency key from its parts:
// "{company_id}#{project_id}#{request_id}#{sanitized_recipient}".
func ConversationID(companyID, projectID, requestID, recipient string) string {
	return fmt.Sprintf("%s#%s#%s#%s", companyID, projectID, requestID, types.SanitizeRecipient(recipient))
}

// recipientIdentifier picks the recipient identifier field relevant to channel: telephone for
// WhatsApp/SMS, email for email.
func recipientIdentifier(channel types.ChannelMethod, recipient types.RecipientData) string {
	if channel == types.ChannelEmail {
		return recipient.RecipientEmail
	}
	return recipient.RecipientTel
}
