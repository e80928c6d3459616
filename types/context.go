package types

import "time"

// ContextObject is the immutable envelope the Ingress Router builds and enqueues, and the
// Channel Processor decodes in S1. Field names are a stable wire contract.
type ContextObject struct {
	Metadata           ContextMetadata    `json:"metadata"`
	FrontendPayload    FrontendPayload    `json:"frontend_payload"`
	CompanyDataPayload CompanyDataPayload `json:"company_data_payload"`
	ConversationData   ConversationData   `json:"conversation_data"`
}

// ContextMetadata records router version and construction time.
type ContextMetadata struct {
	RouterVersion string    `json:"router_version"`
	CreatedAt     time.Time `json:"created_at"` // UTC, RFC 3339
}

// FrontendPayload echoes the validated inbound request.
type FrontendPayload struct {
	CompanyData   CompanyData    `json:"company_data"`
	RecipientData RecipientData  `json:"recipient_data"`
	RequestData   RequestData    `json:"request_data"`
	ProjectData   map[string]any `json:"project_data,omitempty"`
}

// CompanyData identifies the tenant+project for this request.
type CompanyData struct {
	CompanyID string `json:"company_id"`
	ProjectID string `json:"project_id"`
}

// RecipientData carries recipient identity and consent.
type RecipientData struct {
	RecipientFirstName string `json:"recipient_first_name,omitempty"`
	RecipientLastName  string `json:"recipient_last_name,omitempty"`
	RecipientTel       string `json:"recipient_tel,omitempty"`
	RecipientEmail     string `json:"recipient_email,omitempty"`
	CommsConsent       bool   `json:"comms_consent"`
}

// RequestData carries the logical-request identity and channel selection.
type RequestData struct {
	RequestID                string        `json:"request_id"`
	ChannelMethod             ChannelMethod `json:"channel_method"`
	InitialRequestTimestamp   string        `json:"initial_request_timestamp"` // RFC3339 string, as received
}

// CompanyDataPayload is a snapshot of the tenant+project config row relevant to this channel.
type CompanyDataPayload struct {
	AllowedChannels []ChannelMethod `json:"allowed_channels"`
	ChannelConfig   ChannelConfig   `json:"channel_config"`
	AIConfig        AIConfig        `json:"ai_config"`
	TenantReps      []TenantRep     `json:"tenant_reps,omitempty"`
	RateLimitHints  map[string]int  `json:"rate_limit_hints,omitempty"`
}

// ConversationData carries the conversation_id plus result placeholders.
type ConversationData struct {
	ConversationID string `json:"conversation_id"`

	// Zero-valued at construction time. The Channel Processor records these results on the
	// Conversation Record, not on the Context Object.
	ThreadID                 string         `json:"thread_id,omitempty"`
	Messages                 []MessageEntry `json:"messages,omitempty"`
	ProcessingTimeMs         int64          `json:"processing_time_ms,omitempty"`
	ProviderMessageID        string         `json:"provider_message_id,omitempty"`
}
