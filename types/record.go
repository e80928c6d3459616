package types

import "time"

// ConversationStatus is the state-machine value of a Conversation Record.
type ConversationStatus string

const (
	StatusProcessing          ConversationStatus = "processing"
	StatusInitialMessageSent  ConversationStatus = "initial_message_sent"
	StatusFailed              ConversationStatus = "failed"
)

// ConversationRecord is the State Store record. Identity is (PrimaryChannel, ConversationID).
// Field names are a stable contract with out-of-scope reply/reconciliation tooling — never
// rename them.
type ConversationRecord struct {
	PrimaryChannel string `json:"primary_channel"` // partition key
	ConversationID string `json:"conversation_id"` // sort key

	CompanyID         string             `json:"company_id"`
	ProjectID         string             `json:"project_id"`
	ChannelMethod     ChannelMethod      `json:"channel_method"`
	ConversationStatus ConversationStatus `json:"conversation_status"`
	TaskComplete      int                `json:"task_complete"` // 0 or 1
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	RequestID         string             `json:"request_id"`
	RouterVersion     string             `json:"router_version"`
	ProcessorVersion  string             `json:"processor_version"`

	ThreadID          string         `json:"thread_id,omitempty"`
	Messages          []MessageEntry `json:"messages"`
	ProcessingTimeMs  int64          `json:"processing_time_ms,omitempty"`
	ProviderMessageID string         `json:"provider_message_id,omitempty"`

	ProjectData   map[string]any `json:"project_data,omitempty"`
	TenantReps    []TenantRep    `json:"tenant_reps,omitempty"`
	AIConfig      AIConfig       `json:"ai_config"`
	ChannelConfig ChannelConfig  `json:"channel_config"`

	HandOffToHuman       bool   `json:"hand_off_to_human"`
	HandOffReason        string `json:"hand_off_reason,omitempty"`
}

// NewInitialRecord builds the initial-insert attributes from a Context Object:
// conversation_status = processing, task_complete = 0, a single RoleUser message entry
// carrying initialMessage (the exact payload about to be submitted to the LLM), timestamps,
// full snapshots.
func NewInitialRecord(ctx *ContextObject, processorVersion, initialMessage string, now time.Time) *ConversationRecord {
	fp := ctx.FrontendPayload
	primary := fp.RequestData.ChannelMethod.PrimaryChannel(fp.RecipientData.RecipientTel, fp.RecipientData.RecipientEmail)

	return &ConversationRecord{
		PrimaryChannel:     primary,
		ConversationID:     ctx.ConversationData.ConversationID,
		CompanyID:          fp.CompanyData.CompanyID,
		ProjectID:          fp.CompanyData.ProjectID,
		ChannelMethod:      fp.RequestData.ChannelMethod,
		ConversationStatus: StatusProcessing,
		TaskComplete:       0,
		CreatedAt:          now,
		UpdatedAt:          now,
		RequestID:          fp.RequestData.RequestID,
		RouterVersion:      ctx.Metadata.RouterVersion,
		ProcessorVersion:   processorVersion,
		Messages:           []MessageEntry{NewUserEntry(initialMessage, now)},
		ProjectData:        fp.ProjectData,
		TenantReps:         ctx.CompanyDataPayload.TenantReps,
		AIConfig:           ctx.CompanyDataPayload.AIConfig,
		ChannelConfig:      ctx.CompanyDataPayload.ChannelConfig,
	}
}

// SentUpdate is the S7 patch applied after a successful LLM run and provider send.
type SentUpdate struct {
	ThreadID          string
	AssistantEntry    MessageEntry
	ProcessingTimeMs  int64
	ProviderMessageID string
	UpdatedAt         time.Time
}
