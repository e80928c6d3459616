package types

// ProjectStatus is the tenant+project's activation state.
type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectInactive ProjectStatus = "inactive"
)

// TenantConfig is the Config Store record, identity (company_id, project_id), read-only to the
// core.
type TenantConfig struct {
	CompanyID       string                        `json:"company_id"`
	ProjectID       string                        `json:"project_id"`
	ProjectStatus   ProjectStatus                 `json:"project_status"`
	AllowedChannels []ChannelMethod                `json:"allowed_channels"`
	ChannelConfigs  map[ChannelMethod]ChannelConfig `json:"channel_configs"`
	AIConfig        AIConfig                       `json:"ai_config"`
	TenantReps      []TenantRep                    `json:"tenant_reps,omitempty"`
	RateLimitHints  map[string]int                 `json:"rate_limit_hints,omitempty"`
}

// ChannelConfig is the per-channel static config block: a credential-reference string plus
// channel-specific static fields such as sender identity.
type ChannelConfig struct {
	CredentialRef string `json:"credential_ref"`
	SenderID      string `json:"sender_id"` // WhatsApp/SMS "from" number or email "from" address
}

// AIConfig holds assistant identifiers keyed by channel plus the LLM credential reference.
type AIConfig struct {
	LLMCredentialRef string                          `json:"llm_credential_ref"`
	AssistantIDs     map[ChannelMethod]string        `json:"assistant_ids"`
}

// TenantRep is an optional tenant representative surfaced to the LLM as conversation context.
type TenantRep struct {
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
}

// AllowsChannel reports whether ch is in the tenant's allowed_channels set.
func (t *TenantConfig) AllowsChannel(ch ChannelMethod) bool {
	for _, c := range t.AllowedChannels {
		if c == ch {
			return true
		}
	}
	return false
}

// ChannelConfigFor returns the channel config block for ch, if present.
func (t *TenantConfig) ChannelConfigFor(ch ChannelMethod) (ChannelConfig, bool) {
	cfg, ok := t.ChannelConfigs[ch]
	return cfg, ok
}

// AssistantIDFor returns the assistant identifier configured for ch, if present.
func (a AIConfig) AssistantIDFor(ch ChannelMethod) (string, bool) {
	id, ok := a.AssistantIDs[ch]
	return id, ok
}
