// Package provider defines the Messaging Provider Client contract shared by the WhatsApp, SMS,
// and email channel implementations.
package provider

import "context"

// Sender sends one templated message. Both clients are thin and stateless: they do not retry
// internally beyond the underlying HTTP client's defaults.
type Sender interface {
	// Send invokes the provider's template-send call. sender is the tenant's sender identity
	// from channel config, recipient is the recipient identifier from the Context Object,
	// templateID comes from the provider credential blob, and variables is the LLM's variable
	// map from S5. Returns an opaque provider message id on success.
	Send(ctx context.Context, sender, recipient, templateID string, variables map[string]any) (string, error)
}
