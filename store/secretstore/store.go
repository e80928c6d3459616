// Package secretstore reads the Secret Store: opaque JSON blobs keyed by a reference string
// carried in the Config Store and the Context Object.
package secretstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/convoflow/convoflow/types"
)

// Store reads raw secret blobs by reference string. It is read-only to the core.
type Store interface {
	Get(ctx context.Context, ref string) (json.RawMessage, error)
}

// LLMSecret fetches and decodes the LLM credential blob.
func LLMSecret(ctx context.Context, s Store, ref string) (*types.LLMSecret, error) {
	raw, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	var out types.LLMSecret
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("secretstore: decode llm secret %q: %w", ref, err)
	}
	return &out, nil
}

// WhatsAppSMSSecret fetches and decodes a WhatsApp/SMS provider credential blob.
func WhatsAppSMSSecret(ctx context.Context, s Store, ref string) (*types.WhatsAppSMSSecret, error) {
	raw, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	var out types.WhatsAppSMSSecret
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("secretstore: decode whatsapp/sms secret %q: %w", ref, err)
	}
	return &out, nil
}

// EmailSecret fetches and decodes an email provider credential blob.
func EmailSecret(ctx context.Context, s Store, ref string) (*types.EmailSecret, error) {
	raw, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	var out types.EmailSecret
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("secretstore: decode email secret %q: %w", ref, err)
	}
	return &out, nil
}
