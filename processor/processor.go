// Package processor implements the Channel Processor: the consumer side of the pipeline that
// decodes a queued Context Object, bounds provider sends to at most one per conversation_id via
// the State Store's conditional insert, drives the LLM assistant run, invokes the messaging provider, and
// reconciles final state.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/convoflow/convoflow/alert"
	"github.com/convoflow/convoflow/internal/metrics"
	"github.com/convoflow/convoflow/processor/heartbeat"
	"github.com/convoflow/convoflow/provider"
	"github.com/convoflow/convoflow/provider/llmassistant"
	"github.com/convoflow/convoflow/queue"
	"github.com/convoflow/convoflow/store/convostore"
	"github.com/convoflow/convoflow/store/secretstore"
	"github.com/convoflow/convoflow/types"
)

// LLMFactory builds an llmassistant.Client from the tenant's decoded LLM credential.
type LLMFactory func(secret *types.LLMSecret) llmassistant.Client

// WhatsAppSMSFactory builds a provider.Sender from a decoded Twilio credential. The same
// factory shape serves both the WhatsApp and SMS channels; the Processor is configured with
// one instance per channel since the two may carry distinct timeouts or loggers.
type WhatsAppSMSFactory func(secret *types.WhatsAppSMSSecret) provider.Sender

// EmailFactory builds a provider.Sender from a decoded SendGrid credential.
type EmailFactory func(secret *types.EmailSecret) provider.Sender

// Outcome is the per-message result of the S1-S8 pipeline. Success means the caller should
// delete the queue message; Failure means the caller should leave it for redelivery (and,
// eventually, the queue's own dead-letter routing).
type Outcome struct {
	Success bool
	Err     error
}

// Processor holds every dependency the pipeline needs. ProcessorVersion is stamped into every
// Conversation Record this Processor writes, for diagnostics.
type Processor struct {
	Convo   convostore.Store
	Secrets secretstore.Store
	Alerts  alert.Sink
	Metrics *metrics.Collector
	Logger  *zap.Logger

	ProcessorVersion string

	// HeartbeatInterval and HeartbeatExtension parameterize S2: interval must be
	// strictly less than extension.
	HeartbeatInterval  time.Duration
	HeartbeatExtension time.Duration

	// RequiredVariables, if non-empty, is validated against the LLM reply's variable map
	// before the provider send.
	RequiredVariables []string

	LLMFactory      LLMFactory
	WhatsAppFactory WhatsAppSMSFactory
	SMSFactory      WhatsAppSMSFactory
	EmailFactory    EmailFactory

	// Now, if set, replaces time.Now for deterministic tests.
	Now func() time.Time
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

// ProcessBatch runs the S1-S8 pipeline over every message in msgs concurrently, isolating
// failures between sibling messages.
// q is the channel's Work Queue, used both by the heartbeat (ExtendVisibility) and by the
// caller (Delete on success, which ProcessBatch does not itself perform). The returned map is
// keyed by ReceiptHandle.
func (p *Processor) ProcessBatch(ctx context.Context, q queue.Queue, msgs []queue.Message) map[string]Outcome {
	out := make(map[string]Outcome, len(msgs))
	var mu sync.Mutex

	// A plain errgroup.Group, not errgroup.WithContext: processOne's failures must stay
	// isolated to that one message, never cancel the context siblings are running under.
	var eg errgroup.Group
	for _, m := range msgs {
		m := m
		eg.Go(func() error {
			outcome := Outcome{Success: false}
			defer func() {
				if r := recover(); r != nil {
					outcome = Outcome{Success: false, Err: fmt.Errorf("processor: panic while processing message: %v", r)}
				}
				mu.Lock()
				out[m.ReceiptHandle] = outcome
				mu.Unlock()
			}()
			outcome = p.processOne(ctx, q, m)
			return nil
		})
	}
	eg.Wait() //nolint:errcheck // every goroutine above always returns nil; failures are carried in Outcome, not the group error

	return out
}

func (p *Processor) processOne(ctx context.Context, q queue.Queue, msg queue.Message) Outcome {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// S1 — decode & validate.
	var obj types.ContextObject
	if err := json.Unmarshal([]byte(msg.Body), &obj); err != nil {
		logger.Error("processor: malformed context object, rejecting", zap.Error(err))
		return Outcome{Success: false, Err: fmt.Errorf("processor: decode context object: %w", err)}
	}
	if err := validateContextObject(&obj); err != nil {
		logger.Error("processor: context object failed structural validation", zap.Error(err))
		return Outcome{Success: false, Err: err}
	}

	channel := obj.FrontendPayload.RequestData.ChannelMethod
	logger = logger.With(
		zap.String("conversation_id", obj.ConversationData.ConversationID),
		zap.String("channel_method", string(channel)),
	)

	// S2 — start heartbeat.
	hb := heartbeat.New(q, msg.ReceiptHandle, p.HeartbeatInterval, p.HeartbeatExtension, logger)
	hb.Start(ctx)
	defer func() {
		hb.Stop()
		if err := hb.LastError(); err != nil {
			logger.Warn("processor: heartbeat reported an error during processing", zap.Error(err))
		}
	}()

	key := convostore.Key{
		PrimaryChannel: channel.PrimaryChannel(obj.FrontendPayload.RecipientData.RecipientTel, obj.FrontendPayload.RecipientData.RecipientEmail),
		ConversationID: obj.ConversationData.ConversationID,
	}

	// S3 — idempotent record creation.
	start := p.now()
	initialMessage, err := json.Marshal(&obj)
	if err != nil {
		logger.Error("processor: marshal initial message", zap.Error(err))
		return Outcome{Success: false, Err: fmt.Errorf("processor: marshal initial message: %w", err)}
	}
	record := types.NewInitialRecord(&obj, p.ProcessorVersion, string(initialMessage), start)
	outcome, err := p.Convo.CreateInitial(ctx, record)
	if err != nil {
		logger.Error("processor: state store insert failed", zap.Error(err))
		return Outcome{Success: false, Err: fmt.Errorf("processor: create initial record: %w", err)}
	}
	if outcome == convostore.AlreadyExists {
		if msg.ApproximateReceiveCount <= 1 {
			logger.Info("processor: duplicate delivery, conversation already recorded (client duplicate)")
		} else {
			logger.Info("processor: duplicate delivery, conversation already recorded (redelivery after partial failure)",
				zap.Int("approximate_receive_count", msg.ApproximateReceiveCount))
		}
		return Outcome{Success: true}
	}

	p.recordStage(channel, "create_initial", "success")

	// S4 — fetch credentials.
	llmSecret, err := secretstore.LLMSecret(ctx, p.Secrets, obj.CompanyDataPayload.AIConfig.LLMCredentialRef)
	if err != nil {
		return p.fail(ctx, logger, channel, key, "fetch_credentials", err)
	}
	providerSecret, err := p.fetchProviderSecret(ctx, channel, obj.CompanyDataPayload.ChannelConfig.CredentialRef)
	if err != nil {
		return p.fail(ctx, logger, channel, key, "fetch_credentials", err)
	}

	// S5 — LLM invocation.
	assistantID := obj.CompanyDataPayload.AIConfig.AssistantIDs[channel]

	llmClient := p.LLMFactory(llmSecret)
	result, err := llmClient.Run(ctx, assistantID, string(initialMessage))
	if err != nil {
		return p.fail(ctx, logger, channel, key, "llm_invocation", err)
	}
	if p.Metrics != nil {
		p.Metrics.RecordLLMRunDuration(string(channel), result.Elapsed)
	}
	if len(p.RequiredVariables) > 0 {
		if err := llmassistant.RequireFields(result.Variables, p.RequiredVariables); err != nil {
			return p.fail(ctx, logger, channel, key, "llm_invocation", err)
		}
	}

	// S6 — provider send.
	sender, templateID, err := p.buildSender(channel, providerSecret)
	if err != nil {
		return p.fail(ctx, logger, channel, key, "provider_send", err)
	}
	recipient := channel.PrimaryChannel(obj.FrontendPayload.RecipientData.RecipientTel, obj.FrontendPayload.RecipientData.RecipientEmail)
	providerMessageID, err := sender.Send(ctx, obj.CompanyDataPayload.ChannelConfig.SenderID, recipient, templateID, result.Variables)
	if err != nil {
		return p.fail(ctx, logger, channel, key, "provider_send", err)
	}
	p.recordStage(channel, "provider_send", "success")

	// S7 — final state update (critical).
	now := p.now()
	content, _ := json.Marshal(result.Variables)
	patch := convostore.SentUpdate{
		ThreadID:          result.ThreadID,
		AssistantEntry:    types.NewAssistantEntry(string(content), result.PromptTokens, result.CompletionTokens, now.Sub(start).Milliseconds()),
		ProcessingTimeMs:  now.Sub(start).Milliseconds(),
		ProviderMessageID: providerMessageID,
		UpdatedAt:         now,
	}
	if err := p.Convo.UpdateAfterSend(ctx, key, patch); err != nil {
		// The provider has already sent the message: the queue message must not be
		// redelivered, which would duplicate the send. This is the designated critical
		// failure path.
		p.Alerts.Critical(ctx, "state store update failed after provider send", map[string]any{
			"conversation_id":     key.ConversationID,
			"provider_message_id": providerMessageID,
			"thread_id":           result.ThreadID,
			"channel_method":      string(channel),
			"error":               err.Error(),
		})
		p.recordStage(channel, "final_update", "failure")
		p.recordResult(channel, "success")
		return Outcome{Success: true}
	}

	p.recordStage(channel, "final_update", "success")
	p.recordResult(channel, "success")
	return Outcome{Success: true}
}

// fail handles every S4-S6 failure path: best-effort status transition to failed, then S8 as
// failure.
func (p *Processor) fail(ctx context.Context, logger *zap.Logger, channel types.ChannelMethod, key convostore.Key, stage string, cause error) Outcome {
	logger.Error("processor: pipeline stage failed", zap.String("stage", stage), zap.Error(cause))
	if err := p.Convo.UpdateStatus(ctx, key, types.StatusFailed, p.now()); err != nil {
		logger.Error("processor: failed to record failed status", zap.Error(err))
	}
	p.recordStage(channel, stage, "failure")
	p.recordResult(channel, "failure")
	return Outcome{Success: false, Err: cause}
}

func (p *Processor) fetchProviderSecret(ctx context.Context, channel types.ChannelMethod, ref string) (any, error) {
	switch channel {
	case types.ChannelWhatsApp, types.ChannelSMS:
		return secretstore.WhatsAppSMSSecret(ctx, p.Secrets, ref)
	case types.ChannelEmail:
		return secretstore.EmailSecret(ctx, p.Secrets, ref)
	default:
		return nil, fmt.Errorf("processor: unsupported channel method %q", channel)
	}
}

func (p *Processor) buildSender(channel types.ChannelMethod, secret any) (provider.Sender, string, error) {
	switch channel {
	case types.ChannelWhatsApp:
		s, ok := secret.(*types.WhatsAppSMSSecret)
		if !ok {
			return nil, "", fmt.Errorf("processor: unexpected secret type for whatsapp channel")
		}
		return p.WhatsAppFactory(s), s.TwilioTemplateSID, nil
	case types.ChannelSMS:
		s, ok := secret.(*types.WhatsAppSMSSecret)
		if !ok {
			return nil, "", fmt.Errorf("processor: unexpected secret type for sms channel")
		}
		return p.SMSFactory(s), s.TwilioTemplateSID, nil
	case types.ChannelEmail:
		s, ok := secret.(*types.EmailSecret)
		if !ok {
			return nil, "", fmt.Errorf("processor: unexpected secret type for email channel")
		}
		return p.EmailFactory(s), s.SendGridTemplateID, nil
	default:
		return nil, "", fmt.Errorf("processor: unsupported channel method %q", channel)
	}
}

func (p *Processor) recordStage(channel types.ChannelMethod, stage, outcome string) {
	if p.Metrics != nil {
		p.Metrics.RecordPipelineStage(string(channel), stage, outcome)
	}
}

func (p *Processor) recordResult(channel types.ChannelMethod, result string) {
	if p.Metrics != nil {
		p.Metrics.RecordMessageResult(string(channel), result)
	}
}

// validateContextObject rejects structurally invalid Context Objects.
func validateContextObject(obj *types.ContextObject) error {
	if obj.ConversationData.ConversationID == "" {
		return fmt.Errorf("processor: missing conversation_id")
	}
	if !obj.FrontendPayload.RequestData.ChannelMethod.Valid() {
		return fmt.Errorf("processor: invalid channel_method %q", obj.FrontendPayload.RequestData.ChannelMethod)
	}
	if obj.FrontendPayload.CompanyData.CompanyID == "" || obj.FrontendPayload.CompanyData.ProjectID == "" {
		return fmt.Errorf("processor: missing company_id/project_id")
	}
	return nil
}
