// Package ingress implements the Ingress Router: the HTTP-triggered orchestrator that
// validates an inbound conversation-initiation request, loads tenant configuration, builds the
// Context Object, and enqueues it for the Channel Processor. It never calls the LLM, a
// messaging provider, the State Store, or the Secret Store.
package ingress

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"github.com/convoflow/convoflow/contextobj"
	"github.com/convoflow/convoflow/queue"
	"github.com/convoflow/convoflow/store/tenantstore"
	"github.com/convoflow/convoflow/types"
)

// e164Pattern matches international E.164 telephone numbers: a leading "+" followed by 2-15
// digits, the first of which is non-zero.
var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// RequestBody is the inbound HTTP request body.
type RequestBody struct {
	CompanyData   types.CompanyData   `json:"company_data"`
	RecipientData types.RecipientData `json:"recipient_data"`
	RequestData   types.RequestData   `json:"request_data"`
	ProjectData   map[string]any      `json:"project_data,omitempty"`
}

// Result is what Initiate returns to its HTTP caller. StatusCode is the HTTP status to write
// and is never part of the JSON body.
type Result struct {
	StatusCode     int             `json:"-"`
	Status         string          `json:"status"`
	RequestID      string          `json:"request_id,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	ErrorCode      types.ErrorCode `json:"error_code,omitempty"`
	Message        string          `json:"message,omitempty"`
	Details        any             `json:"details,omitempty"`
}

// Router composes the Config Store lookup, Context Builder, and Work Queue resolver into the
// enqueue path.
type Router struct {
	Tenants       tenantstore.Store
	Queues        queue.Resolver
	RouterVersion string

	// Dedupe is an optional latency-only guard against back-to-back client retries of the same
	// request_id; nil or a disabled cache is a correctness no-op (see DedupeCache doc comment).
	Dedupe *DedupeCache

	// Now, if set, replaces time.Now for deterministic tests.
	Now func() time.Time
}

func (rt *Router) now() time.Time {
	if rt.Now != nil {
		return rt.Now()
	}
	return time.Now().UTC()
}

// Initiate runs the eight-step Ingress algorithm over a raw JSON request body and
// returns the HTTP status and structured result to write back to the caller.
func (rt *Router) Initiate(ctx context.Context, raw []byte) Result {
	// Step 1 — parse.
	var body RequestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return errorResult(400, types.ErrInvalidRequest, "request body is not valid JSON")
	}

	// Step 2 — structural validation.
	if res, ok := validate(&body); !ok {
		return res
	}

	// Latency-only dedupe: answer an immediate retry of the same request_id from cache without
	// re-running the pipeline. Never the correctness mechanism — see DedupeCache doc comment.
	if rt.Dedupe != nil {
		if seen, ok := rt.Dedupe.Seen(ctx, body.RequestData.RequestID); ok {
			return Result{
				StatusCode:     200,
				Status:         "success",
				RequestID:      body.RequestData.RequestID,
				ConversationID: seen.ConversationID,
			}
		}
	}

	// Step 3 — config lookup.
	tenant, err := rt.Tenants.Get(ctx, body.CompanyData.CompanyID, body.CompanyData.ProjectID)
	if err != nil {
		if err == tenantstore.ErrNotFound {
			return errorResult(404, types.ErrCompanyNotFound, "no configuration found for this company/project")
		}
		return errorResult(500, types.ErrInternal, "config store lookup failed")
	}

	// Step 4 — config validation.
	if tenant.ProjectStatus != types.ProjectActive {
		return errorResult(403, types.ErrProjectInactive, "project is not active")
	}
	if !tenant.AllowsChannel(body.RequestData.ChannelMethod) {
		return errorResult(403, types.ErrChannelNotAllowed, "channel is not enabled for this project")
	}
	if _, ok := tenant.ChannelConfigFor(body.RequestData.ChannelMethod); !ok {
		return errorResult(500, types.ErrConfigurationErr, "channel config is missing for this project")
	}

	// Step 5 — build Context Object.
	obj, err := contextobj.Build(contextobj.InboundRequest{
		CompanyData:   body.CompanyData,
		RecipientData: body.RecipientData,
		RequestData:   body.RequestData,
		ProjectData:   body.ProjectData,
	}, tenant, rt.RouterVersion, rt.now())
	if err != nil {
		return errorResult(500, types.ErrConfigurationErr, "failed to build context object")
	}

	// Step 6 — resolve queue.
	q, ok := rt.Queues.For(string(body.RequestData.ChannelMethod))
	if !ok {
		return errorResult(500, types.ErrConfigurationErr, "no queue configured for this channel")
	}

	// Step 7 — enqueue.
	payload, err := json.Marshal(obj)
	if err != nil {
		return errorResult(500, types.ErrInternal, "failed to serialize context object")
	}
	if err := q.Send(ctx, queue.SendInput{
		Body: string(payload),
		Attributes: map[string]string{
			"company_id":     body.CompanyData.CompanyID,
			"project_id":     body.CompanyData.ProjectID,
			"channel_method": string(body.RequestData.ChannelMethod),
		},
	}); err != nil {
		return errorResult(500, types.ErrSQSSendError, "failed to enqueue request")
	}

	// Step 8 — success.
	if rt.Dedupe != nil {
		rt.Dedupe.Mark(ctx, body.RequestData.RequestID, obj.ConversationData.ConversationID)
	}
	return Result{
		StatusCode:     200,
		Status:         "success",
		RequestID:      body.RequestData.RequestID,
		ConversationID: obj.ConversationData.ConversationID,
	}
}

// validate performs the structural checks of step 2.
func validate(body *RequestBody) (Result, bool) {
	if body.CompanyData.CompanyID == "" || body.CompanyData.ProjectID == "" {
		return errorResult(400, types.ErrInvalidRequest, "company_data.company_id and company_data.project_id are required"), false
	}
	if body.RequestData.RequestID == "" {
		return errorResult(400, types.ErrInvalidRequest, "request_data.request_id is required"), false
	}
	if !body.RequestData.ChannelMethod.Valid() {
		return errorResult(400, types.ErrInvalidChannel, "request_data.channel_method must be one of whatsapp, sms, email"), false
	}
	if body.RequestData.InitialRequestTimestamp == "" {
		return errorResult(400, types.ErrInvalidRequest, "request_data.initial_request_timestamp is required"), false
	}

	switch body.RequestData.ChannelMethod {
	case types.ChannelWhatsApp, types.ChannelSMS:
		if !e164Pattern.MatchString(body.RecipientData.RecipientTel) {
			return errorResult(400, types.ErrInvalidRequest, "recipient_data.recipient_tel must be a valid E.164 number"), false
		}
	case types.ChannelEmail:
		if body.RecipientData.RecipientEmail == "" {
			return errorResult(400, types.ErrInvalidRequest, "recipient_data.recipient_email is required"), false
		}
	}

	if !body.RecipientData.CommsConsent {
		return errorResult(400, types.ErrConsentRequired, "recipient_data.comms_consent must be true"), false
	}

	return Result{}, true
}

func errorResult(status int, code types.ErrorCode, message string) Result {
	return Result{
		StatusCode: status,
		Status:     "error",
		ErrorCode:  code,
		Message:    message,
	}
}
