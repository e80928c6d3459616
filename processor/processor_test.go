package processor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoflow/convoflow/alert"
	"github.com/convoflow/convoflow/provider"
	"github.com/convoflow/convoflow/provider/llmassistant"
	"github.com/convoflow/convoflow/queue"
	"github.com/convoflow/convoflow/queue/memqueue"
	"github.com/convoflow/convoflow/store/convostore"
	"github.com/convoflow/convoflow/store/secretstore"
	"github.com/convoflow/convoflow/types"
)

type fakeSender struct {
	id  string
	err error
}

func (f *fakeSender) Send(context.Context, string, string, string, map[string]any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

// failingAfterSendStore wraps a MemoryStore and forces UpdateAfterSend to fail, to exercise
// the S7 critical failure path.
type failingAfterSendStore struct {
	*convostore.MemoryStore
}

func (f *failingAfterSendStore) UpdateAfterSend(context.Context, convostore.Key, convostore.SentUpdate) error {
	return errors.New("simulated write failure")
}

func testContextObject(requestID string) types.ContextObject {
	return types.ContextObject{
		Metadata: types.ContextMetadata{RouterVersion: "v1", CreatedAt: time.Now().UTC()},
		FrontendPayload: types.FrontendPayload{
			CompanyData:   types.CompanyData{CompanyID: "acme", ProjectID: "proj1"},
			RecipientData: types.RecipientData{RecipientTel: "+447123456789", CommsConsent: true},
			RequestData:   types.RequestData{RequestID: requestID, ChannelMethod: types.ChannelWhatsApp},
		},
		CompanyDataPayload: types.CompanyDataPayload{
			ChannelConfig: types.ChannelConfig{CredentialRef: "wa-secret", SenderID: "+10000000000"},
			AIConfig: types.AIConfig{
				LLMCredentialRef: "llm-secret",
				AssistantIDs:     map[types.ChannelMethod]string{types.ChannelWhatsApp: "asst_1"},
			},
		},
		ConversationData: types.ConversationData{ConversationID: "acme#proj1#" + requestID + "#447123456789"},
	}
}

func newTestProcessor(convo convostore.Store, secrets *secretstore.MemoryStore, sendErr, llmErr error) *Processor {
	return &Processor{
		Convo:              convo,
		Secrets:            secrets,
		Alerts:             alert.NewMemorySink(),
		ProcessorVersion:   "v1",
		HeartbeatInterval:  5 * time.Millisecond,
		HeartbeatExtension: time.Minute,
		LLMFactory: func(secret *types.LLMSecret) llmassistant.Client {
			c := llmassistant.NewMemoryClient(map[string]any{"body": "hello"})
			c.Err = llmErr
			return c
		},
		WhatsAppFactory: func(secret *types.WhatsAppSMSSecret) provider.Sender {
			return &fakeSender{id: "SMxxx", err: sendErr}
		},
		SMSFactory: func(secret *types.WhatsAppSMSSecret) provider.Sender {
			return &fakeSender{id: "SMxxx", err: sendErr}
		},
		EmailFactory: func(secret *types.EmailSecret) provider.Sender {
			return &fakeSender{id: "email-1", err: sendErr}
		},
	}
}

func seedSecrets(t *testing.T) *secretstore.MemoryStore {
	t.Helper()
	s := secretstore.NewMemoryStore()
	require.NoError(t, s.PutJSON("llm-secret", types.LLMSecret{AIAPIKey: "sk-test"}))
	require.NoError(t, s.PutJSON("wa-secret", types.WhatsAppSMSSecret{
		TwilioAccountSID: "ACxxx", TwilioAuthToken: "tok", TwilioTemplateSID: "HXtemplate",
	}))
	return s
}

func enqueue(t *testing.T, q *memqueue.Queue, obj types.ContextObject) queue.Message {
	t.Helper()
	body, err := json.Marshal(obj)
	require.NoError(t, err)
	require.NoError(t, q.Send(context.Background(), queue.SendInput{Body: string(body)}))
	msgs, err := q.Receive(context.Background(), 1, time.Second)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	return msgs[0]
}

func TestProcessBatch_HappyPath(t *testing.T) {
	convo := convostore.NewMemoryStore()
	secrets := seedSecrets(t)
	q := memqueue.New(5)
	msg := enqueue(t, q, testContextObject("req-1"))

	p := newTestProcessor(convo, secrets, nil, nil)
	out := p.ProcessBatch(context.Background(), q, []queue.Message{msg})

	outcome := out[msg.ReceiptHandle]
	assert.True(t, outcome.Success)
	assert.NoError(t, outcome.Err)

	rec, ok := convo.Get("+447123456789", "acme#proj1#req-1#447123456789")
	require.True(t, ok)
	assert.Equal(t, types.StatusInitialMessageSent, rec.ConversationStatus)
	assert.Equal(t, 1, rec.TaskComplete)
	assert.Equal(t, "SMxxx", rec.ProviderMessageID)
	require.Len(t, rec.Messages, 2)
	assert.Equal(t, types.RoleUser, rec.Messages[0].Role)
	assert.Equal(t, types.RoleAssistant, rec.Messages[1].Role)
}

func TestProcessBatch_ClientDuplicate(t *testing.T) {
	convo := convostore.NewMemoryStore()
	secrets := seedSecrets(t)
	q := memqueue.New(5)
	obj := testContextObject("req-dup")

	first := enqueue(t, q, obj)
	p := newTestProcessor(convo, secrets, nil, nil)
	out := p.ProcessBatch(context.Background(), q, []queue.Message{first})
	require.True(t, out[first.ReceiptHandle].Success)

	// Simulate a second delivery of an identical payload with receive count 1 (client-side
	// duplicate send, not a requeue).
	second := enqueue(t, q, obj)
	second.ApproximateReceiveCount = 1
	out = p.ProcessBatch(context.Background(), q, []queue.Message{second})
	assert.True(t, out[second.ReceiptHandle].Success)

	rec, ok := convo.Get("+447123456789", obj.ConversationData.ConversationID)
	require.True(t, ok)
	// Only the first delivery's provider send actually happened; the record was not touched
	// again by the duplicate.
	assert.Equal(t, types.StatusInitialMessageSent, rec.ConversationStatus)
}

func TestProcessBatch_RedeliveryAfterPartialFailure(t *testing.T) {
	convo := convostore.NewMemoryStore()
	secrets := seedSecrets(t)
	q := memqueue.New(5)
	obj := testContextObject("req-redelivered")

	first := enqueue(t, q, obj)
	p := newTestProcessor(convo, secrets, nil, nil)
	out := p.ProcessBatch(context.Background(), q, []queue.Message{first})
	require.True(t, out[first.ReceiptHandle].Success)

	redelivered := first
	redelivered.ApproximateReceiveCount = 2
	out = p.ProcessBatch(context.Background(), q, []queue.Message{redelivered})
	assert.True(t, out[redelivered.ReceiptHandle].Success)
}

func TestProcessBatch_LLMFailureMarksRecordFailed(t *testing.T) {
	convo := convostore.NewMemoryStore()
	secrets := seedSecrets(t)
	q := memqueue.New(5)
	obj := testContextObject("req-llm-fail")
	msg := enqueue(t, q, obj)

	p := newTestProcessor(convo, secrets, nil, errors.New("assistant run failed"))
	out := p.ProcessBatch(context.Background(), q, []queue.Message{msg})

	assert.False(t, out[msg.ReceiptHandle].Success)
	rec, ok := convo.Get("+447123456789", obj.ConversationData.ConversationID)
	require.True(t, ok)
	assert.Equal(t, types.StatusFailed, rec.ConversationStatus)
}

func TestProcessBatch_ProviderSendFailureMarksRecordFailed(t *testing.T) {
	convo := convostore.NewMemoryStore()
	secrets := seedSecrets(t)
	q := memqueue.New(5)
	obj := testContextObject("req-send-fail")
	msg := enqueue(t, q, obj)

	p := newTestProcessor(convo, secrets, errors.New("twilio rejected"), nil)
	out := p.ProcessBatch(context.Background(), q, []queue.Message{msg})

	assert.False(t, out[msg.ReceiptHandle].Success)
	rec, ok := convo.Get("+447123456789", obj.ConversationData.ConversationID)
	require.True(t, ok)
	assert.Equal(t, types.StatusFailed, rec.ConversationStatus)
}

func TestProcessBatch_CriticalFailureAfterSendIsStillQueueSuccess(t *testing.T) {
	inner := convostore.NewMemoryStore()
	convo := &failingAfterSendStore{MemoryStore: inner}
	secrets := seedSecrets(t)
	sink := alert.NewMemorySink()
	q := memqueue.New(5)
	obj := testContextObject("req-critical")
	msg := enqueue(t, q, obj)

	p := newTestProcessor(convo, secrets, nil, nil)
	p.Alerts = sink
	out := p.ProcessBatch(context.Background(), q, []queue.Message{msg})

	// The provider already sent the message: the queue message must succeed (not be
	// redelivered) even though the final state update failed.
	assert.True(t, out[msg.ReceiptHandle].Success)

	records := sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "state store update failed after provider send", records[0].Reason)
	assert.Equal(t, obj.ConversationData.ConversationID, records[0].Fields["conversation_id"])
}

func TestProcessBatch_MalformedBodyIsRejected(t *testing.T) {
	convo := convostore.NewMemoryStore()
	secrets := seedSecrets(t)
	q := memqueue.New(5)
	require.NoError(t, q.Send(context.Background(), queue.SendInput{Body: "not json"}))
	msgs, err := q.Receive(context.Background(), 1, time.Second)
	require.NoError(t, err)

	p := newTestProcessor(convo, secrets, nil, nil)
	out := p.ProcessBatch(context.Background(), q, msgs)
	assert.False(t, out[msgs[0].ReceiptHandle].Success)
}

func TestProcessBatch_DLQRoutingAfterMaxRedeliveries(t *testing.T) {
	q := memqueue.New(2)
	obj := testContextObject("req-poison")
	body, err := json.Marshal(obj)
	require.NoError(t, err)
	require.NoError(t, q.Send(context.Background(), queue.SendInput{Body: string(body)}))

	for i := 0; i < 3; i++ {
		msgs, err := q.Receive(context.Background(), 1, time.Second)
		require.NoError(t, err)
		if len(msgs) == 0 {
			break
		}
		q.Requeue(msgs[0].ReceiptHandle)
	}

	assert.Len(t, q.DLQ(), 1)
}
