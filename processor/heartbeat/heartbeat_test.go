package heartbeat

import (
	"context"
	"testing"
	"time"

	"github.com/convoflow/convoflow/queue"
	"github.com/convoflow/convoflow/queue/memqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeartbeat_ExtendsVisibilityUntilStopped(t *testing.T) {
	q := memqueue.New(5)
	require.NoError(t, q.Send(context.Background(), queue.SendInput{Body: "body"}))
	msgs, err := q.Receive(context.Background(), 1, time.Second)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	hb := New(q, msgs[0].ReceiptHandle, 10*time.Millisecond, time.Hour, nil)
	hb.Start(context.Background())

	time.Sleep(50 * time.Millisecond)
	hb.Stop()

	assert.NoError(t, hb.LastError())
}

func TestHeartbeat_StopIsIdempotent(t *testing.T) {
	q := memqueue.New(5)
	require.NoError(t, q.Send(context.Background(), queue.SendInput{Body: "body"}))
	msgs, err := q.Receive(context.Background(), 1, time.Second)
	require.NoError(t, err)

	hb := New(q, msgs[0].ReceiptHandle, 10*time.Millisecond, time.Hour, nil)
	hb.Start(context.Background())
	hb.Stop()
	hb.Stop() // must not panic
}

func TestHeartbeat_CapturesExtendError(t *testing.T) {
	q := memqueue.New(0)

	hb := New(q, "nonexistent-receipt", 5*time.Millisecond, time.Minute, nil)
	hb.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	hb.Stop()

	assert.Error(t, hb.LastError())
}
