package email

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClient_Send_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		w.Header().Set("X-Message-Id", "msg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	c := NewClient(Config{
		AuthValue: "sg-key",
		FromEmail: "noreply@example.com",
		BaseURL:   server.URL,
	}, zap.NewNop())

	id, err := c.Send(context.Background(), "ignored", "jane@example.com", "d-template", map[string]any{"name": "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "msg-123", id)
}

func TestClient_Send_MissingMessageIDHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	c := NewClient(Config{AuthValue: "sg-key", FromEmail: "noreply@example.com", BaseURL: server.URL}, zap.NewNop())
	_, err := c.Send(context.Background(), "ignored", "jane@example.com", "d-template", nil)
	require.Error(t, err)
}

func TestClient_Send_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"message":"invalid template id"}]}`))
	}))
	defer server.Close()

	c := NewClient(Config{AuthValue: "sg-key", FromEmail: "noreply@example.com", BaseURL: server.URL}, zap.NewNop())
	_, err := c.Send(context.Background(), "ignored", "jane@example.com", "bogus", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid template id")
}
