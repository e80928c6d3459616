package twilio

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
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "whatsapp:+10000000000", r.FormValue("From"))
		assert.Equal(t, "whatsapp:+447123456789", r.FormValue("To"))
		assert.Equal(t, "HXtemplate", r.FormValue("ContentSid"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SMxxx","status":"queued"}`))
	}))
	defer server.Close()

	c := NewClient(Config{
		AccountSID:     "ACxxx",
		AuthToken:      "tok",
		BaseURL:        server.URL,
		WhatsAppPrefix: true,
	}, zap.NewNop())

	sid, err := c.Send(context.Background(), "+10000000000", "+447123456789", "HXtemplate", map[string]any{"1": "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "SMxxx", sid)
	assert.Contains(t, gotPath, "/Accounts/ACxxx/Messages.json")
}

func TestClient_Send_TwilioErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"sid":"SMxxx","status":"failed","error_code":21211,"error_message":"invalid number"}`))
	}))
	defer server.Close()

	c := NewClient(Config{AccountSID: "ACxxx", AuthToken: "tok", BaseURL: server.URL}, zap.NewNop())

	_, err := c.Send(context.Background(), "+1", "+44", "HXtemplate", nil)
	require.Error(t, err)
}

func TestClient_Send_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"auth failed"}`))
	}))
	defer server.Close()

	c := NewClient(Config{AccountSID: "ACxxx", AuthToken: "bad", BaseURL: server.URL}, zap.NewNop())

	_, err := c.Send(context.Background(), "+1", "+44", "HXtemplate", nil)
	require.Error(t, err)
}
