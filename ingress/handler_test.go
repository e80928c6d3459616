package ingress

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_OptionsPreflight(t *testing.T) {
	router, _, _ := newTestRouter(t)
	h := &Handler{Router: router}

	req := httptest.NewRequest(http.MethodOptions, "/v1/conversations", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_PostValidRequestReturns200(t *testing.T) {
	router, _, _ := newTestRouter(t)
	h := &Handler{Router: router}

	body, err := json.Marshal(validBody())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "success", result.Status)
}

func TestHandler_GetMethodNotAllowed(t *testing.T) {
	router, _, _ := newTestRouter(t)
	h := &Handler{Router: router}

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// TestHandler_SuccessBodyMatchesWireContractExactly guards against leaking Go-internal fields
// (like Result.StatusCode) into the JSON body: the success shape is exactly
// {"status","request_id","conversation_id"}, nothing more.
func TestHandler_SuccessBodyMatchesWireContractExactly(t *testing.T) {
	router, _, _ := newTestRouter(t)
	h := &Handler{Router: router}

	body, err := json.Marshal(validBody())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"status", "request_id", "conversation_id"}, keys)
}

// TestHandler_ErrorBodyMatchesWireContractExactly guards the error shape:
// {"status","error_code","message"}, no "details" when none was set, no "StatusCode" leak.
func TestHandler_ErrorBodyMatchesWireContractExactly(t *testing.T) {
	router, _, _ := newTestRouter(t)
	h := &Handler{Router: router}

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.NotEqual(t, http.StatusOK, w.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"status", "error_code", "message"}, keys)
}
