package ingress

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convoflow/convoflow/internal/metrics"
)

// Handler adapts a Router to net/http, including CORS preflight handling and request metrics.
type Handler struct {
	Router  *Router
	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// traceID correlates this request's log lines and response with operator-side debugging; it
	// is independent of the client-supplied request_id, which is a logical idempotency key, not
	// a per-HTTP-call trace handle.
	traceID := uuid.New().String()
	w.Header().Set("X-Trace-Id", traceID)

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
	w.Header().Set("Access-Control-Max-Age", "86400")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, Result{StatusCode: http.StatusMethodNotAllowed, Status: "error", Message: "method not allowed"})
		return
	}

	start := time.Now()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Result{StatusCode: http.StatusBadRequest, Status: "error", Message: "failed to read request body"})
		return
	}

	result := h.Router.Initiate(r.Context(), body)
	writeJSON(w, result.StatusCode, result)

	if h.Metrics != nil {
		h.Metrics.RecordHTTPRequest(r.Method, r.URL.Path, result.StatusCode, time.Since(start))
	}
	if h.Logger != nil && result.Status == "error" {
		h.Logger.Warn("ingress: request rejected",
			zap.String("trace_id", traceID),
			zap.Int("status", result.StatusCode),
			zap.String("error_code", string(result.ErrorCode)),
			zap.String("message", result.Message),
		)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
