package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dashwise/dashboard-assistant/internal/core/ports"
	"github.com/dashwise/dashboard-assistant/internal/observability/metrics"
)

const serviceName = "dashboard-assistant"

type Config struct {
	RateLimitRPS   int
	RateLimitBurst int
	MaxInFlight    int
}

type Router struct {
	assistant ports.ChatAssistant
	metrics   *metrics.ServerMetrics
	cfg       Config
}

func NewRouter(assistant ports.ChatAssistant, serverMetrics *metrics.ServerMetrics, cfg Config) *Router {
	return &Router{
		assistant: assistant,
		metrics:   serverMetrics,
		cfg:       cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/chat", rt.chat)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.cfg.MaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, 100*time.Millisecond)
	}
	if rt.cfg.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = metricsMiddleware(handler, rt.metrics)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Intent    string `json:"intent"`
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result, err := rt.assistant.Answer(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": "failed to answer"})
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordTurn(serviceName, result)
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  result.Response,
		SessionID: result.SessionID,
		Intent:    string(result.Intent),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
