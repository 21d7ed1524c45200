// Package api exposes the inbound webhooks, the human decision callbacks and
// the MCP control tools.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRequestBodySize = 1 << 20 // 1MB

// NewHandler returns the router for every inbound endpoint. Email and SMS
// webhooks are unauthenticated; the relay, action and poll routes require a
// relay token when deps.Signer is set.
func NewHandler(deps Deps) http.Handler {
	actions := NewActions(deps.Pending, deps.Enroller)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/email", handleEmail(deps))
	r.Post("/sms", handleSMS(deps))

	r.Group(func(r chi.Router) {
		r.Use(RelayAuth(deps.Signer))
		r.Post("/notify", handleNotify(deps))
		r.Post("/actions/{id}/approve", handleApprove(actions))
		r.Post("/actions/{id}/reject", handleReject(actions))
		r.Post("/poll", handlePoll(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, code int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(text))
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
